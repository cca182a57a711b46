package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()
	_, err := NewClient("  ", "")
	require.Error(t, err)

	client, err := NewClient("key", "")
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, client.baseURL)
}

func TestCreateChatCompletion(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-3.5-turbo", req.Model)
		require.Equal(t, 64, req.MaxTokens)
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-3.5-turbo","choices":[{"message":{"role":"assistant","content":"short"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`))
	}))
	defer server.Close()

	client, err := NewClient("secret", server.URL+"/")
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:     "gpt-3.5-turbo",
		MaxTokens: 64,
		Messages: []Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "text"},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "short", resp.Choices[0].Message.Content)
	require.Equal(t, Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12}, resp.Usage)
}

func TestCreateChatCompletionReportsStatus(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient("secret", server.URL)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "gpt-4"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "rate limited")
}

func TestListModels(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4","owned_by":"openai"},{"id":"gpt-3.5-turbo","owned_by":"openai"}]}`))
	}))
	defer server.Close()

	client, err := NewClient("secret", server.URL)
	require.NoError(t, err)

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Model{{ID: "gpt-4", OwnedBy: "openai"}, {ID: "gpt-3.5-turbo", OwnedBy: "openai"}}, models)
}
