package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/llm/chatgpt"
)

type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		out = append(out, int(r))
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

func (runeTokenizer) Count(text string) int {
	return utf8.RuneCountInString(text)
}

func request(text string) summarizer.CompletionRequest {
	return summarizer.CompletionRequest{
		Model: "gpt-3.5-turbo",
		Messages: []summarizer.Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: summarizer.FormatUserPrompt(text)},
		},
		MaxTokens: 4,
	}
}

func TestChatGPTCompleterMapsResponse(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  brief\n\nkey points  "}}],"usage":{"prompt_tokens":20,"completion_tokens":3,"total_tokens":23}}`))
	}))
	defer server.Close()

	client, err := chatgpt.NewClient("secret", server.URL)
	require.NoError(t, err)

	got, err := NewChatGPTCompleter(client).Complete(context.Background(), request("some text"))
	require.NoError(t, err)
	require.Equal(t, "  brief\n\nkey points  ", got.Text)
	require.Equal(t, 23, got.Usage.TotalTokens)
	require.Equal(t, 20, got.Usage.PromptTokens)
}

func TestChatGPTCompleterWrapsFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrEmptyChoices},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := chatgpt.NewClient("secret", server.URL)
			require.NoError(t, err)

			_, err = NewChatGPTCompleter(client).Complete(context.Background(), request("x"))
			var completionErr *summarizer.CompletionError
			require.ErrorAs(t, err, &completionErr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestExcerptCompleterShortensText(t *testing.T) {
	t.Parallel()
	completer := NewExcerptCompleter(runeTokenizer{})

	got, err := completer.Complete(context.Background(), request("abcdef"))
	require.NoError(t, err)
	require.Equal(t, "abc", got.Text)

	got, err = completer.Complete(context.Background(), request("abcdefghijklmnop"))
	require.NoError(t, err)
	require.Equal(t, "abcd", got.Text)
	require.Equal(t, 4, got.Usage.CompletionTokens)
	require.Equal(t, got.Usage.PromptTokens+4, got.Usage.TotalTokens)
}

type stubLister struct {
	calls  atomic.Int32
	models []chatgpt.Model
	err    error
}

func (s *stubLister) ListModels(context.Context) ([]chatgpt.Model, error) {
	s.calls.Add(1)
	return s.models, s.err
}

func TestModelCatalogCachesListing(t *testing.T) {
	t.Parallel()
	lister := &stubLister{models: []chatgpt.Model{{ID: "gpt-4"}, {ID: "gpt-3.5-turbo"}}}
	catalog := NewModelCatalog(lister)

	ok, err := catalog.IsSupported(context.Background(), "gpt-4")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = catalog.IsSupported(context.Background(), "gpt-5")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int32(1), lister.calls.Load())

	err = summarizer.CheckModel(context.Background(), catalog, "gpt-5")
	var cfgErr *summarizer.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "model", cfgErr.Field)
}

func TestModelCatalogPropagatesListingError(t *testing.T) {
	t.Parallel()
	catalog := NewModelCatalog(&stubLister{err: errors.New("unauthorized")})

	_, err := catalog.IsSupported(context.Background(), "gpt-4")
	require.Error(t, err)
}
