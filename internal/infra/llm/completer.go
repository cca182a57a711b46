package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/llm/chatgpt"
	"github.com/yanqian/chunkgpt/pkg/metrics"
)

// ErrEmptyChoices is returned when the API answers without a choice.
var ErrEmptyChoices = errors.New("chatgpt returned no choices")

// ChatGPTCompleter adapts the ChatGPT client to the summarizer domain.
type ChatGPTCompleter struct {
	client *chatgpt.Client
}

// NewChatGPTCompleter constructs the adapter.
func NewChatGPTCompleter(client *chatgpt.Client) *ChatGPTCompleter {
	return &ChatGPTCompleter{client: client}
}

// Complete sends one chat completion request and returns the reply verbatim.
// Every failure is reported as a summarizer.CompletionError so the engine can
// retry it.
func (c *ChatGPTCompleter) Complete(ctx context.Context, req summarizer.CompletionRequest) (summarizer.Completion, error) {
	payload := chatgpt.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]chatgpt.Message, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, chatgpt.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	resp, err := c.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		return summarizer.Completion{}, &summarizer.CompletionError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return summarizer.Completion{}, &summarizer.CompletionError{Err: ErrEmptyChoices}
	}
	return summarizer.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

var _ summarizer.CompletionClient = (*ChatGPTCompleter)(nil)

// ExcerptCompleter returns the leading words of the excerpt without external
// calls. It keeps the service usable when no API key is configured.
type ExcerptCompleter struct {
	tokenizer summarizer.Tokenizer
}

// NewExcerptCompleter constructs the offline fallback.
func NewExcerptCompleter(tokenizer summarizer.Tokenizer) *ExcerptCompleter {
	return &ExcerptCompleter{tokenizer: tokenizer}
}

// Complete truncates the excerpt to half its length, capped at MaxTokens.
func (c *ExcerptCompleter) Complete(_ context.Context, req summarizer.CompletionRequest) (summarizer.Completion, error) {
	if len(req.Messages) == 0 {
		return summarizer.Completion{}, &summarizer.CompletionError{Err: errors.New("no messages")}
	}
	text := summarizer.ExcerptFromPrompt(req.Messages[len(req.Messages)-1].Content)
	tokens := c.tokenizer.Encode(text)
	keep := len(tokens) / 2
	if req.MaxTokens > 0 && keep > req.MaxTokens {
		keep = req.MaxTokens
	}
	out := strings.TrimSpace(c.tokenizer.Decode(tokens[:keep]))
	prompt := 0
	for _, msg := range req.Messages {
		prompt += c.tokenizer.Count(msg.Content)
	}
	completion := c.tokenizer.Count(out)
	return summarizer.Completion{
		Text: out,
		Usage: metrics.TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

var _ summarizer.CompletionClient = (*ExcerptCompleter)(nil)
