package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// NoRetries disables retries; a zero MaxRetries means DefaultMaxRetries.
	NoRetries = -1
	// NoRetryDelay retries without waiting; a zero RetryDelay means DefaultRetryDelay.
	NoRetryDelay time.Duration = -1

	DefaultMaxRetries  = 3
	DefaultRetryDelay  = time.Second
	DefaultMaxDepth    = 8
	DefaultConcurrency = 1
)

// DefaultSystemPrompt instructs the model to paraphrase a document into a shorter one.
const DefaultSystemPrompt = `You are SUMMIFY, a specialized AI assistant purpose-built to read long pieces of text and produce a concise summary that greatly reduces the overall length of the text without leaving out any critical details.

Users will hand you an entire document, or just a portion of the document, and it is your job to summarize the content in as few words as possible, while conveying the essential meaning of the text.

Your summary MUST paraphrase the document you are given so that it can directly replace the document 1-for-1, but with a shorter length.

Your summary MUST be concise.
Your summary MUST be comprehensive.
Your summary MUST include a concise list of ALL KEY POINTS.
Your summary MUST exclude any unnecessary fluff.
`

const userTemplate = "\nTEXT EXCERPT:\n%s\n\nSUMMARY:\n"

// FormatUserPrompt wraps text in the user message template.
func FormatUserPrompt(text string) string {
	return fmt.Sprintf(userTemplate, text)
}

// ExcerptFromPrompt returns the text FormatUserPrompt wrapped.
func ExcerptFromPrompt(content string) string {
	prefix, suffix, _ := strings.Cut(userTemplate, "%s")
	return strings.TrimSuffix(strings.TrimPrefix(content, prefix), suffix)
}

// Config configures one reduction engine.
type Config struct {
	Model          string
	MaxChunkLength int
	ChunkOverlap   int
	SummaryLength  int
	Temperature    float32
	SystemPrompt   string
	// TokenLimit overrides the context window resolved from Model when positive.
	TokenLimit  int
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDepth    int
	Concurrency int
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	c.Model = strings.TrimSpace(c.Model)
	if strings.TrimSpace(c.SystemPrompt) == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	switch c.MaxRetries {
	case 0:
		c.MaxRetries = DefaultMaxRetries
	case NoRetries:
		c.MaxRetries = 0
	}
	switch c.RetryDelay {
	case 0:
		c.RetryDelay = DefaultRetryDelay
	case NoRetryDelay:
		c.RetryDelay = 0
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c
}

// Validate checks field ranges. The token budget is checked by NewEngine.
func (c Config) Validate() error {
	if c.Model == "" {
		return configErrorf("model", "cannot be empty")
	}
	if c.MaxChunkLength <= 0 {
		return configErrorf("maxChunkLength", "%d must be greater than 0", c.MaxChunkLength)
	}
	if c.ChunkOverlap < 0 {
		return configErrorf("chunkOverlap", "%d must be greater than or equal to 0", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.MaxChunkLength {
		return configErrorf("chunkOverlap", "%d must be smaller than maxChunkLength (%d)", c.ChunkOverlap, c.MaxChunkLength)
	}
	if c.SummaryLength <= 0 {
		return configErrorf("summaryLength", "%d must be greater than 0", c.SummaryLength)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return configErrorf("temperature", "%g must be between 0 and 2 inclusive", c.Temperature)
	}
	if c.TokenLimit < 0 {
		return configErrorf("tokenLimit", "%d cannot be negative", c.TokenLimit)
	}
	if c.MaxRetries < 0 {
		return configErrorf("maxRetries", "%d cannot be negative", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return configErrorf("retryDelay", "%s cannot be negative", c.RetryDelay)
	}
	if c.MaxDepth < 0 {
		return configErrorf("maxDepth", "%d cannot be negative", c.MaxDepth)
	}
	if c.Concurrency < 0 {
		return configErrorf("concurrency", "%d cannot be negative", c.Concurrency)
	}
	return nil
}

// CheckModel asks validator whether model is served.
func CheckModel(ctx context.Context, validator ModelValidator, model string) error {
	if validator == nil {
		return nil
	}
	ok, err := validator.IsSupported(ctx, model)
	if err != nil {
		return fmt.Errorf("list available models: %w", err)
	}
	if !ok {
		return configErrorf("model", "%q not found in the list of available models", model)
	}
	return nil
}
