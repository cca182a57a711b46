package summarizer

import (
	"context"
	"io"
	"time"
)

// Tokenizer converts text to model-specific token ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// CompletionClient performs a single completion attempt.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// ModelValidator reports whether the generation service serves a model.
type ModelValidator interface {
	IsSupported(ctx context.Context, model string) (bool, error)
}

// ResultCache stores responses keyed by a fingerprint of their inputs.
type ResultCache interface {
	Get(ctx context.Context, key string) (Response, bool, error)
	Save(ctx context.Context, key string, resp Response, ttl time.Duration) error
}

// Repository persists completed summaries.
type Repository interface {
	Save(ctx context.Context, resp Response) error
	Get(ctx context.Context, id string) (Response, bool, error)
}

// DocumentStore holds uploaded source text.
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte) (DocumentRef, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
