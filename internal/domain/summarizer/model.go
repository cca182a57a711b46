package summarizer

import (
	"time"

	"github.com/yanqian/chunkgpt/pkg/metrics"
)

// FinalStep selects how intermediate summaries are finished.
type FinalStep string

const (
	// FinalStepSummarize summarizes the combined chunk summaries.
	FinalStepSummarize FinalStep = "summarize"
	// FinalStepCombine returns the combined chunk summaries verbatim.
	FinalStepCombine FinalStep = "combine"
)

// Valid reports whether s is a supported final step.
func (s FinalStep) Valid() bool {
	return s == FinalStepSummarize || s == FinalStepCombine
}

// Message is one entry of a completion prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is sent to the text-generation service.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completion is one exchange with the text-generation service.
type Completion struct {
	Text  string
	Usage metrics.TokenUsage
}

// ChunkRecord keeps the input and output of one chunk completion.
type ChunkRecord struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	Tokens   int    `json:"tokens"`
	Attempts int    `json:"attempts"`
}

// Result is the trace of one summarization run.
type Result struct {
	Original    string              `json:"original"`
	Result      string              `json:"result"`
	Chunks      map[int]ChunkRecord `json:"chunks"`
	Steps       []string            `json:"intermediateSteps"`
	TotalTokens int                 `json:"totalTokens"`
	Cost        float64             `json:"cost"`
	Attempts    int                 `json:"attempts"`
	Reduction   *Result             `json:"reduction,omitempty"`
}

// ProgressFunc receives each step as it is recorded.
type ProgressFunc func(step string)

// Request represents the incoming summarization payload.
type Request struct {
	Text        string `json:"text"`
	DocumentKey string `json:"documentKey,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	FinalStep   string `json:"finalStep,omitempty"`
}

// Response is returned by the sync endpoint and persisted.
type Response struct {
	ID         string              `json:"id"`
	Model      string              `json:"model"`
	FinalStep  FinalStep           `json:"finalStep"`
	Summary    Result              `json:"summary"`
	Cached     bool                `json:"cached"`
	Offline    bool                `json:"offline,omitempty"`
	DurationMs int64               `json:"durationMs,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// StreamChunk represents a streaming update.
type StreamChunk struct {
	Step      string    `json:"step,omitempty"`
	Completed bool      `json:"completed"`
	Response  *Response `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// DocumentRef identifies uploaded source text.
type DocumentRef struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	ETag string `json:"etag,omitempty"`
}
