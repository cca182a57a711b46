package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine splits text into chunks, summarizes them and reduces the summaries
// until they fit a single request.
type Engine struct {
	input      Config
	cfg        Config
	profile    ModelProfile
	tokenizer  Tokenizer
	client     CompletionClient
	budget     Budget
	chunker    Chunker
	baseLogger *slog.Logger
	logger     *slog.Logger
}

// NewEngine validates cfg against the model's context window.
func NewEngine(cfg Config, tokenizer Tokenizer, client CompletionClient, logger *slog.Logger) (*Engine, error) {
	input := cfg
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tokenizer == nil {
		return nil, configErrorf("tokenizer", "cannot be nil")
	}
	if client == nil {
		return nil, configErrorf("client", "cannot be nil")
	}

	profile := ResolveProfile(cfg.Model)
	if cfg.TokenLimit > 0 {
		profile.TokenLimit = cfg.TokenLimit
	}
	budget := NewBudget(tokenizer, cfg.SystemPrompt, cfg.SummaryLength, profile.TokenLimit)
	if err := budget.CheckChunkAllowance(cfg.MaxChunkLength); err != nil {
		return nil, err
	}

	e := &Engine{
		input:      input,
		cfg:        cfg,
		profile:    profile,
		tokenizer:  tokenizer,
		client:     client,
		budget:     budget,
		chunker:    NewChunker(tokenizer, budget, cfg.MaxChunkLength, cfg.ChunkOverlap),
		baseLogger: logger,
		logger:     logger.With("component", "summarizer.engine"),
	}
	e.logger.Debug("engine initialized",
		"model", cfg.Model,
		"token_limit", profile.TokenLimit,
		"base_overhead", budget.BaseOverhead(),
		"max_chunk_length", cfg.MaxChunkLength,
		"chunk_overlap", cfg.ChunkOverlap,
		"summary_length", cfg.SummaryLength,
		"max_retries", cfg.MaxRetries,
		"retry_delay", cfg.RetryDelay,
	)
	return e, nil
}

// WithSystemPrompt derives an engine that uses prompt instead of the configured one.
func (e *Engine) WithSystemPrompt(prompt string) (*Engine, error) {
	cfg := e.input
	cfg.SystemPrompt = prompt
	return NewEngine(cfg, e.tokenizer, e.client, e.baseLogger)
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Profile returns the resolved model profile.
func (e *Engine) Profile() ModelProfile {
	return e.profile
}

// Budget returns the token budget calculator.
func (e *Engine) Budget() Budget {
	return e.budget
}

// Chunk exposes the chunker for inspection.
func (e *Engine) Chunk(text string) []string {
	return e.chunker.Chunk(text)
}

// Summarize runs the reduction without progress reporting.
func (e *Engine) Summarize(ctx context.Context, text string, step FinalStep) (Result, error) {
	return e.SummarizeWithProgress(ctx, text, step, nil)
}

// SummarizeWithProgress runs the reduction and reports every recorded step to progress.
func (e *Engine) SummarizeWithProgress(ctx context.Context, text string, step FinalStep, progress ProgressFunc) (Result, error) {
	if !step.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidFinalStep, step)
	}
	return e.summarize(ctx, text, step, 0, progress)
}

type chunkOutcome struct {
	text     string
	tokens   int
	attempts int
}

// accumulator is owned by exactly one summarize call.
type accumulator struct {
	result   Result
	price    float64
	depth    int
	logger   *slog.Logger
	progress ProgressFunc
}

func (a *accumulator) add(tokens, attempts int) {
	a.result.TotalTokens += tokens
	a.result.Cost += float64(tokens) * a.price
	a.result.Attempts += attempts
}

func (a *accumulator) record(step string) {
	a.result.Steps = append(a.result.Steps, step)
	a.logger.Info(step, "depth", a.depth)
	if a.progress != nil {
		a.progress(step)
	}
}

func (e *Engine) summarize(ctx context.Context, text string, step FinalStep, depth int, progress ProgressFunc) (Result, error) {
	acc := &accumulator{
		result: Result{
			Original: text,
			Chunks:   make(map[int]ChunkRecord),
			Steps:    []string{},
		},
		price:    e.profile.PricePerToken,
		depth:    depth,
		logger:   e.logger,
		progress: progress,
	}

	chunks := e.chunker.Chunk(text)
	if len(chunks) > 1 {
		e.logger.Info(fmt.Sprintf("Split text into %d chunks.", len(chunks)), "depth", depth)
	}

	var combined strings.Builder
	err := e.completeChunks(ctx, chunks, func(i int, out chunkOutcome) {
		combined.WriteString(out.text)
		combined.WriteString("\n")
		acc.result.Chunks[i+1] = ChunkRecord{
			Input:    chunks[i],
			Output:   out.text,
			Tokens:   out.tokens,
			Attempts: out.attempts,
		}
		acc.add(out.tokens, out.attempts)
		acc.record(fmt.Sprintf("Got completion for chunk %d.", i+1))
	})
	if err != nil {
		return Result{}, err
	}
	combinedText := combined.String()

	switch {
	case step == FinalStepCombine:
		acc.result.Result = combinedText
		acc.record("Returned combined summaries as final step.")
	case !e.budget.Fits(combinedText):
		before := e.budget.CompleteCount(combinedText)
		if depth+1 > e.cfg.MaxDepth {
			return Result{}, fmt.Errorf("%w: ceiling %d reached with %d tokens left", ErrReductionDepthExceeded, e.cfg.MaxDepth, before)
		}
		inTokens, outTokens := e.tokenizer.Count(text), e.tokenizer.Count(combinedText)
		if outTokens >= inTokens {
			return Result{}, fmt.Errorf("%w: %d tokens in, %d tokens out", ErrReductionStalled, inTokens, outTokens)
		}
		reduced, err := e.summarize(ctx, combinedText, FinalStepSummarize, depth+1, progress)
		if err != nil {
			return Result{}, err
		}
		after := e.budget.CompleteCount(reduced.Result)
		acc.result.TotalTokens += reduced.TotalTokens
		acc.result.Cost += reduced.Cost
		acc.result.Attempts += reduced.Attempts
		acc.result.Reduction = &reduced
		acc.result.Result = reduced.Result
		acc.record(fmt.Sprintf("Reduced summary from %d to %d.", before, after))
	default:
		out, err := e.complete(ctx, combinedText)
		if err != nil {
			return Result{}, err
		}
		acc.result.Result = out.text
		acc.add(out.tokens, out.attempts)
		acc.record("Got completion for combined summaries.")
	}

	return acc.result, nil
}

// completeChunks calls onDone in chunk order once per chunk.
func (e *Engine) completeChunks(ctx context.Context, chunks []string, onDone func(int, chunkOutcome)) error {
	if e.cfg.Concurrency <= 1 || len(chunks) <= 1 {
		for i, chunk := range chunks {
			out, err := e.complete(ctx, chunk)
			if err != nil {
				return err
			}
			onDone(i, out)
		}
		return nil
	}

	outcomes := make([]chunkOutcome, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := e.complete(gctx, chunk)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, out := range outcomes {
		onDone(i, out)
	}
	return nil
}

// complete requests one completion, retrying failed attempts with a fixed delay.
func (e *Engine) complete(ctx context.Context, text string) (chunkOutcome, error) {
	req := CompletionRequest{
		Model: e.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: e.cfg.SystemPrompt},
			{Role: "user", Content: FormatUserPrompt(text)},
		},
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.SummaryLength,
	}

	maxAttempts := e.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, e.cfg.RetryDelay); err != nil {
				return chunkOutcome{}, err
			}
		}
		completion, err := e.client.Complete(ctx, req)
		if err == nil {
			return chunkOutcome{
				text:     completion.Text,
				tokens:   completion.Usage.TotalTokens,
				attempts: attempt,
			}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return chunkOutcome{}, ctxErr
		}
		var completionErr *CompletionError
		if !errors.As(err, &completionErr) {
			err = &CompletionError{Err: err}
		}
		lastErr = err
		if attempt < maxAttempts {
			e.logger.Warn("completion failed, retrying", "attempt", attempt, "max_attempts", maxAttempts, "error", err)
		}
	}
	e.logger.Error("completion failed, no more retries", "attempts", maxAttempts, "error", lastErr)
	return chunkOutcome{}, &CompletionExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
