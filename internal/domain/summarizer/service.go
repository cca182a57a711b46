package summarizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/chunkgpt/pkg/errors"
	"github.com/yanqian/chunkgpt/pkg/metrics"
	"github.com/yanqian/chunkgpt/pkg/util"
)

// Service exposes summarization capabilities.
type Service interface {
	Summarize(ctx context.Context, req Request) (Response, error)
	StreamSummary(ctx context.Context, req Request) (<-chan StreamChunk, error)
	Get(ctx context.Context, id string) (Response, error)
	UploadDocument(ctx context.Context, data []byte) (DocumentRef, error)
}

// ServiceConfig controls caching and document limits around the engine.
type ServiceConfig struct {
	CacheEnabled     bool
	CacheTTL         time.Duration
	MaxDocumentBytes int64
	// Timeout bounds one summarization run when positive.
	Timeout time.Duration
	// Offline marks responses produced by the excerpt completer.
	Offline bool
}

// OfflineModel is reported as the model of responses built without an LLM.
const OfflineModel = "offline-excerpt"

type service struct {
	cfg       ServiceConfig
	engine    *Engine
	cache     ResultCache
	repo      Repository
	documents DocumentStore
	logger    *slog.Logger
}

// job is a validated request ready to run.
type job struct {
	text   string
	step   FinalStep
	engine *Engine
}

// NewService is a wire provider for the summarizer domain.
func NewService(cfg ServiceConfig, engine *Engine, cache ResultCache, repo Repository, documents DocumentStore, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		engine:    engine,
		cache:     cache,
		repo:      repo,
		documents: documents,
		logger:    logger.With("component", "summarizer.service"),
	}
}

func (s *service) Summarize(ctx context.Context, req Request) (Response, error) {
	j, err := s.prepare(ctx, req)
	if err != nil {
		return Response{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.execute(ctx, j, nil)
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *service) StreamSummary(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	j, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk, 16)
	go func() {
		defer close(out)
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		send := func(chunk StreamChunk) {
			select {
			case out <- chunk:
			case <-ctx.Done():
			}
		}

		resp, err := s.execute(ctx, j, func(step string) {
			send(StreamChunk{Step: step})
		})
		if err != nil {
			s.logger.Error("stream summary failed", "error", err)
			send(StreamChunk{Completed: true, Error: err.Error()})
			return
		}
		send(StreamChunk{Completed: true, Response: &resp})
	}()

	return out, nil
}

func (s *service) Get(ctx context.Context, id string) (Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Response{}, apperrors.Wrap("invalid_input", "id cannot be empty", nil)
	}
	resp, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return Response{}, apperrors.Wrap("storage_error", "failed to load summary", err)
	}
	if !found {
		return Response{}, apperrors.Wrap("not_found", "summary not found", nil)
	}
	return resp, nil
}

func (s *service) UploadDocument(ctx context.Context, data []byte) (DocumentRef, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return DocumentRef{}, apperrors.Wrap("invalid_input", "document cannot be empty", nil)
	}
	if s.cfg.MaxDocumentBytes > 0 && int64(len(data)) > s.cfg.MaxDocumentBytes {
		return DocumentRef{}, apperrors.Wrap("invalid_input", fmt.Sprintf("document exceeds %d bytes", s.cfg.MaxDocumentBytes), nil)
	}
	key := "documents/" + uuid.NewString() + ".txt"
	ref, err := s.documents.Put(ctx, key, data)
	if err != nil {
		return DocumentRef{}, apperrors.Wrap("storage_error", "failed to store document", err)
	}
	s.logger.Info("document stored", "key", ref.Key, "size", ref.Size)
	return ref, nil
}

func (s *service) prepare(ctx context.Context, req Request) (job, error) {
	text := req.Text
	if key := strings.TrimSpace(req.DocumentKey); key != "" {
		if strings.TrimSpace(text) != "" {
			return job{}, apperrors.Wrap("invalid_input", "provide either text or documentKey, not both", nil)
		}
		loaded, err := s.loadDocument(ctx, key)
		if err != nil {
			return job{}, err
		}
		text = loaded
	}
	if strings.TrimSpace(text) == "" {
		return job{}, apperrors.Wrap("invalid_input", "text cannot be empty", nil)
	}

	step := FinalStep(strings.ToLower(strings.TrimSpace(req.FinalStep)))
	if step == "" {
		step = FinalStepSummarize
	}
	if !step.Valid() {
		return job{}, apperrors.Wrap("invalid_input", "invalid finalStep", fmt.Errorf("%w: %q", ErrInvalidFinalStep, req.FinalStep))
	}

	engine := s.engine
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" && prompt != engine.Config().SystemPrompt {
		custom, err := engine.WithSystemPrompt(prompt)
		if err != nil {
			return job{}, apperrors.Wrap("invalid_input", "prompt does not fit the token budget", err)
		}
		engine = custom
	}
	return job{text: text, step: step, engine: engine}, nil
}

func (s *service) loadDocument(ctx context.Context, key string) (string, error) {
	rc, err := s.documents.Get(ctx, key)
	if err != nil {
		return "", apperrors.Wrap("not_found", "document not found", err)
	}
	defer rc.Close()
	reader := io.Reader(rc)
	if s.cfg.MaxDocumentBytes > 0 {
		reader = io.LimitReader(rc, s.cfg.MaxDocumentBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.Wrap("storage_error", "failed to read document", err)
	}
	if s.cfg.MaxDocumentBytes > 0 && int64(len(data)) > s.cfg.MaxDocumentBytes {
		return "", apperrors.Wrap("invalid_input", fmt.Sprintf("document exceeds %d bytes", s.cfg.MaxDocumentBytes), nil)
	}
	return string(data), nil
}

func (s *service) execute(ctx context.Context, j job, progress ProgressFunc) (Response, error) {
	start := time.Now()
	key := cacheKey(j, s.cfg.Offline)
	if s.cfg.CacheEnabled {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("result cache lookup failed", "error", err)
		} else if found {
			s.logger.Info("result cache hit", "id", cached.ID)
			cached.Cached = true
			if progress != nil {
				progress("Returned cached summary.")
			}
			return cached, nil
		}
	}

	result, err := j.engine.SummarizeWithProgress(ctx, j.text, j.step, progress)
	if err != nil {
		return Response{}, classify(err)
	}

	if s.cfg.Offline {
		result.Cost = 0
	}
	resp := Response{
		ID:         uuid.NewString(),
		Model:      s.responseModel(j),
		Offline:    s.cfg.Offline,
		FinalStep:  j.step,
		Summary:    result,
		DurationMs: time.Since(start).Milliseconds(),
		TokenUsage: &metrics.TokenUsage{TotalTokens: result.TotalTokens},
		CreatedAt:  util.NowUTC(),
	}
	s.logger.Info("summary completed",
		"id", resp.ID,
		"chunks", len(result.Chunks),
		"total_tokens", result.TotalTokens,
		"cost", result.Cost,
		"duration_ms", resp.DurationMs,
	)

	if err := s.repo.Save(ctx, resp); err != nil {
		s.logger.Error("persist summary failed", "id", resp.ID, "error", err)
	}
	if s.cfg.CacheEnabled {
		if err := s.cache.Save(ctx, key, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("result cache save failed", "id", resp.ID, "error", err)
		}
	}
	return resp, nil
}

func (s *service) responseModel(j job) string {
	if s.cfg.Offline {
		return OfflineModel
	}
	return j.engine.Config().Model
}

func classify(err error) error {
	var (
		cfgErr       *ConfigError
		exhaustedErr *CompletionExhaustedError
	)
	switch {
	case errors.As(err, &cfgErr), errors.Is(err, ErrInvalidFinalStep):
		return apperrors.Wrap("invalid_input", "invalid summarization request", err)
	case errors.As(err, &exhaustedErr):
		return apperrors.Wrap("llm_error", "completion request failed", err)
	default:
		return apperrors.Wrap("summarize_failed", "summarization failed", err)
	}
}

func cacheKey(j job, offline bool) string {
	cfg := j.engine.Config()
	h := sha256.New()
	for _, part := range []string{
		strconv.FormatBool(offline),
		cfg.Model,
		cfg.SystemPrompt,
		strconv.Itoa(cfg.MaxChunkLength),
		strconv.Itoa(cfg.ChunkOverlap),
		strconv.Itoa(cfg.SummaryLength),
		strconv.FormatFloat(float64(cfg.Temperature), 'f', -1, 32),
		string(j.step),
		j.text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
