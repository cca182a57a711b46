package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/config"
	"github.com/yanqian/chunkgpt/internal/infra/llm"
	"github.com/yanqian/chunkgpt/internal/infra/llm/chatgpt"
	"github.com/yanqian/chunkgpt/internal/infra/tokenizer"
)

// ErrMissingAPIKey is returned when no API key is set and offline mode is off.
var ErrMissingAPIKey = errors.New("llm.apiKey is empty; set llm.allowOffline to serve excerpts instead")

// Offline reports whether the engine runs against the excerpt completer.
func Offline(cfg *config.Config) bool {
	return strings.TrimSpace(cfg.LLM.APIKey) == ""
}

// EngineConfig maps runtime configuration onto the engine settings. Zero
// retries or delay in the file mean none, not the engine defaults.
func EngineConfig(cfg *config.Config) summarizer.Config {
	retries, delay := cfg.Summary.MaxRetries, cfg.Summary.RetryDelay
	if retries == 0 {
		retries = summarizer.NoRetries
	}
	if delay == 0 {
		delay = summarizer.NoRetryDelay
	}
	return summarizer.Config{
		Model:          cfg.LLM.Model,
		MaxChunkLength: cfg.Summary.MaxChunkLength,
		ChunkOverlap:   cfg.Summary.ChunkOverlap,
		SummaryLength:  cfg.Summary.SummaryLength,
		Temperature:    cfg.LLM.Temperature,
		SystemPrompt:   cfg.Summary.SystemPrompt,
		TokenLimit:     cfg.Summary.TokenLimit,
		MaxRetries:     retries,
		RetryDelay:     delay,
		MaxDepth:       cfg.Summary.MaxDepth,
		Concurrency:    cfg.Summary.Concurrency,
	}
}

// NewEngine builds the tokenizer, the completion client and the engine.
// Without an API key the engine runs against the offline excerpt completer,
// which must be enabled explicitly.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*summarizer.Engine, error) {
	if Offline(cfg) && !cfg.LLM.AllowOffline {
		return nil, ErrMissingAPIKey
	}
	tk, err := tokenizer.NewTiktoken(cfg.LLM.Model)
	if errors.Is(err, tokenizer.ErrUnsupportedModel) && cfg.LLM.TokenizerFallback {
		logger.Warn("no tokenizer for model, using fallback encoding", "model", cfg.LLM.Model, "encoding", tokenizer.FallbackEncoding)
		tk, err = tokenizer.NewTiktokenForEncoding(tokenizer.FallbackEncoding)
	}
	if err != nil {
		return nil, err
	}

	var client summarizer.CompletionClient
	if Offline(cfg) {
		logger.Warn("llm api key not set, serving offline excerpts", "model", summarizer.OfflineModel)
		client = llm.NewExcerptCompleter(tk)
	} else {
		chat, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.LLM.ValidateModel {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := summarizer.CheckModel(ctx, llm.NewModelCatalog(chat), cfg.LLM.Model); err != nil {
				return nil, err
			}
		}
		client = llm.NewChatGPTCompleter(chat)
	}

	engine, err := summarizer.NewEngine(EngineConfig(cfg), tk, client, logger)
	if err != nil {
		return nil, fmt.Errorf("build summarizer engine: %w", err)
	}
	return engine, nil
}
