package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/chunkgpt/internal/bootstrap"
	"github.com/yanqian/chunkgpt/internal/domain/auth"
	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/config"
	"github.com/yanqian/chunkgpt/internal/infra/documents"
	"github.com/yanqian/chunkgpt/internal/infra/resultcache"
	"github.com/yanqian/chunkgpt/internal/infra/summaryrepo"
)

func provideEngine(cfg *config.Config, logger *slog.Logger) (*summarizer.Engine, error) {
	return bootstrap.NewEngine(cfg, logger)
}

func provideServiceConfig(cfg *config.Config) summarizer.ServiceConfig {
	return summarizer.ServiceConfig{
		CacheEnabled:     cfg.Cache.Enabled,
		CacheTTL:         cfg.Cache.TTL,
		MaxDocumentBytes: cfg.Summary.MaxDocumentBytes,
		Timeout:          cfg.Summary.Timeout,
		Offline:          bootstrap.Offline(cfg),
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	clients := make([]auth.Client, 0, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		clients = append(clients, auth.Client{ID: c.ID, SecretHash: c.SecretHash})
	}
	return auth.Config{
		Enabled:  cfg.Auth.Enabled,
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
		Clients:  clients,
	}
}

func provideAuthRepository(cfg auth.Config) auth.Repository {
	return auth.NewStaticRepository(cfg.Clients)
}

func provideRepository(cfg *config.Config, logger *slog.Logger) summarizer.Repository {
	fallback := summaryrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres summary repository enabled")
	return summaryrepo.NewPostgresRepository(pool)
}

func provideResultCache(cfg *config.Config, logger *slog.Logger) summarizer.ResultCache {
	if cfg.Cache.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg.Cache.Redis.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return resultcache.NewMemoryCache()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return resultcache.NewMemoryCache()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("valkey result cache enabled", "addr", cfg.Cache.Redis.Addr)
			return resultcache.NewValkeyCache(client, cfg.Cache.Redis.Prefix)
		}
	}
	return resultcache.NewMemoryCache()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideDocumentStore(cfg *config.Config, logger *slog.Logger) summarizer.DocumentStore {
	r2 := cfg.Documents.R2
	if !r2.Configured() {
		logger.Info("r2 storage not configured, using memory document store")
		return documents.NewMemoryStore()
	}
	store, err := documents.NewR2Store(r2.Endpoint, r2.AccessKey, r2.SecretKey, r2.Bucket, r2.Region, logger)
	if err != nil {
		logger.Error("failed to initialize r2 storage, using memory document store", "error", err)
		return documents.NewMemoryStore()
	}
	logger.Info("r2 document store enabled", "bucket", r2.Bucket)
	return store
}
