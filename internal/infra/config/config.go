package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Summary   SummaryConfig   `yaml:"summary"`
	Cache     CacheConfig     `yaml:"cache"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Documents DocumentsConfig `yaml:"documents"`
	Auth      AuthConfig      `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	AllowOrigins []string        `yaml:"allowOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	Retry        RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey        string  `yaml:"apiKey"`
	BaseURL       string  `yaml:"baseUrl"`
	Model         string  `yaml:"model"`
	Temperature   float32 `yaml:"temperature"`
	ValidateModel bool    `yaml:"validateModel"`
	// TokenizerFallback counts tokens of models tiktoken does not know with
	// cl100k_base instead of failing at startup.
	TokenizerFallback bool `yaml:"tokenizerFallback"`
	// AllowOffline serves excerpts instead of summaries when APIKey is empty.
	AllowOffline bool `yaml:"allowOffline"`
}

// SummaryConfig shapes chunking and reduction.
type SummaryConfig struct {
	MaxChunkLength   int           `yaml:"maxChunkLength"`
	ChunkOverlap     int           `yaml:"chunkOverlap"`
	SummaryLength    int           `yaml:"summaryLength"`
	SystemPrompt     string        `yaml:"systemPrompt"`
	TokenLimit       int           `yaml:"tokenLimit"`
	MaxRetries       int           `yaml:"maxRetries"`
	RetryDelay       time.Duration `yaml:"retryDelay"`
	MaxDepth         int           `yaml:"maxDepth"`
	Concurrency      int           `yaml:"concurrency"`
	MaxDocumentBytes int64         `yaml:"maxDocumentBytes"`
	Timeout          time.Duration `yaml:"timeout"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// DocumentsConfig selects where uploaded documents are kept.
type DocumentsConfig struct {
	R2 R2Config `yaml:"r2"`
}

// R2Config holds S3-compatible object storage settings.
type R2Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Configured reports whether enough settings exist to build a client.
func (c R2Config) Configured() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// AuthConfig controls API client authentication.
type AuthConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Secret   string         `yaml:"secret"`
	Issuer   string         `yaml:"issuer"`
	TokenTTL time.Duration  `yaml:"tokenTtl"`
	Clients  []ClientConfig `yaml:"clients"`
}

// ClientConfig declares an API client and its bcrypt secret hash.
type ClientConfig struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secretHash"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("HTTP_ALLOW_ORIGINS"); v != "" {
		cfg.HTTP.AllowOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setBool(&cfg.LLM.ValidateModel, "LLM_VALIDATE_MODEL")
	setBool(&cfg.LLM.TokenizerFallback, "LLM_TOKENIZER_FALLBACK")
	setBool(&cfg.LLM.AllowOffline, "LLM_ALLOW_OFFLINE")

	setInt(&cfg.Summary.MaxChunkLength, "SUMMARY_MAX_CHUNK_LENGTH")
	setInt(&cfg.Summary.ChunkOverlap, "SUMMARY_CHUNK_OVERLAP")
	setInt(&cfg.Summary.SummaryLength, "SUMMARY_LENGTH")
	setString(&cfg.Summary.SystemPrompt, "SUMMARY_SYSTEM_PROMPT")
	setInt(&cfg.Summary.TokenLimit, "SUMMARY_TOKEN_LIMIT")
	setInt(&cfg.Summary.MaxRetries, "SUMMARY_MAX_RETRIES")
	setDuration(&cfg.Summary.RetryDelay, "SUMMARY_RETRY_DELAY")
	setInt(&cfg.Summary.MaxDepth, "SUMMARY_MAX_DEPTH")
	setInt(&cfg.Summary.Concurrency, "SUMMARY_CONCURRENCY")
	setDuration(&cfg.Summary.Timeout, "SUMMARY_TIMEOUT")
	if v := os.Getenv("SUMMARY_MAX_DOCUMENT_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Summary.MaxDocumentBytes = parsed
		}
	}

	setBool(&cfg.Cache.Enabled, "CACHE_ENABLED")
	setDuration(&cfg.Cache.TTL, "CACHE_TTL")
	setBool(&cfg.Cache.Redis.Enabled, "CACHE_REDIS_ENABLED")
	setString(&cfg.Cache.Redis.Addr, "CACHE_REDIS_ADDR")

	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}

	setString(&cfg.Documents.R2.Endpoint, "R2_ENDPOINT")
	setString(&cfg.Documents.R2.AccessKey, "R2_ACCESS_KEY")
	setString(&cfg.Documents.R2.SecretKey, "R2_SECRET_KEY")
	setString(&cfg.Documents.R2.Bucket, "R2_BUCKET")
	setString(&cfg.Documents.R2.Region, "R2_REGION")

	setBool(&cfg.Auth.Enabled, "AUTH_ENABLED")
	setString(&cfg.Auth.Secret, "AUTH_SECRET")
	setString(&cfg.Auth.Issuer, "AUTH_ISSUER")
	setDuration(&cfg.Auth.TokenTTL, "AUTH_TOKEN_TTL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Default returns the configuration used when no file or env overrides apply.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 11 * time.Minute,
			AllowOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/summaries",
					"/api/v1/summaries/stream",
				},
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0,
		},
		Summary: SummaryConfig{
			MaxChunkLength:   2048,
			ChunkOverlap:     50,
			SummaryLength:    1024,
			MaxRetries:       3,
			RetryDelay:       time.Second,
			MaxDepth:         8,
			Concurrency:      1,
			MaxDocumentBytes: 8 << 20,
			Timeout:          10 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
			Redis: RedisConfig{
				Prefix: "chunkgpt",
			},
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Documents: DocumentsConfig{
			R2: R2Config{Region: "auto"},
		},
		Auth: AuthConfig{
			Issuer:   "chunkgpt",
			TokenTTL: time.Hour,
		},
	}
}

// Validate ensures the configuration is safe to use. Engine-level ranges
// are checked again when the engine is built.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.Summary.MaxChunkLength <= 0 {
		return errors.New("summary.maxChunkLength must be positive")
	}
	if c.Summary.ChunkOverlap < 0 || c.Summary.ChunkOverlap >= c.Summary.MaxChunkLength {
		return errors.New("summary.chunkOverlap must be non-negative and smaller than summary.maxChunkLength")
	}
	if c.Summary.SummaryLength <= 0 {
		return errors.New("summary.summaryLength must be positive")
	}
	if c.Summary.MaxRetries < 0 {
		return errors.New("summary.maxRetries cannot be negative")
	}
	if c.Summary.RetryDelay < 0 {
		return errors.New("summary.retryDelay cannot be negative")
	}
	if c.Summary.MaxDepth < 0 || c.Summary.Concurrency < 0 || c.Summary.TokenLimit < 0 {
		return errors.New("summary.maxDepth, summary.concurrency and summary.tokenLimit cannot be negative")
	}
	if c.Summary.Timeout < 0 {
		return errors.New("summary.timeout cannot be negative")
	}
	// A response cut off by the server reaches the client as a dropped
	// connection instead of a timeout error.
	if c.HTTP.WriteTimeout > 0 && (c.Summary.Timeout <= 0 || c.HTTP.WriteTimeout <= c.Summary.Timeout) {
		return errors.New("http.writeTimeout must exceed a positive summary.timeout")
	}
	if c.Summary.MaxDocumentBytes < 0 {
		return errors.New("summary.maxDocumentBytes cannot be negative")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	if c.Cache.Redis.Enabled && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return errors.New("cache.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.Auth.Enabled {
		if len(c.Auth.Secret) < 16 {
			return errors.New("auth.secret must be at least 16 characters when auth is enabled")
		}
		if len(c.Auth.Clients) == 0 {
			return errors.New("auth.clients cannot be empty when auth is enabled")
		}
		for _, client := range c.Auth.Clients {
			if strings.TrimSpace(client.ID) == "" || client.SecretHash == "" {
				return errors.New("auth.clients entries need an id and a secretHash")
			}
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
