package summarizer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/pkg/metrics"
)

// runeTokenizer maps every rune to one token.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	out := make([]int, len(runes))
	for i, r := range runes {
		out[i] = int(r)
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

const usagePerCall = 7

type stubClient struct {
	mu      sync.Mutex
	calls   []summarizer.CompletionRequest
	respond func(call int, req summarizer.CompletionRequest) (string, error)
}

func (s *stubClient) Complete(_ context.Context, req summarizer.CompletionRequest) (summarizer.Completion, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	call := len(s.calls)
	s.mu.Unlock()

	text, err := s.respond(call, req)
	if err != nil {
		return summarizer.Completion{}, err
	}
	return summarizer.Completion{
		Text:  text,
		Usage: metrics.TokenUsage{TotalTokens: usagePerCall},
	}, nil
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func fixed(text string) func(int, summarizer.CompletionRequest) (string, error) {
	return func(int, summarizer.CompletionRequest) (string, error) { return text, nil }
}

func sequence(outputs ...string) func(int, summarizer.CompletionRequest) (string, error) {
	return func(call int, _ summarizer.CompletionRequest) (string, error) {
		if call > len(outputs) {
			return outputs[len(outputs)-1], nil
		}
		return outputs[call-1], nil
	}
}

var errTransport = errors.New("connection reset")

func failing(times int, then string) func(int, summarizer.CompletionRequest) (string, error) {
	return func(call int, _ summarizer.CompletionRequest) (string, error) {
		if times < 0 || call <= times {
			return "", &summarizer.CompletionError{Err: errTransport}
		}
		return then, nil
	}
}

// payload extracts the chunk text from the user message.
func payload(req summarizer.CompletionRequest) string {
	return summarizer.ExcerptFromPrompt(req.Messages[len(req.Messages)-1].Content)
}

// testConfig yields a base overhead of 29 tokens and a window of 50,
// so texts of 16 runes or more need chunking.
func testConfig() summarizer.Config {
	return summarizer.Config{
		Model:          "gpt-3.5-turbo",
		MaxChunkLength: 10,
		ChunkOverlap:   2,
		SummaryLength:  5,
		Temperature:    0,
		SystemPrompt:   "sys",
		TokenLimit:     50,
		MaxRetries:     3,
		RetryDelay:     summarizer.NoRetryDelay,
	}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func letters(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	return b.String()
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]summarizer.Response
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]summarizer.Response)}
}

func (c *memoryCache) Get(_ context.Context, key string) (summarizer.Response, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.items[key]
	return resp, ok, nil
}

func (c *memoryCache) Save(_ context.Context, key string, resp summarizer.Response, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = resp
	return nil
}

type memoryRepo struct {
	mu    sync.Mutex
	items map[string]summarizer.Response
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]summarizer.Response)}
}

func (r *memoryRepo) Save(_ context.Context, resp summarizer.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[resp.ID] = resp
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (summarizer.Response, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.items[id]
	return resp, ok, nil
}

type memoryDocuments struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryDocuments() *memoryDocuments {
	return &memoryDocuments{blobs: make(map[string][]byte)}
}

func (d *memoryDocuments) Put(_ context.Context, key string, data []byte) (summarizer.DocumentRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blobs[key] = append([]byte(nil), data...)
	return summarizer.DocumentRef{Key: key, Size: int64(len(data))}, nil
}

func (d *memoryDocuments) Get(_ context.Context, key string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
