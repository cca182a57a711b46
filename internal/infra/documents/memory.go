package documents

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"sync"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

// ErrNotFound is returned for keys that were never stored.
var ErrNotFound = errors.New("document not found")

// MemoryStore keeps documents in memory. Useful for tests and local dev.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore constructs storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put stores a copy of data.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte) (summarizer.DocumentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := md5.Sum(data)
	s.blobs[key] = append([]byte(nil), data...)
	return summarizer.DocumentRef{
		Key:  key,
		Size: int64(len(data)),
		ETag: hex.EncodeToString(hash[:]),
	}, nil
}

// Get returns a reader for the stored document.
func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ summarizer.DocumentStore = (*MemoryStore)(nil)
