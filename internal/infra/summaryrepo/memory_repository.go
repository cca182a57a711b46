package summaryrepo

import (
	"context"
	"sync"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

// MemoryRepository keeps summaries in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]summarizer.Response
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]summarizer.Response)}
}

// Save implements summarizer.Repository.
func (r *MemoryRepository) Save(_ context.Context, resp summarizer.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[resp.ID] = resp
	return nil
}

// Get implements summarizer.Repository.
func (r *MemoryRepository) Get(_ context.Context, id string) (summarizer.Response, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp, ok := r.items[id]
	return resp, ok, nil
}

var _ summarizer.Repository = (*MemoryRepository)(nil)
