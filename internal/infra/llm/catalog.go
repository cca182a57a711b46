package llm

import (
	"context"
	"sync"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/llm/chatgpt"
)

// ModelLister lists the models served behind an API key.
type ModelLister interface {
	ListModels(ctx context.Context) ([]chatgpt.Model, error)
}

// ModelCatalog answers model availability from a cached model listing.
type ModelCatalog struct {
	lister ModelLister

	mu     sync.Mutex
	models map[string]struct{}
}

// NewModelCatalog constructs a catalog that lists models on first use.
func NewModelCatalog(lister ModelLister) *ModelCatalog {
	return &ModelCatalog{lister: lister}
}

// IsSupported reports whether model appears in the listing.
func (c *ModelCatalog) IsSupported(ctx context.Context, model string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.models == nil {
		models, err := c.lister.ListModels(ctx)
		if err != nil {
			return false, err
		}
		c.models = make(map[string]struct{}, len(models))
		for _, m := range models {
			c.models[m.ID] = struct{}{}
		}
	}
	_, ok := c.models[model]
	return ok, nil
}

var _ summarizer.ModelValidator = (*ModelCatalog)(nil)
