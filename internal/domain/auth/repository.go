package auth

import (
	"context"
	"strings"
)

// Repository looks up API clients.
type Repository interface {
	GetClient(ctx context.Context, id string) (Client, bool, error)
}

// StaticRepository serves clients declared in configuration.
type StaticRepository struct {
	clients map[string]Client
}

// NewStaticRepository indexes clients by id.
func NewStaticRepository(clients []Client) *StaticRepository {
	index := make(map[string]Client, len(clients))
	for _, c := range clients {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			continue
		}
		c.ID = id
		index[id] = c
	}
	return &StaticRepository{clients: index}
}

// GetClient implements Repository.
func (r *StaticRepository) GetClient(_ context.Context, id string) (Client, bool, error) {
	c, ok := r.clients[id]
	return c, ok, nil
}

var _ Repository = (*StaticRepository)(nil)
