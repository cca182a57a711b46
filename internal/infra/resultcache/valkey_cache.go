package resultcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

// ValkeyCache persists summaries in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "chunkgpt"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Get implements summarizer.ResultCache.
func (c *ValkeyCache) Get(ctx context.Context, key string) (summarizer.Response, bool, error) {
	result := c.client.Do(ctx, c.client.B().Get().Key(c.entryKey(key)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return summarizer.Response{}, false, nil
		}
		return summarizer.Response{}, false, err
	}
	var resp summarizer.Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return summarizer.Response{}, false, err
	}
	return resp, true, nil
}

// Save implements summarizer.ResultCache.
func (c *ValkeyCache) Save(ctx context.Context, key string, resp summarizer.Response, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) entryKey(key string) string {
	return fmt.Sprintf("%s:summary:%s", c.prefix, key)
}

var _ summarizer.ResultCache = (*ValkeyCache)(nil)
