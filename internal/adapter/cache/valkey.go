package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/couchcryptid/dining-data-service/internal/domain"
)

// ValkeyCache shares cached feed responses between replicas through a
// Valkey-compatible server.
type ValkeyCache struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyCache wraps client. Keys are stored as "<prefix>:response:<key>";
// a ttl of zero keeps entries until overwritten.
func NewValkeyCache(client valkey.Client, prefix string, ttl time.Duration) *ValkeyCache {
	if prefix == "" {
		prefix = "dining"
	}
	return &ValkeyCache{client: client, prefix: prefix, ttl: ttl}
}

// ClientOption accepts either a valkey:// or redis:// URL or a bare host:port.
func ClientOption(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	if addr == "" {
		return valkey.ClientOption{}, fmt.Errorf("valkey address is empty")
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// Get returns the stored response for key. A missing key is a miss.
func (c *ValkeyCache) Get(ctx context.Context, key string) (domain.CachedResponse, bool, error) {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.entryKey(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return domain.CachedResponse{}, false, nil
		}
		return domain.CachedResponse{}, false, fmt.Errorf("valkey get: %w", err)
	}

	var resp domain.CachedResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return domain.CachedResponse{}, false, fmt.Errorf("decode cached response: %w", err)
	}
	return resp, true, nil
}

// Put stores resp as JSON.
func (c *ValkeyCache) Put(ctx context.Context, key string, resp domain.CachedResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}

	builder := c.client.B().Set().Key(c.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if c.ttl > 0 {
		ttl := c.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *ValkeyCache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *ValkeyCache) Close() {
	c.client.Close()
}

func (c *ValkeyCache) entryKey(key string) string {
	return fmt.Sprintf("%s:response:%s", c.prefix, key)
}
