// Package cache holds short-lived copies of per-user statistics responses.
package cache

import (
	"context"
	"fmt"
	"time"

	"honquedoro/internal/config"
)

// Cache stores encoded values by key. A miss is reported as ok=false with a
// nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

func Key(userID, kind string) string {
	return fmt.Sprintf("honquedoro:stats:%s:%s", userID, kind)
}

// New builds the cache selected by cfg.Type.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewMemory(cfg.Size, cfg.TTL), nil
	case "redis":
		r, err := OpenRedis(cfg.Redis, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Delete(context.Context, ...string) error           { return nil }
func (Nop) Close() error                                      { return nil }

var _ Cache = Nop{}

const defaultTTL = 30 * time.Second
