// Package cache holds GET responses keyed by URL and drops them when the
// resource they belong to is mutated.
package cache

import (
	"context"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

const keyPrefix = "bizops:http:"

func Key(path string) string { return keyPrefix + path }
