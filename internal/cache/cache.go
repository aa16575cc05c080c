package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
)

// Cache stores serialized results by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

const keyPrefix = "rentscope:"

// Key derives a cache key from a namespace, the dataset version and a
// request value. Requests that marshal identically share a key.
func Key(namespace, datasetVersion string, request any) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	h := xxhash.New()
	h.WriteString(datasetVersion)
	h.Write([]byte{0})
	h.Write(body)
	return keyPrefix + namespace + ":" + strconv.FormatUint(h.Sum64(), 16), nil
}

// GetJSON decodes a cached value into out. It reports false on a miss or a
// value that no longer decodes.
func GetJSON(ctx context.Context, c Cache, key string, out any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(ctx, key, string(body), ttl)
}
