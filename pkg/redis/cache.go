package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed read-through caching over the optional redis client.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
//
// Keys are run-scoped, so entries for a completed run never go stale and
// there is no invalidation path.
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache helper with a key prefix.
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value into dest. A disabled client and a missing
// key both report a miss; corrupt payloads surface as errors.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value with a TTL. No-op when the client is disabled.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// GetOrSet fills dest from cache, falling back to fn on a miss and caching
// what fn returns. Cache failures degrade to serving fn's result directly.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err == nil && found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	_ = c.Set(ctx, key, value, ttl)

	// fn의 반환값을 dest 타입으로 변환 (캐시 히트 경로와 동일한 형태 보장)
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache roundtrip failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 실행 중 조회
	TTLMedium = 10 * time.Minute // 리더보드/리스크 조회
	TTLDaily  = 24 * time.Hour   // 완료된 run 데이터
)

// Common cache key generators
func LeaderboardKey(runID string) string {
	return fmt.Sprintf("leaderboard:%s", runID)
}

func RisksKey(runID string) string {
	return fmt.Sprintf("risks:%s", runID)
}

func ChampionKey(runID, entityID, resource string) string {
	return fmt.Sprintf("champion:%s:%s:%s", runID, entityID, resource)
}

func SummaryKey(runID string) string {
	return fmt.Sprintf("summary:%s", runID)
}
