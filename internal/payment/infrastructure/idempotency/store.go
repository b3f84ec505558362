// Package idempotency 网关事件去重存储
package idempotency

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// DefaultKeyPrefix 去重键前缀
const DefaultKeyPrefix = "idemp:gateway-event:"

const minSweepSize = 1024

// KeyValue 去重所需的最小 Redis 能力，由 cache.RedisCache 提供
type KeyValue interface {
	// Get 键不存在时返回空串
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// RedisStore 基于 Redis 的去重存储，键在 TTL 后过期
type RedisStore struct {
	kv     KeyValue
	prefix string
	ttl    time.Duration
}

// NewRedisStore 创建 Redis 去重存储
func NewRedisStore(kv KeyValue, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{kv: kv, prefix: DefaultKeyPrefix, ttl: ttl}
}

func (s *RedisStore) Seen(ctx context.Context, eventID string) (bool, error) {
	val, err := s.kv.Get(ctx, s.prefix+eventID)
	if err != nil {
		return false, fmt.Errorf("failed to read idempotency key %s: %w", eventID, err)
	}
	return val != "", nil
}

func (s *RedisStore) MarkProcessed(ctx context.Context, eventID string) error {
	if err := s.kv.Set(ctx, s.prefix+eventID, strconv.FormatInt(time.Now().Unix(), 10), s.ttl); err != nil {
		return fmt.Errorf("failed to write idempotency key %s: %w", eventID, err)
	}
	return nil
}

// MemoryStore 进程内去重，仅用于未配置 Redis 的单实例部署与测试
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	seen    map[string]time.Time
	sweepAt int
	now     func() time.Time
}

// NewMemoryStore 创建进程内去重存储
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{ttl: ttl, seen: make(map[string]time.Time), sweepAt: minSweepSize, now: time.Now}
}

func (s *MemoryStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.seen[eventID]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.seen, eventID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) MarkProcessed(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.seen[eventID] = now.Add(s.ttl)
	if len(s.seen) >= s.sweepAt {
		s.sweep(now)
	}
	return nil
}

// sweep 清理过期键，并把下次清理的阈值设为存活键数的两倍
func (s *MemoryStore) sweep(now time.Time) {
	for id, exp := range s.seen {
		if now.After(exp) {
			delete(s.seen, id)
		}
	}
	s.sweepAt = max(minSweepSize, 2*len(s.seen))
}

// Len 当前保存的键数，包含尚未清理的过期键
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
