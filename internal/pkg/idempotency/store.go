package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 已对账通知的标记
// 标记只是快速路径，订单状态本身仍是最终依据
type Store interface {
	// Remember 记录 key 已处理，value 为处理结果
	Remember(ctx context.Context, key, value string) error
	// Lookup 返回已记录的结果，未命中时 ok=false
	Lookup(ctx context.Context, key string) (value string, ok bool, err error)
}

// Key 回调标记键
func Key(channel, transactionID string) string {
	return fmt.Sprintf("notify:%s:%s", channel, transactionID)
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) Remember(ctx context.Context, key, value string) error {
	// 先到者为准，重复写入不覆盖
	return s.rdb.SetNX(ctx, key, value, s.ttl).Err()
}

func (s *redisStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// memoryStore 未配置 Redis 时使用，仅对单进程有效
type memoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value    string
	expireAt time.Time
}

func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) Remember(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && s.alive(e) {
		return nil
	}
	s.entries[key] = memoryEntry{value: value, expireAt: s.now().Add(s.ttl)}
	return nil
}

func (s *memoryStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !s.alive(e) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *memoryStore) alive(e memoryEntry) bool {
	return s.ttl <= 0 || s.now().Before(e.expireAt)
}

// Nop 不做任何记录
type Nop struct{}

func (Nop) Remember(context.Context, string, string) error { return nil }

func (Nop) Lookup(context.Context, string) (string, bool, error) { return "", false, nil }
