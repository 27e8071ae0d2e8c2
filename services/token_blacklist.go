package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records revoked access tokens until they expire.
type TokenBlacklist interface {
	Blacklist(ctx context.Context, token string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type RedisTokenBlacklist struct {
	Client *redis.Client
}

// NewTokenBlacklist creates a new Redis-backed token blacklist
func NewTokenBlacklist(ctx context.Context, redisURL string) (*RedisTokenBlacklist, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test the connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTokenBlacklist{Client: client}, nil
}

func blacklistKey(token string) string {
	return "blacklist:access:" + token
}

func (tb *RedisTokenBlacklist) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := tb.Client.Set(ctx, blacklistKey(token), "true", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token in Redis: %w", err)
	}
	return nil
}

func (tb *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := tb.Client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// IsConnected checks if the Redis connection is alive
func (tb *RedisTokenBlacklist) IsConnected(ctx context.Context) bool {
	if tb == nil || tb.Client == nil {
		return false
	}
	return tb.Client.Ping(ctx).Err() == nil
}

func (tb *RedisTokenBlacklist) Close() error {
	return tb.Client.Close()
}

// MemoryTokenBlacklist is used when no Redis URL is configured. Entries are
// pruned lazily on write.
type MemoryTokenBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryTokenBlacklist() *MemoryTokenBlacklist {
	return &MemoryTokenBlacklist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryTokenBlacklist) Blacklist(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, k)
		}
	}
	if expiresAt.After(now) {
		m.entries[token] = expiresAt
	}
	return nil
}

func (m *MemoryTokenBlacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[token]
	return ok && exp.After(m.now()), nil
}
