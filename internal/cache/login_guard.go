package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// LoginGuard counts failed logins per username and blocks further attempts for a while.
type LoginGuard interface {
	Blocked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// NewRedisClient connects and pings the Redis server at addr.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

type redisLoginGuard struct {
	client        *redis.Client
	maxAttempts   int
	blockDuration time.Duration
}

// NewRedisLoginGuard shares attempt counters across API instances through Redis.
func NewRedisLoginGuard(client *redis.Client, maxAttempts int, blockDuration time.Duration) LoginGuard {
	return &redisLoginGuard{client: client, maxAttempts: maxAttempts, blockDuration: blockDuration}
}

func attemptsKey(username string) string {
	return "login_attempts:" + strings.ToLower(username)
}

func blockedKey(username string) string {
	return "login_blocked:" + strings.ToLower(username)
}

func (g *redisLoginGuard) Blocked(ctx context.Context, username string) (bool, error) {
	exists, err := g.client.Exists(ctx, blockedKey(username)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (g *redisLoginGuard) RecordFailure(ctx context.Context, username string) error {
	attempts, err := g.client.Incr(ctx, attemptsKey(username)).Result()
	if err != nil {
		return err
	}
	if attempts == 1 {
		if err := g.client.Expire(ctx, attemptsKey(username), g.blockDuration).Err(); err != nil {
			return err
		}
	}
	if g.maxAttempts > 0 && attempts >= int64(g.maxAttempts) {
		return g.client.Set(ctx, blockedKey(username), "blocked", g.blockDuration).Err()
	}
	return nil
}

func (g *redisLoginGuard) Reset(ctx context.Context, username string) error {
	return g.client.Del(ctx, attemptsKey(username), blockedKey(username)).Err()
}

type memoryEntry struct {
	attempts     int
	windowEnds   time.Time
	blockedUntil time.Time
}

// MemoryLoginGuard keeps counters in process; used when no Redis address is configured.
type MemoryLoginGuard struct {
	mu            sync.Mutex
	entries       map[string]*memoryEntry
	maxAttempts   int
	blockDuration time.Duration
	now           func() time.Time
}

func NewMemoryLoginGuard(maxAttempts int, blockDuration time.Duration) *MemoryLoginGuard {
	return &MemoryLoginGuard{
		entries:       make(map[string]*memoryEntry),
		maxAttempts:   maxAttempts,
		blockDuration: blockDuration,
		now:           time.Now,
	}
}

func (g *MemoryLoginGuard) Blocked(_ context.Context, username string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[strings.ToLower(username)]
	if !ok {
		return false, nil
	}
	return g.now().Before(e.blockedUntil), nil
}

func (g *MemoryLoginGuard) RecordFailure(_ context.Context, username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := strings.ToLower(username)
	now := g.now()
	e, ok := g.entries[key]
	if !ok || now.After(e.windowEnds) {
		e = &memoryEntry{windowEnds: now.Add(g.blockDuration)}
		g.entries[key] = e
	}
	e.attempts++
	if g.maxAttempts > 0 && e.attempts >= g.maxAttempts {
		e.blockedUntil = now.Add(g.blockDuration)
	}
	return nil
}

func (g *MemoryLoginGuard) Reset(_ context.Context, username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, strings.ToLower(username))
	return nil
}
