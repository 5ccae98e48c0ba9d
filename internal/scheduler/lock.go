package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyReminderBatch guards one reminder batch per calendar day: reminders:batch:{yyyy-mm-dd}
	KeyReminderBatch = "reminders:batch:%s"

	TTLReminderBatch = 6 * time.Hour
)

// Locker grants a key to one holder until ttl expires.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisLocker shares batch locks between instances through SET NX.
type RedisLocker struct {
	rdb   *redis.Client
	owner string
}

// NewRedisLocker creates a RedisLocker for the server at addr.
func NewRedisLocker(addr string) *RedisLocker {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
	host, _ := os.Hostname()
	return &RedisLocker{rdb: rdb, owner: fmt.Sprintf("%s:%d", host, os.Getpid())}
}

// Acquire sets key with ttl only if it is absent and reports whether it did.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	return ok, nil
}

// Ping checks the Redis connection.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close releases the Redis client.
func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

// Acquire claims key unless a previous claim has not expired yet.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}
