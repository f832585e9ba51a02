package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist remembers revoked token ids until they expire.
type Denylist interface {
	Add(ctx context.Context, id string, until time.Time) error
	Contains(ctx context.Context, id string) (bool, error)
}

// MemoryDenylist keeps revoked ids in process memory.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryDenylist creates an empty in-memory denylist.
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]time.Time), now: time.Now}
}

// Add denies id until the given time and drops expired entries.
func (d *MemoryDenylist) Add(_ context.Context, id string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, exp := range d.entries {
		if !now.Before(exp) {
			delete(d.entries, key)
		}
	}
	d.entries[id] = until
	return nil
}

// Contains reports whether id is denied and not yet expired.
func (d *MemoryDenylist) Contains(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	until, ok := d.entries[id]
	return ok && d.now().Before(until), nil
}

// RedisDenylist keeps revoked ids as expiring redis keys.
type RedisDenylist struct {
	client *redis.Client
	prefix string
}

// NewRedisDenylist connects to redis at addr and checks the connection.
func NewRedisDenylist(ctx context.Context, addr, password string, db int) (*RedisDenylist, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisDenylist{client: client, prefix: "notio:revoked:"}, nil
}

// Add stores id with a TTL ending at until.
func (d *RedisDenylist) Add(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.prefix+id, 1, ttl).Err()
}

// Contains reports whether the key for id still exists.
func (d *RedisDenylist) Contains(ctx context.Context, id string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the redis client.
func (d *RedisDenylist) Close() error {
	return d.client.Close()
}
