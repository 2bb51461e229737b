package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// UserKey composes the cache key for a username.
func UserKey(username string) string {
	return fmt.Sprintf("user:username:%s", username)
}

// UserCache stores JSON-serialized identity snapshots in Redis with a TTL.
// The store remains the source of truth; entries are advisory.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserCache constructs the cache.
func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &UserCache{client: client, ttl: ttl}
}

// Get returns the cached identity, or (nil, nil) on a miss. Malformed
// payloads are treated as a miss.
func (c *UserCache) Get(ctx context.Context, username string) (*domain.User, error) {
	payload, err := c.client.Get(ctx, UserKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

// Set serializes and stores the identity with the configured TTL.
func (c *UserCache) Set(ctx context.Context, user *domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, UserKey(user.Username), payload, c.ttl).Err()
}

// Invalidate drops the cached entry for a username. Identity mutations call
// this so stale snapshots never outlive a write.
func (c *UserCache) Invalidate(ctx context.Context, username string) error {
	return c.client.Del(ctx, UserKey(username)).Err()
}
