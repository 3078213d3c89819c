package presence

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements Store on a Redis set per document
// (key presence:<documentID>, members are usernames).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Store backed by the given Redis client. ttl bounds
// how long a member set survives without a refresh.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func presenceKey(documentID string) string {
	return "presence:" + documentID
}

// Add puts username in the document's member set and refreshes the TTL.
func (s *RedisStore) Add(ctx context.Context, documentID, username string) error {
	key := presenceKey(documentID)
	if err := s.client.SAdd(ctx, key, username).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// Remove takes username out of the document's member set.
func (s *RedisStore) Remove(ctx context.Context, documentID, username string) error {
	return s.client.SRem(ctx, presenceKey(documentID), username).Err()
}

// Members returns the current member set for the document.
func (s *RedisStore) Members(ctx context.Context, documentID string) ([]string, error) {
	return s.client.SMembers(ctx, presenceKey(documentID)).Result()
}

// Refresh extends the TTL on the document's member set.
func (s *RedisStore) Refresh(ctx context.Context, documentID string) error {
	return s.client.Expire(ctx, presenceKey(documentID), s.ttl).Err()
}
