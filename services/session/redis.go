// File: services/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"time"

	"dentaflow/models"
	"dentaflow/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const sessionPrefix = "assistant:session:"

// RedisStore keeps one JSON document per conversation with a rolling TTL.
// Redis expiry is the background sweep; the lastActivityAt check in Load is
// the lazy guard for clock skew and for stores restored from a dump.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a store whose sessions lapse after ttl of inactivity.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return sessionPrefix + id
}

func (s *RedisStore) Load(ctx context.Context, id, phone string, now time.Time) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return models.NewSession(id, phone, now), nil
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		// A corrupt session must never resurrect stale state; start over.
		utils.GetLogger().Warn("discarding unreadable session", zap.String("id", id), zap.Error(err))
		return models.NewSession(id, phone, now), nil
	}

	if s.ttl > 0 && now.Sub(sess.LastActivityAt) > s.ttl {
		return models.NewSession(id, phone, now), nil
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
