package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BurntNail/denim/internal/model"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions as redis keys expiring at the session
// expiry, so the backing store handles both the logical and physical
// side of expiry itself.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Create(ctx context.Context, record model.Session) error {
	ttl := record.ExpiryDate.Sub(s.now())
	if ttl <= 0 {
		// Already expired; nothing to store, nothing to read back.
		return nil
	}
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+record.ID, record.Data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, record model.Session) error {
	ttl := record.ExpiryDate.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, record.ID)
	}
	return s.client.Set(ctx, redisKeyPrefix+record.ID, record.Data, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (model.Session, error) {
	key := redisKeyPrefix + id
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return model.Session{}, err
	}
	if ttl <= 0 {
		return model.Session{}, ErrNotFound
	}
	return model.Session{ID: id, Data: data, ExpiryDate: s.now().Add(ttl)}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}

// PurgeExpired is a no-op: redis drops expired keys on its own.
func (s *RedisStore) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}
