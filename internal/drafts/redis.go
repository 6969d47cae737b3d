package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore opens a store from a redis:// URL. Expiry is left to Redis.
func NewRedisStore(url string) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts)), nil
}

func NewRedisStoreWithClient(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb, prefix: "qrmarket:draft:"}
}

func (r *redisStore) key(k Key) string { return r.prefix + k.String() }

func (r *redisStore) Put(ctx context.Context, k Key, payload []byte, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, k)
	}
	return r.rdb.Set(ctx, r.key(k), payload, ttl).Err()
}

func (r *redisStore) Get(ctx context.Context, k Key) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *redisStore) Delete(ctx context.Context, k Key) error {
	return r.rdb.Del(ctx, r.key(k)).Err()
}

func (r *redisStore) Sweep(context.Context, time.Time) (int, error) { return 0, nil }

func (r *redisStore) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *redisStore) Close() error { return r.rdb.Close() }
