// internal/store/redis.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisCmdable is the subset of redis.Cmdable the store uses.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis keeps settings as "<prefix>:<key number>".
type Redis struct {
	client redisCmdable
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, func() error, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("store: redis %s: %w", cfg.Addr, err)
	}
	return &Redis{client: c, prefix: cfg.Prefix}, c.Close, nil
}

func (r *Redis) key(k Key) string {
	return fmt.Sprintf("%s:%d", r.prefix, uint8(k))
}

func (r *Redis) Get(ctx context.Context, k Key) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, k Key, v []byte) error {
	return r.client.Set(ctx, r.key(k), v, 0).Err()
}

// Publish stores an auxiliary record under "<prefix>:<name>".
func (r *Redis) Publish(ctx context.Context, name string, v []byte) error {
	return r.client.Set(ctx, r.prefix+":"+name, v, 0).Err()
}
