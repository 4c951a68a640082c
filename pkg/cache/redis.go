package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// Debug turns every read into a miss and every write into a no-op.
	Debug bool
}

// Store is the transient-style key-value cache consumed by the stock engine.
type Store interface {
	// Get decodes the cached value into dest. A miss is (false, nil).
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type RedisClient struct {
	Client *redis.Client
	debug  bool
}

var _ Store = (*RedisClient)(nil)

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisClient{Client: client, debug: cfg.Debug}, nil
}

// NewFromClient wraps an already connected client.
func NewFromClient(client *redis.Client, debug bool) *RedisClient {
	return &RedisClient{Client: client, debug: debug}
}

func (c *RedisClient) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.debug {
		return false, nil
	}

	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// An entry that no longer decodes into dest is treated as a miss.
	if err := json.Unmarshal(val, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// Set stores value for ttl. A zero ttl keeps the entry until it is deleted.
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.debug {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, data, ttl).Err()
}

// DeleteByPrefix removes every key starting with prefix and returns how many were deleted.
// An empty prefix removes the whole namespace.
func (c *RedisClient) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		prefix = Namespace
	}

	deleted := 0
	iter := c.Client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := c.Client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}

	if len(batch) > 0 {
		n, err := c.Client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}

	return deleted, nil
}

func (c *RedisClient) Close() error {
	return c.Client.Close()
}
