package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/publica-app/publica/internal/domain"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RedisCache implements ListingCache and CounterStore on one Redis client.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and returns the cache.
func NewRedisCache(cfg RedisConfig, prefix string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
	}, nil
}

// BuildListKey builds the cache key for one listing page.
func (c *RedisCache) BuildListKey(scope string, page, pageSize int) string {
	return fmt.Sprintf("%s:posts:%s:page:%d:size:%d", c.prefix, scope, page, pageSize)
}

// GetPage retrieves a cached listing page.
func (c *RedisCache) GetPage(ctx context.Context, key string) (*domain.PostPage, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var page domain.PostPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &page, nil
}

// SetPage stores a listing page with the given TTL.
func (c *RedisCache) SetPage(ctx context.Context, key string, page *domain.PostPage, ttl time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisCache) followerCountKey(userID string) string {
	return fmt.Sprintf("%s:followers:count:%s", c.prefix, userID)
}

// GetFollowerCount retrieves a cached follower count.
func (c *RedisCache) GetFollowerCount(ctx context.Context, userID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.followerCountKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get follower count from redis: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt follower count value: %w", err)
	}
	return count, true, nil
}

// SetFollowerCount stores a follower count with the given TTL.
func (c *RedisCache) SetFollowerCount(ctx context.Context, userID string, count int64, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.followerCountKey(userID), count, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set follower count in redis: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure interfaces are satisfied at compile time.
var (
	_ ListingCache = (*RedisCache)(nil)
	_ CounterStore = (*RedisCache)(nil)
)
