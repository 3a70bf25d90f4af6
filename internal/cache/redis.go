package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/model"
)

// RedisCache keeps keyword results in redis under native TTLs. Redis
// removes expired keys itself, so EvictExpired has nothing to do.
type RedisCache struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

type redisEntry struct {
	Data       model.KeywordResult `json:"data"`
	DataSource string              `json:"data_source"`
	CreatedAt  time.Time           `json:"created_at"`
}

func NewRedisCache(addr, password string, db int, log zerolog.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: rdb, prefix: "keyword_cache", log: log}, nil
}

func (c *RedisCache) key(keyword string) string {
	return c.prefix + ":" + Normalize(keyword)
}

func (c *RedisCache) Get(ctx context.Context, keyword string) (*model.KeywordResult, bool) {
	data, err := c.client.Get(ctx, c.key(keyword)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("keyword", keyword).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}
	var entry redisEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn().Err(err).Str("keyword", keyword).Msg("cache entry undecodable, treating as miss")
		return nil, false
	}
	return &entry.Data, true
}

func (c *RedisCache) Put(ctx context.Context, keyword string, result *model.KeywordResult, source string) error {
	data, err := json.Marshal(redisEntry{Data: *result, DataSource: source, CreatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(keyword), data, TTL).Err()
}

func (c *RedisCache) EvictExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// Close releases the underlying redis connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
