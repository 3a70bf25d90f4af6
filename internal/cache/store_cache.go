package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

// StoreCache keeps cache entries in the primary store's keyword_cache table.
type StoreCache struct {
	rows store.Cache
	log  zerolog.Logger
	now  func() time.Time
}

func NewStoreCache(rows store.Cache, log zerolog.Logger) *StoreCache {
	return &StoreCache{rows: rows, log: log, now: time.Now}
}

// WithNow overrides the clock; used by tests to probe expiry boundaries.
func (c *StoreCache) WithNow(now func() time.Time) *StoreCache {
	c.now = now
	return c
}

func (c *StoreCache) Get(ctx context.Context, keyword string) (*model.KeywordResult, bool) {
	key := Normalize(keyword)
	entry, err := c.rows.Get(ctx, key, c.now())
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			c.log.Warn().Err(err).Str("keyword", key).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}
	var result model.KeywordResult
	if err := json.Unmarshal(entry.Data, &result); err != nil {
		c.log.Warn().Err(err).Str("keyword", key).Msg("cache entry undecodable, treating as miss")
		return nil, false
	}
	return &result, true
}

func (c *StoreCache) Put(ctx context.Context, keyword string, result *model.KeywordResult, source string) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	now := c.now()
	return c.rows.Put(ctx, &model.CacheEntry{
		Keyword:    Normalize(keyword),
		Data:       data,
		DataSource: source,
		CreatedAt:  now,
		ExpiresAt:  now.Add(TTL),
	})
}

func (c *StoreCache) EvictExpired(ctx context.Context) (int64, error) {
	return c.rows.DeleteExpired(ctx, c.now())
}
