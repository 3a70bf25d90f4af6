// Package factory assembles the service's backing components from config.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/cache"
	"github.com/keywordpulse/keywordpulse/internal/config"
	storepkg "github.com/keywordpulse/keywordpulse/internal/store"
	storepg "github.com/keywordpulse/keywordpulse/internal/store/postgres"
	storelite "github.com/keywordpulse/keywordpulse/internal/store/sqlite"
	"github.com/keywordpulse/keywordpulse/internal/trends"
)

// NewStore opens the configured store. Postgres gets its migrations applied
// before the store is handed out; sqlite creates its schema on open.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := storepg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store ready")
		return storepg.NewWithDB(db), nil
	case "sqlite":
		st, err := storelite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

// NewCache builds the keyword cache on the configured backend. The db
// backend shares the store; redis runs against its own instance.
func NewCache(cfg *config.Config, st storepkg.Store, log zerolog.Logger) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case "db":
		return cache.NewStoreCache(st.Cache(), log), nil
	case "redis":
		return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND: %s", cfg.CacheBackend)
	}
}

// NewFetcher builds the trend fetcher. Without a base URL the live path is
// disabled and everything comes from the synthetic generator.
func NewFetcher(cfg *config.Config, log zerolog.Logger) *trends.Fetcher {
	var primary trends.Provider
	if cfg.TrendsBaseURL != "" {
		primary = trends.NewClient(
			cfg.TrendsBaseURL,
			cfg.TrendsRegion,
			time.Duration(cfg.TrendsTimeoutSeconds)*time.Second,
			log,
		)
	}

	return trends.NewFetcher(primary, trends.NewGenerator(), trends.Config{
		MaxRetries:   cfg.TrendsMaxRetries,
		RequestDelay: time.Duration(cfg.TrendsRequestDelayMS) * time.Millisecond,
	}, log)
}
