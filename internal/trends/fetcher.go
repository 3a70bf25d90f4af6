package trends

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/model"
)

// Provider resolves one keyword to a result.
type Provider interface {
	Name() string
	GetKeywordData(ctx context.Context, keyword string) (*model.KeywordResult, error)
}

// Config bounds retry and pacing behavior for bulk fetches.
type Config struct {
	MaxRetries   int           // attempts per keyword, default 3
	RequestDelay time.Duration // pause between batches, default 1s
	BackoffBase  time.Duration // first retry delay, doubled per attempt, default 1s
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
}

// Fetcher chains a primary provider with a fallback. primary may be nil, in
// which case the fallback serves everything.
type Fetcher struct {
	primary  Provider
	fallback Provider
	cfg      Config
	log      zerolog.Logger
}

func NewFetcher(primary, fallback Provider, cfg Config, log zerolog.Logger) *Fetcher {
	cfg.applyDefaults()
	return &Fetcher{primary: primary, fallback: fallback, cfg: cfg, log: log}
}

// GetKeywordData tries the primary provider and falls back on error. A thin
// primary result (empty series, zero volume) is still a primary success.
func (f *Fetcher) GetKeywordData(ctx context.Context, keyword string) (*model.KeywordResult, error) {
	if f.primary != nil {
		res, err := f.primary.GetKeywordData(ctx, keyword)
		if err == nil {
			return res, nil
		}
		f.log.Warn().Err(err).Str("keyword", keyword).Msg("primary provider failed, falling back")
	}

	res, err := f.fallback.GetKeywordData(ctx, keyword)
	if err != nil {
		return nil, errors.Wrap(err, "all trend providers failed")
	}
	return res, nil
}

// GetBulkKeywordData resolves keywords in paced batches. The batch size is 2
// when a live upstream is configured and 5 otherwise. Each keyword gets up to
// MaxRetries attempts with exponentially growing delays; keywords that still
// fail are dropped from the output. Context cancellation abandons the
// remaining batches and returns what has been collected.
func (f *Fetcher) GetBulkKeywordData(ctx context.Context, keywords []string) []*model.KeywordResult {
	batchSize := 5
	if f.primary != nil {
		batchSize = 2
	}

	results := make([]*model.KeywordResult, 0, len(keywords))
	for start := 0; start < len(keywords); start += batchSize {
		end := start + batchSize
		if end > len(keywords) {
			end = len(keywords)
		}
		batch := keywords[start:end]

		out := make([]*model.KeywordResult, len(batch))
		var wg sync.WaitGroup
		for i, kw := range batch {
			wg.Add(1)
			go func(i int, kw string) {
				defer wg.Done()
				out[i] = f.fetchWithRetry(ctx, kw)
			}(i, kw)
		}
		wg.Wait()

		for _, r := range out {
			if r != nil {
				results = append(results, r)
			}
		}

		if end < len(keywords) {
			if err := sleepCtx(ctx, f.cfg.RequestDelay); err != nil {
				f.log.Warn().Int("resolved", len(results)).Int("requested", len(keywords)).Msg("bulk fetch cancelled")
				return results
			}
		}
	}
	return results
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, keyword string) *model.KeywordResult {
	delay := f.cfg.BackoffBase
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		res, err := f.GetKeywordData(ctx, keyword)
		if err == nil {
			return res
		}
		f.log.Warn().Err(err).Str("keyword", keyword).Int("attempt", attempt).Msg("keyword fetch failed")
		if attempt == f.cfg.MaxRetries {
			break
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil
		}
		delay *= 2
	}
	return nil
}

// Health reports provider availability as probed by CheckHealth.
type Health struct {
	Available    bool          `json:"available"`
	Source       string        `json:"source"`
	ResponseTime time.Duration `json:"response_time"`
}

// CheckHealth probes the provider chain with a throwaway keyword.
func (f *Fetcher) CheckHealth(ctx context.Context) Health {
	source := f.fallback.Name()
	if f.primary != nil {
		source = f.primary.Name()
	}

	start := time.Now()
	_, err := f.GetKeywordData(ctx, "test")
	return Health{
		Available:    err == nil,
		Source:       source,
		ResponseTime: time.Since(start),
	}
}

// PingHealth adapts CheckHealth to the store health probe contract.
func (f *Fetcher) PingHealth(ctx context.Context) error {
	if h := f.CheckHealth(ctx); !h.Available {
		return errors.New("trend providers unavailable")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
