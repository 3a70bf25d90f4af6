package trends

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/model"
)

type scriptedProvider struct {
	name  string
	calls atomic.Int32
	fn    func(keyword string) (*model.KeywordResult, error)
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) GetKeywordData(ctx context.Context, keyword string) (*model.KeywordResult, error) {
	p.calls.Add(1)
	return p.fn(keyword)
}

func okProvider(name string) *scriptedProvider {
	return &scriptedProvider{name: name, fn: func(kw string) (*model.KeywordResult, error) {
		return &model.KeywordResult{Keyword: kw, DataSource: model.SourceGoogleTrends}, nil
	}}
}

func failingProvider(name string) *scriptedProvider {
	return &scriptedProvider{name: name, fn: func(string) (*model.KeywordResult, error) {
		return nil, errors.New(name + " down")
	}}
}

func fastCfg() Config {
	return Config{MaxRetries: 3, RequestDelay: time.Millisecond, BackoffBase: time.Millisecond}
}

func TestFetcher_PrimaryWins(t *testing.T) {
	primary := okProvider("live")
	fallback := okProvider("synthetic")
	f := NewFetcher(primary, fallback, fastCfg(), zerolog.Nop())

	if _, err := f.GetKeywordData(context.Background(), "kw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls.Load() != 1 || fallback.calls.Load() != 0 {
		t.Fatalf("fallback must not be consulted when primary succeeds")
	}
}

func TestFetcher_FallsBack(t *testing.T) {
	f := NewFetcher(failingProvider("live"), okProvider("synthetic"), fastCfg(), zerolog.Nop())

	res, err := f.GetKeywordData(context.Background(), "kw")
	if err != nil {
		t.Fatalf("fallback should rescue: %v", err)
	}
	if res.Keyword != "kw" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestFetcher_AllProvidersFail(t *testing.T) {
	f := NewFetcher(failingProvider("live"), failingProvider("synthetic"), fastCfg(), zerolog.Nop())

	if _, err := f.GetKeywordData(context.Background(), "kw"); err == nil {
		t.Fatalf("expected error when nothing can serve")
	}
}

func TestFetcher_NoPrimary(t *testing.T) {
	fallback := okProvider("synthetic")
	f := NewFetcher(nil, fallback, fastCfg(), zerolog.Nop())

	if _, err := f.GetKeywordData(context.Background(), "kw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls.Load() != 1 {
		t.Fatalf("fallback not used")
	}
}

func TestBulk_DropsPersistentFailures(t *testing.T) {
	flaky := &scriptedProvider{name: "synthetic", fn: func(kw string) (*model.KeywordResult, error) {
		if kw == "bad" {
			return nil, errors.New("always fails")
		}
		return &model.KeywordResult{Keyword: kw}, nil
	}}
	f := NewFetcher(nil, flaky, fastCfg(), zerolog.Nop())

	results := f.GetBulkKeywordData(context.Background(), []string{"a", "bad", "b", "c", "d", "e"})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Keyword == "bad" {
			t.Fatalf("failed keyword leaked into results")
		}
	}
}

func TestBulk_RetriesBeforeDropping(t *testing.T) {
	var attempts atomic.Int32
	flaky := &scriptedProvider{name: "synthetic", fn: func(kw string) (*model.KeywordResult, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("transient")
		}
		return &model.KeywordResult{Keyword: kw}, nil
	}}
	f := NewFetcher(nil, flaky, fastCfg(), zerolog.Nop())

	results := f.GetBulkKeywordData(context.Background(), []string{"kw"})
	if len(results) != 1 {
		t.Fatalf("third attempt should have succeeded")
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestBulk_CancellationAbandonsRemainingBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProvider{name: "synthetic", fn: func(kw string) (*model.KeywordResult, error) {
		return &model.KeywordResult{Keyword: kw}, nil
	}}
	cfg := fastCfg()
	cfg.RequestDelay = 200 * time.Millisecond
	f := NewFetcher(nil, p, cfg, zerolog.Nop())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	// 12 keywords, batch size 5 without a primary: cancellation during the
	// first inter-batch delay leaves only the first batch resolved.
	results := f.GetBulkKeywordData(ctx, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"})
	if len(results) != 5 {
		t.Fatalf("expected first batch only, got %d results", len(results))
	}
}

func TestCheckHealth(t *testing.T) {
	f := NewFetcher(nil, okProvider("synthetic"), fastCfg(), zerolog.Nop())
	h := f.CheckHealth(context.Background())
	if !h.Available || h.Source != "synthetic" {
		t.Fatalf("unexpected health %+v", h)
	}

	down := NewFetcher(failingProvider("live"), failingProvider("synthetic"), fastCfg(), zerolog.Nop())
	if h := down.CheckHealth(context.Background()); h.Available {
		t.Fatalf("expected unavailable")
	}
	if err := down.PingHealth(context.Background()); err == nil {
		t.Fatalf("PingHealth should error when unavailable")
	}
}
