package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/store"
	"github.com/keywordpulse/keywordpulse/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	return s
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"  SEO Tools ", "seo tools", "SEO工具", "\tMiXeD Case\n", ""}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestStoreCache_PutGet(t *testing.T) {
	s := newTestStore(t)
	c := NewStoreCache(s.Cache(), zerolog.Nop())
	ctx := context.Background()

	vol := 5000
	res := &model.KeywordResult{Keyword: "seo tools", SearchVolume: &vol, DataSource: model.SourceGoogleTrends}
	if err := c.Put(ctx, "  SEO Tools ", res, model.SourceGoogleTrends); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Lookup goes through the same normalization.
	got, ok := c.Get(ctx, "seo tools")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Keyword != "seo tools" || got.SearchVolume == nil || *got.SearchVolume != 5000 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestStoreCache_TTLBoundary(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()
	clock := base
	c := NewStoreCache(s.Cache(), zerolog.Nop()).WithNow(func() time.Time { return clock })
	ctx := context.Background()

	if err := c.Put(ctx, "golang", &model.KeywordResult{Keyword: "golang", DataSource: model.SourceGoogleTrends}, model.SourceGoogleTrends); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clock = base.Add(TTL - time.Second)
	if _, ok := c.Get(ctx, "golang"); !ok {
		t.Fatalf("expected hit just before expiry")
	}

	// Boundary is inclusive on the miss side.
	clock = base.Add(TTL)
	if _, ok := c.Get(ctx, "golang"); ok {
		t.Fatalf("expected miss at exactly TTL")
	}
}

func TestStoreCache_UndecodableEntryIsMiss(t *testing.T) {
	s := newTestStore(t)
	c := NewStoreCache(s.Cache(), zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC()
	err := s.Cache().Put(ctx, &model.CacheEntry{
		Keyword:    "broken",
		Data:       []byte("not json"),
		DataSource: model.SourceGoogleTrends,
		CreatedAt:  now,
		ExpiresAt:  now.Add(TTL),
	})
	if err != nil {
		t.Fatalf("raw Put: %v", err)
	}

	if _, ok := c.Get(ctx, "broken"); ok {
		t.Fatalf("undecodable entry must be a miss, not an error")
	}
}

func TestStoreCache_EvictExpired(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()
	clock := base
	c := NewStoreCache(s.Cache(), zerolog.Nop()).WithNow(func() time.Time { return clock })
	ctx := context.Background()

	for _, kw := range []string{"a", "b"} {
		if err := c.Put(ctx, kw, &model.KeywordResult{Keyword: kw, DataSource: model.SourceGoogleTrends}, model.SourceGoogleTrends); err != nil {
			t.Fatalf("Put %s: %v", kw, err)
		}
	}

	clock = base.Add(TTL + time.Minute)
	n, err := c.EvictExpired(ctx)
	if err != nil {
		t.Fatalf("EvictExpired: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 evictions, got %d", n)
	}
}
