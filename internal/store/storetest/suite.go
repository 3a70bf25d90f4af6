package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	email := "u-" + uuid.New().String() + "@example.test"

	// GetOrCreate is idempotent per email.
	u, err := s.Users().GetOrCreate(ctx, email)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if u.ID == "" || u.Email != email || u.QueryCount != 0 || u.SubscriptionTier != model.TierFree {
		t.Fatalf("GetOrCreate: unexpected user %+v", u)
	}
	again, err := s.Users().GetOrCreate(ctx, email)
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if again.ID != u.ID {
		t.Fatalf("GetOrCreate not idempotent: %s != %s", again.ID, u.ID)
	}

	if got, err := s.Users().Get(ctx, u.ID); err != nil || got.Email != email {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, uuid.New().String()); err != model.ErrNotFound {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	// Increment stamps last_query_at and accumulates.
	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		if err := s.Users().IncrementQueryCount(ctx, u.ID, now); err != nil {
			t.Fatalf("IncrementQueryCount: %v", err)
		}
	}
	got, err := s.Users().Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get after increment: %v", err)
	}
	if got.QueryCount != 3 {
		t.Fatalf("QueryCount: want 3, got %d", got.QueryCount)
	}
	if got.LastQueryAt == nil {
		t.Fatalf("LastQueryAt not stamped")
	}

	if err := s.Users().ResetQueryCount(ctx, u.ID); err != nil {
		t.Fatalf("ResetQueryCount: %v", err)
	}
	if got, _ := s.Users().Get(ctx, u.ID); got.QueryCount != 0 {
		t.Fatalf("QueryCount after reset: want 0, got %d", got.QueryCount)
	}

	// Queries
	vol := 1200
	q, err := s.Queries().Create(ctx, &model.KeywordQuery{
		UserID:  u.ID,
		Keyword: "seo tools",
		Results: []model.KeywordResult{{Keyword: "seo tools", SearchVolume: &vol, DataSource: model.SourceGoogleTrends}},
	})
	if err != nil {
		t.Fatalf("Queries.Create: %v", err)
	}
	if q.ID == "" || q.Status != model.StatusCompleted {
		t.Fatalf("Queries.Create: unexpected %+v", q)
	}
	lst, err := s.Queries().ListByUser(ctx, u.ID, 10)
	if err != nil || len(lst) != 1 {
		t.Fatalf("ListByUser: n=%d err=%v", len(lst), err)
	}
	if len(lst[0].Results) != 1 || lst[0].Results[0].Keyword != "seo tools" {
		t.Fatalf("ListByUser: results not round-tripped: %+v", lst[0].Results)
	}
	if got, err := s.Queries().GetByID(ctx, u.ID, q.ID); err != nil || got.Keyword != "seo tools" {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
	if _, err := s.Queries().GetByID(ctx, u.ID, uuid.New().String()); err != model.ErrNotFound {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	// Cache: unexpired hit, boundary miss, upsert, expired cleanup.
	base := time.Now().UTC().Truncate(time.Second)
	entry := &model.CacheEntry{
		Keyword:    "seo tools",
		Data:       []byte(`{"keyword":"seo tools","data_source":"google_trends"}`),
		DataSource: model.SourceGoogleTrends,
		CreatedAt:  base,
		ExpiresAt:  base.Add(24 * time.Hour),
	}
	if err := s.Cache().Put(ctx, entry); err != nil {
		t.Fatalf("Cache.Put: %v", err)
	}
	if got, err := s.Cache().Get(ctx, "seo tools", base.Add(23*time.Hour)); err != nil || got.DataSource != model.SourceGoogleTrends {
		t.Fatalf("Cache.Get hit: got=%+v err=%v", got, err)
	}
	// Expiry boundary is inclusive on the miss side.
	if _, err := s.Cache().Get(ctx, "seo tools", base.Add(24*time.Hour)); err != model.ErrNotFound {
		t.Fatalf("Cache.Get at expiry: want ErrNotFound, got %v", err)
	}

	entry.Data = []byte(`{"keyword":"seo tools","data_source":"google_ads"}`)
	entry.DataSource = model.SourceGoogleAds
	if err := s.Cache().Put(ctx, entry); err != nil {
		t.Fatalf("Cache.Put upsert: %v", err)
	}
	if got, _ := s.Cache().Get(ctx, "seo tools", base); got == nil || got.DataSource != model.SourceGoogleAds {
		t.Fatalf("Cache.Put upsert: last write should win, got %+v", got)
	}

	n, err := s.Cache().DeleteExpired(ctx, base.Add(25*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: n=%d err=%v", n, err)
	}
}
