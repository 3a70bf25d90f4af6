package store

import (
	"context"
	"time"

	"github.com/keywordpulse/keywordpulse/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Users() Users
	Queries() Queries
	Cache() Cache
}

type Users interface {
	// GetOrCreate returns the user with the given email, creating it with
	// zero usage on the free tier when absent. Concurrent creations for the
	// same email must collapse to a single row: a unique-constraint
	// violation on insert is resolved by re-fetching, not reported.
	GetOrCreate(ctx context.Context, email string) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	// IncrementQueryCount adds one to the user's counter and stamps
	// last_query_at in a single storage-level operation. Implementations
	// must not read-modify-write from the client side.
	IncrementQueryCount(ctx context.Context, userID string, now time.Time) error
	// ResetQueryCount zeroes the counter after a day rollover.
	ResetQueryCount(ctx context.Context, userID string) error
}

type Queries interface {
	Create(ctx context.Context, q *model.KeywordQuery) (*model.KeywordQuery, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.KeywordQuery, error)
	GetByID(ctx context.Context, userID, queryID string) (*model.KeywordQuery, error)
}

type Cache interface {
	// Get returns the entry for the normalized keyword whose expiry is
	// strictly in the future of now, or model.ErrNotFound otherwise.
	Get(ctx context.Context, keyword string, now time.Time) (*model.CacheEntry, error)
	// Put upserts the entry under its keyword, last write wins.
	Put(ctx context.Context, e *model.CacheEntry) error
	// DeleteExpired removes rows past expiry and reports how many. Purely a
	// space-reclamation operation; Get already filters by expiry.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
