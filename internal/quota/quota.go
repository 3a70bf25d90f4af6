// Package quota enforces per-user daily search limits. Counters live in the
// users table and reset lazily on the first check after a day rollover.
package quota

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/store"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed      bool
	CurrentCount int
	Limit        int
}

// Ledger tracks and enforces daily usage per user.
type Ledger struct {
	users store.Users
	log   zerolog.Logger
	now   func() time.Time
}

func NewLedger(users store.Users, log zerolog.Logger) *Ledger {
	return &Ledger{users: users, log: log, now: time.Now}
}

// WithNow overrides the clock; used by tests for day-rollover scenarios.
func (l *Ledger) WithNow(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CheckLimit reads the user's counter and decides admission. A counter
// stamped on a prior calendar day is stale: the effective count is zero and
// the stored counter is reset as a side effect. Any read failure denies
// admission (fail closed).
func (l *Ledger) CheckLimit(ctx context.Context, userID string) Decision {
	u, err := l.users.Get(ctx, userID)
	if err != nil {
		l.log.Error().Err(err).Str("user_id", userID).Msg("quota check failed, denying")
		return Decision{Allowed: false, CurrentCount: 0}
	}

	count := u.QueryCount
	if u.LastQueryAt == nil || !sameDay(*u.LastQueryAt, l.now()) {
		count = 0
		if err := l.users.ResetQueryCount(ctx, u.ID); err != nil {
			l.log.Warn().Err(err).Str("user_id", userID).Msg("day-rollover counter reset failed")
		}
	}

	limit := u.DailyLimit()
	return Decision{Allowed: count < limit, CurrentCount: count, Limit: limit}
}

// Increment counts one accepted search. The storage-level add is atomic, so
// concurrent searches for the same user cannot lose updates. Failures are
// logged and swallowed: under-counting is preferred over failing a search
// that already completed.
func (l *Ledger) Increment(ctx context.Context, userID string) {
	if err := l.users.IncrementQueryCount(ctx, userID, l.now()); err != nil {
		l.log.Warn().Err(err).Str("user_id", userID).Msg("query count increment failed")
	}
}

// sameDay compares the local calendar day of both timestamps.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
