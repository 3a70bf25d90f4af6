// Package cache memoizes keyword analysis results under a short TTL so
// repeated searches for the same keyword do not hit the upstream provider.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/keywordpulse/keywordpulse/internal/model"
)

// TTL is the lifetime of a cached keyword result.
const TTL = 24 * time.Hour

// Cache is the keyword result cache. Implementations normalize the keyword
// before use, so callers may pass raw input.
type Cache interface {
	// Get returns the unexpired result for the keyword, or ok=false on any
	// miss, expired entry, or undecodable stored value. Lookups never fail
	// hard; storage errors degrade to a miss.
	Get(ctx context.Context, keyword string) (*model.KeywordResult, bool)
	// Put stores the result under the normalized keyword for TTL,
	// unconditionally replacing any previous entry.
	Put(ctx context.Context, keyword string, result *model.KeywordResult, source string) error
	// EvictExpired reclaims space held by expired entries. Optional for
	// correctness; Get already filters by expiry.
	EvictExpired(ctx context.Context) (int64, error)
}

// Normalize maps a keyword to its cache key form: trimmed and lower-cased.
// Normalize is idempotent.
func Normalize(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
