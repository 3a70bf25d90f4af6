package model

import "time"

// Subscription tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Daily query limits per tier.
const (
	FreeDailyLimit = 10
	ProDailyLimit  = 1000
)

// Data source tags attached to a KeywordResult.
const (
	SourceGoogleTrends = "google_trends"
	SourceGoogleAds    = "google_ads"
	SourceCached       = "cached"
)

// Query status values. The service only writes StatusCompleted; the other
// values are reserved for asynchronous processing.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// User is an account identified by email. QueryCount is only meaningful
// relative to LastQueryAt's calendar day; a count stamped on a prior day is
// stale and treated as zero.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	QueryCount       int        `json:"query_count"`
	SubscriptionTier string     `json:"subscription_tier"`
	LastQueryAt      *time.Time `json:"last_query_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DailyLimit returns the maximum accepted searches per calendar day for the
// user's tier.
func (u *User) DailyLimit() int {
	if u.SubscriptionTier == TierPro {
		return ProDailyLimit
	}
	return FreeDailyLimit
}

// KeywordQuery is one executed search, owned by a user and immutable once
// created.
type KeywordQuery struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Keyword   string          `json:"keyword"`
	Results   []KeywordResult `json:"results"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// KeywordResult is the analysis produced for a single keyword.
type KeywordResult struct {
	Keyword          string           `json:"keyword"`
	SearchVolume     *int             `json:"search_volume,omitempty"`
	CompetitionScore *float64         `json:"competition_score,omitempty"`
	TrendData        []TrendDataPoint `json:"trend_data,omitempty"`
	RelatedQueries   []string         `json:"related_queries,omitempty"`
	DataSource       string           `json:"data_source"`
}

// TrendDataPoint is one (month, relative interest) sample. Date is the
// YYYY-MM-DD form of the sample day; Value is 0-100.
type TrendDataPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// CacheEntry is a stored keyword analysis keyed by normalized keyword text.
// A read must ignore entries whose ExpiresAt has passed even if the row has
// not been physically removed yet.
type CacheEntry struct {
	Keyword    string    `json:"keyword"`
	Data       []byte    `json:"data"`
	DataSource string    `json:"data_source"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
