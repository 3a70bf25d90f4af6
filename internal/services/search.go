package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/api/validate"
	"github.com/keywordpulse/keywordpulse/internal/auth"
	"github.com/keywordpulse/keywordpulse/internal/cache"
	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/quota"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

// TrendProvider is the slice of the fetcher the search flow needs.
type TrendProvider interface {
	GetKeywordData(ctx context.Context, keyword string) (*model.KeywordResult, error)
}

// Usage reports the caller's daily consumption after this request.
type Usage struct {
	CurrentCount int `json:"current_count"`
	DailyLimit   int `json:"daily_limit"`
}

// SearchResponse is the search result envelope.
type SearchResponse struct {
	Keyword   string                 `json:"keyword"`
	Results   []*model.KeywordResult `json:"results"`
	QueryID   string                 `json:"query_id"`
	FromCache bool                   `json:"from_cache"`
	Usage     *Usage                 `json:"usage,omitempty"`
}

// SearchService orchestrates a keyword search: validation, quota admission,
// cache lookup, trend fetch and best-effort persistence.
type SearchService struct {
	store store.Store
	cache cache.Cache
	quota *quota.Ledger
	fetch TrendProvider
	log   zerolog.Logger
	now   func() time.Time
}

func NewSearchService(s store.Store, c cache.Cache, q *quota.Ledger, f TrendProvider, log zerolog.Logger) *SearchService {
	return &SearchService{store: s, cache: c, quota: q, fetch: f, log: log, now: time.Now}
}

// Search runs one keyword lookup. ident may be nil: anonymous callers get
// live data with no quota, no cache participation and no history.
//
// Persistence after a fresh fetch is best-effort: a failed cache write,
// counter bump or history insert is logged and the caller still gets their
// data.
func (s *SearchService) Search(ctx context.Context, rawKeyword string, ident *auth.Identity) (*SearchResponse, error) {
	if err := validate.Keyword(rawKeyword); err != nil {
		return nil, errors.WithMessage(model.ErrValidation, err.Error())
	}
	keyword := validate.CleanKeyword(rawKeyword)

	var user *model.User
	var decision quota.Decision
	if ident != nil {
		u, err := s.store.Users().GetOrCreate(ctx, ident.Email)
		if err != nil {
			// Account lookup trouble must not block the search itself;
			// proceed untracked.
			s.log.Error().Err(err).Str("email", ident.Email).Msg("user resolution failed, continuing anonymously")
		} else {
			user = u
			decision = s.quota.CheckLimit(ctx, user.ID)
			if !decision.Allowed {
				return nil, &model.QuotaError{CurrentCount: decision.CurrentCount, DailyLimit: decision.Limit}
			}
		}
	}

	if user != nil {
		if cached, ok := s.cache.Get(ctx, keyword); ok {
			cached.DataSource = model.SourceCached
			return &SearchResponse{
				Keyword:   keyword,
				Results:   []*model.KeywordResult{cached},
				QueryID:   s.tempQueryID(),
				FromCache: true,
				Usage:     &Usage{CurrentCount: decision.CurrentCount, DailyLimit: decision.Limit},
			}, nil
		}
	}

	result, err := s.fetch.GetKeywordData(ctx, keyword)
	if err != nil {
		return nil, errors.WithMessage(model.ErrUnavailable, "keyword data unavailable")
	}

	queryID := s.tempQueryID()
	if user != nil {
		if err := s.cache.Put(ctx, keyword, result, result.DataSource); err != nil {
			s.log.Warn().Err(err).Str("keyword", keyword).Msg("cache write failed")
		}
		s.quota.Increment(ctx, user.ID)
		q, err := s.store.Queries().Create(ctx, &model.KeywordQuery{
			UserID:  user.ID,
			Keyword: keyword,
			Results: []model.KeywordResult{*result},
			Status:  model.StatusCompleted,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("keyword", keyword).Msg("query record insert failed")
		} else {
			queryID = q.ID
		}
	}

	resp := &SearchResponse{
		Keyword: keyword,
		Results: []*model.KeywordResult{result},
		QueryID: queryID,
	}
	if user != nil {
		resp.Usage = &Usage{CurrentCount: decision.CurrentCount + 1, DailyLimit: decision.Limit}
	}
	return resp, nil
}

func (s *SearchService) tempQueryID() string {
	return fmt.Sprintf("temp_%d", s.now().UnixMilli())
}
