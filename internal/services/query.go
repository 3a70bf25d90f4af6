package services

import (
	"context"
	"time"

	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

// HistoryItem is one past search, trimmed for listing.
type HistoryItem struct {
	ID          string    `json:"id"`
	Keyword     string    `json:"keyword"`
	CreatedAt   time.Time `json:"created_at"`
	ResultCount int       `json:"result_count"`
}

// QueryService serves search history.
type QueryService struct {
	store store.Store
}

func NewQueryService(s store.Store) *QueryService {
	return &QueryService{store: s}
}

// History lists the caller's most recent completed searches, newest first.
func (s *QueryService) History(ctx context.Context, email string, limit int) ([]HistoryItem, error) {
	u, err := s.store.Users().GetOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	queries, err := s.store.Queries().ListByUser(ctx, u.ID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(queries))
	for _, q := range queries {
		items = append(items, HistoryItem{
			ID:          q.ID,
			Keyword:     q.Keyword,
			CreatedAt:   q.CreatedAt,
			ResultCount: len(q.Results),
		})
	}
	return items, nil
}

// Get returns one of the caller's searches in full.
func (s *QueryService) Get(ctx context.Context, email, queryID string) (*model.KeywordQuery, error) {
	u, err := s.store.Users().GetOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.store.Queries().GetByID(ctx, u.ID, queryID)
}
