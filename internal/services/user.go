package services

import (
	"context"

	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/quota"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

// AccountUsage extends Usage with an admission verdict for display.
type AccountUsage struct {
	Usage
	CanQuery bool `json:"can_query"`
}

// Profile is an account plus its current consumption.
type Profile struct {
	User  *model.User  `json:"user"`
	Usage AccountUsage `json:"usage"`
}

// UserService handles account-facing reads.
type UserService struct {
	store store.Store
	quota *quota.Ledger
}

func NewUserService(s store.Store, q *quota.Ledger) *UserService {
	return &UserService{store: s, quota: q}
}

// Me resolves the account for email, creating it on first contact, and
// reports today's usage.
func (s *UserService) Me(ctx context.Context, email string) (*Profile, error) {
	u, err := s.store.Users().GetOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	d := s.quota.CheckLimit(ctx, u.ID)
	return &Profile{
		User: u,
		Usage: AccountUsage{
			Usage:    Usage{CurrentCount: d.CurrentCount, DailyLimit: d.Limit},
			CanQuery: d.Allowed,
		},
	}, nil
}
