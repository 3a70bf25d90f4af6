package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("keyword data temporarily unavailable")
)

// QuotaError reports a denied admission together with the usage that caused
// the denial, so callers can render the concrete counts.
type QuotaError struct {
	CurrentCount int
	DailyLimit   int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily query limit reached: used %d of %d", e.CurrentCount, e.DailyLimit)
}
