package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidMonth = errors.New("invalid_month")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("summary_not_found")
)

type RollupRequest struct {
	// Month may be any day in the target month; it is normalized to the
	// first of the month.
	Month time.Time `json:"month"`
}

type RollupResult struct {
	Balances []MemberBalance `json:"balances"`
	Summary  MonthlySummary  `json:"summary"`
}

type ListBalancesRequest struct {
	MemberID string    `json:"member_id"`
	Month    time.Time `json:"month"`
}

type Service interface {
	// RollupMonth rebuilds every member balance row and the cooperative
	// summary for one month. Safe to run repeatedly.
	RollupMonth(ctx context.Context, req RollupRequest) (RollupResult, error)
	ListBalances(ctx context.Context, req ListBalancesRequest) ([]MemberBalance, error)
	GetMonthlySummary(ctx context.Context, month time.Time) (MonthlySummary, error)
}
