package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidEventName = errors.New("invalid_event_name")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrNotFound         = errors.New("payment_event_not_found")
	ErrBondNotFound     = errors.New("bond_not_found")
	ErrAllocationExists = errors.New("allocation_already_exists")
)

type CreateEventRequest struct {
	BondID            string              `json:"bond_id"`
	EventType         EventType           `json:"event_type"`
	EventName         string              `json:"event_name"`
	PaymentDate       time.Time           `json:"payment_date"`
	CalculationPeriod string              `json:"calculation_period"`
	BaseRate          decimal.NullDecimal `json:"base_rate"`
	WithholdingTax    decimal.NullDecimal `json:"withholding_tax_rate"`
	AuthorityFeeRate  decimal.NullDecimal `json:"authority_fee_rate"`
	CoopFeeRate       decimal.NullDecimal `json:"coop_fee_rate"`
	AwardAmount       decimal.Decimal     `json:"award_amount"`
}

type UpdateEventRequest struct {
	ID                string              `json:"id"`
	EventName         string              `json:"event_name"`
	PaymentDate       time.Time           `json:"payment_date"`
	CalculationPeriod string              `json:"calculation_period"`
	BaseRate          decimal.NullDecimal `json:"base_rate"`
	WithholdingTax    decimal.NullDecimal `json:"withholding_tax_rate"`
	AuthorityFeeRate  decimal.NullDecimal `json:"authority_fee_rate"`
	CoopFeeRate       decimal.NullDecimal `json:"coop_fee_rate"`
	AwardAmount       decimal.Decimal     `json:"award_amount"`
}

type GetEventRequest struct {
	ID string `json:"id"`
}

type ListEventsRequest struct {
	BondID string `json:"bond_id"`
}

// ExpectedTotalsRow carries one event's settlement figures from an uploaded
// statement.
type ExpectedTotalsRow struct {
	EventID                  string          `json:"event_id"`
	ExpectedNetMaturityTotal decimal.Decimal `json:"expected_net_maturity_total"`
	ExpectedNetCouponTotal   decimal.Decimal `json:"expected_net_coupon_total"`
}

type ApplyExpectedTotalsRequest struct {
	Rows []ExpectedTotalsRow `json:"rows"`
}

type BatchRowError struct {
	EventID string `json:"event_id"`
	Reason  string `json:"reason"`
}

// BatchResult reports a bulk upsert that never aborts: bad rows are
// collected, good rows are applied.
type BatchResult struct {
	Applied int             `json:"applied"`
	Failed  int             `json:"failed"`
	Errors  []BatchRowError `json:"errors,omitempty"`
}

type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (PaymentEvent, error)
	UpdateEvent(ctx context.Context, req UpdateEventRequest) (PaymentEvent, error)
	GetEvent(ctx context.Context, req GetEventRequest) (PaymentEvent, error)
	ListEvents(ctx context.Context, req ListEventsRequest) ([]PaymentEvent, error)

	// Preview computes the allocation without persisting anything.
	Preview(ctx context.Context, eventID string) ([]MemberPayment, error)
	// Generate persists the allocation; it conflicts if any row already
	// exists for the event.
	Generate(ctx context.Context, eventID string) ([]MemberPayment, error)
	// Recalculate atomically replaces the event's allocation. With no
	// existing rows it behaves exactly like Generate.
	Recalculate(ctx context.Context, eventID string) ([]MemberPayment, error)

	ApplyExpectedTotals(ctx context.Context, req ApplyExpectedTotalsRequest) (BatchResult, error)

	MemberPayments(ctx context.Context, memberID string) ([]MemberPayment, error)
	EventPayments(ctx context.Context, eventID string) ([]MemberPayment, error)
}
