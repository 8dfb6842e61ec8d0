package domain

import (
	"context"
	"errors"
	"time"

	"github.com/coopworks/bondledger/internal/bond/calc"
	"github.com/shopspring/decimal"
)

type CreateIssueRequest struct {
	IssueName          string
	Issuer             string
	CouponRate         decimal.Decimal
	DiscountRate       decimal.Decimal
	WithholdingTaxRate decimal.Decimal
	AuthorityFeeRate   decimal.Decimal
	CoopFeeRate        decimal.Decimal
	IssueDate          time.Time
	MaturityDate       time.Time
}

type GetIssueRequest struct {
	ID string
}

type RecordPurchaseRequest struct {
	MemberID      string
	BondID        string
	PurchaseDate  time.Time
	BondShares    decimal.Decimal
	MaturityYears int
	// DiscountRate overrides the issue's rate when non-zero.
	DiscountRate decimal.Decimal
}

type PreviewPurchaseRequest struct {
	BondShares    decimal.Decimal
	PurchaseDate  time.Time
	MaturityYears int
	DiscountRate  decimal.Decimal
}

type PeriodCouponRequest struct {
	FaceValue decimal.Decimal
	// DailyRate is used as given when non-zero; otherwise it is derived from
	// AnnualRate over a fixed 365-day year.
	DailyRate    decimal.Decimal
	AnnualRate   decimal.Decimal
	CalendarDays int
}

type RecordHoldingRequest struct {
	MemberID   string
	BondID     string
	BondShares decimal.Decimal
	FaceValue  decimal.Decimal
	AsOfDate   time.Time
}

type Service interface {
	CreateIssue(context.Context, CreateIssueRequest) (BondIssue, error)
	GetIssue(context.Context, GetIssueRequest) (BondIssue, error)
	ListIssues(context.Context) ([]BondIssue, error)

	PreviewPurchase(context.Context, PreviewPurchaseRequest) (calc.PurchaseEconomics, error)
	RecordPurchase(context.Context, RecordPurchaseRequest) (BondPurchase, error)

	PeriodCoupon(context.Context, PeriodCouponRequest) (calc.CouponBreakdown, error)

	RecordHolding(context.Context, RecordHoldingRequest) (MemberHolding, error)
	HoldingsAsOf(ctx context.Context, bondID string, asOf time.Time) ([]MemberHolding, error)
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidIssueName = errors.New("invalid_issue_name")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrInvalidShares    = errors.New("invalid_shares")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrInvalidMaturity  = errors.New("invalid_maturity")
	ErrNotFound         = errors.New("not_found")
	ErrMemberNotFound   = errors.New("member_not_found")
)
