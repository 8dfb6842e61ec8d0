package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// BondIssue is a fixed-rate batch of bonds held by the cooperative.
//
// CouponRate and DiscountRate are stored as fractions (0.1850 for 18.50%).
// The fee and tax rates are stored as percentages (15 for 15%), matching how
// the treasury enters them; calculations divide by 100. Rate fields may be
// overridden per payment event, everything else is immutable once events
// reference the issue.
type BondIssue struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	IssueName          string          `gorm:"not null" json:"issue_name"`
	Issuer             string          `gorm:"not null" json:"issuer"`
	CouponRate         decimal.Decimal `gorm:"type:numeric(8,5);not null" json:"coupon_rate"`
	DiscountRate       decimal.Decimal `gorm:"type:numeric(8,5);not null" json:"discount_rate"`
	WithholdingTaxRate decimal.Decimal `gorm:"type:numeric(8,5);not null" json:"withholding_tax_rate"`
	AuthorityFeeRate   decimal.Decimal `gorm:"type:numeric(8,5);not null" json:"authority_fee_rate"`
	CoopFeeRate        decimal.Decimal `gorm:"type:numeric(8,5);not null" json:"coop_fee_rate"`
	IssueDate          time.Time       `gorm:"type:date;not null" json:"issue_date"`
	MaturityDate       time.Time       `gorm:"type:date;not null" json:"maturity_date"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (BondIssue) TableName() string { return "bond_issues" }

// MemberHolding is a dated snapshot of one member's stake in a bond issue.
// Multiple snapshots per (member, issue) may exist over time; allocation
// uses the most recent snapshot at or before an event's payment date.
type MemberHolding struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	BondID     snowflake.ID    `gorm:"not null;index:idx_holdings_bond_asof" json:"bond_id"`
	MemberID   snowflake.ID    `gorm:"not null;index" json:"member_id"`
	BondShares decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"bond_shares"`
	FaceValue  decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"face_value"`
	AsOfDate   time.Time       `gorm:"type:date;not null;index:idx_holdings_bond_asof" json:"as_of_date"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MemberHolding) TableName() string { return "member_holdings" }

type PurchaseStatus string

const (
	PurchaseStatusActive    PurchaseStatus = "active"
	PurchaseStatusMatured   PurchaseStatus = "matured"
	PurchaseStatusRedeemed  PurchaseStatus = "redeemed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// BondPurchase records one member purchase with its full economics breakdown.
// All monetary fields are derived by the purchase calculator at insert time.
type BondPurchase struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	MemberID         snowflake.ID    `gorm:"not null;index" json:"member_id"`
	BondID           snowflake.ID    `gorm:"not null;index" json:"bond_id"`
	PurchaseDate     time.Time       `gorm:"type:date;not null;index" json:"purchase_date"`
	PurchaseMonth    time.Time       `gorm:"type:date;not null" json:"purchase_month"`
	BondShares       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"bond_shares"`
	FaceValue        decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"face_value"`
	DiscountValue    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"discount_value"`
	CoopDiscountFee  decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"coop_discount_fee"`
	NetDiscountValue decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"net_discount_value"`
	PurchasePrice    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"purchase_price"`
	MaturityYears    int             `gorm:"not null" json:"maturity_years"`
	MaturityDate     time.Time       `gorm:"type:date;not null;index" json:"maturity_date"`
	Status           PurchaseStatus  `gorm:"not null;default:active" json:"status"`
	TransactionRef   string          `gorm:"uniqueIndex" json:"transaction_ref"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (BondPurchase) TableName() string { return "bond_purchases" }
