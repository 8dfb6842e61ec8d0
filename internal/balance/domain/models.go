package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MemberBalance is the monthly position of one member in one bond issue.
// One logical row exists per (member, bond, month) no matter how many times
// the rollup runs; reruns overwrite in place.
//
// Closing balance tracks invested principal only. Payments received are
// principal-independent cash flows and never reduce the closing balance.
type MemberBalance struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	MemberID snowflake.ID `gorm:"not null;uniqueIndex:uk_member_bond_month" json:"member_id"`
	BondID   snowflake.ID `gorm:"not null;uniqueIndex:uk_member_bond_month" json:"bond_id"`
	Month    time.Time    `gorm:"type:date;not null;uniqueIndex:uk_member_bond_month" json:"month"`

	BondShares      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"bond_shares"`
	TotalFaceValue  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_face_value"`
	PercentageShare decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0" json:"percentage_share"`

	OpeningBalance     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"opening_balance"`
	PurchasesThisMonth decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"purchases_this_month"`
	PaymentsReceived   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"payments_received"`
	ClosingBalance     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"closing_balance"`

	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MemberBalance) TableName() string { return "member_balances" }

// MonthlySummary is the cooperative-wide rollup for one month.
type MonthlySummary struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	Month time.Time    `gorm:"type:date;not null;uniqueIndex" json:"month"`

	TotalShares         decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_shares"`
	TotalFaceValue      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_face_value"`
	TotalPurchases      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_purchases"`
	TotalGrossCoupons   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_gross_coupons"`
	TotalWithholdingTax decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_withholding_tax"`
	TotalAuthorityFees  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_authority_fees"`
	TotalNetPayments    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_net_payments"`
	// CoopIncome is the cooperative's own take for the month: discount fees
	// on purchases plus service fees withheld from event payouts.
	CoopIncome decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"coop_income"`

	MemberCount        int64 `gorm:"not null;default:0" json:"member_count"`
	PurchaseCount      int64 `gorm:"not null;default:0" json:"purchase_count"`
	MaturityEventCount int64 `gorm:"not null;default:0" json:"maturity_event_count"`

	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MonthlySummary) TableName() string { return "monthly_summaries" }
