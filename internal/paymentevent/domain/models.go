package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTypeDiscountMaturity EventType = "discount_maturity"
	EventTypeCouponSemiAnnual EventType = "coupon_semi_annual"
)

func (t EventType) Valid() bool {
	return t == EventTypeDiscountMaturity || t == EventTypeCouponSemiAnnual
}

// PaymentEvent is a scheduled computation trigger tied to a bond issue.
//
// The rate fields are per-event overrides of the issue configuration; an
// absent or zero override falls back to the issue's rate, matching how the
// treasury left blanks in the legacy sheets. BaseRate overrides the
// discount rate on maturity events and the annual coupon rate on coupon
// events, as a fraction. The fee/tax overrides are percentages.
//
// AwardAmount is the total pool distributed pro rata on maturity events.
// The expected totals are populated externally from the settlement
// statement and are read only by the reconciliation report.
type PaymentEvent struct {
	ID                snowflake.ID        `gorm:"primaryKey" json:"id"`
	BondID            snowflake.ID        `gorm:"not null;index" json:"bond_id"`
	EventType         EventType           `gorm:"not null" json:"event_type"`
	EventName         string              `gorm:"not null" json:"event_name"`
	PaymentDate       time.Time           `gorm:"type:date;not null;index" json:"payment_date"`
	CalculationPeriod string              `json:"calculation_period,omitempty"`
	BaseRate          decimal.NullDecimal `gorm:"type:numeric(8,5)" json:"base_rate,omitempty"`
	WithholdingTax    decimal.NullDecimal `gorm:"column:withholding_tax_rate;type:numeric(8,5)" json:"withholding_tax_rate,omitempty"`
	AuthorityFeeRate  decimal.NullDecimal `gorm:"type:numeric(8,5)" json:"authority_fee_rate,omitempty"`
	CoopFeeRate       decimal.NullDecimal `gorm:"type:numeric(8,5)" json:"coop_fee_rate,omitempty"`
	AwardAmount       decimal.Decimal     `gorm:"type:numeric(15,2);not null;default:0" json:"award_amount"`

	ExpectedNetMaturityTotal decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"expected_net_maturity_total"`
	ExpectedNetCouponTotal   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"expected_net_coupon_total"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PaymentEvent) TableName() string { return "payment_events" }

// MemberPayment is one allocation record per (member, event). Both the
// maturity-side and the coupon-side fields are present on every record,
// zeroed for the non-applicable event kind, so the shape stays uniform for
// audit and export. Rows are immutable once written; changes happen only by
// recalculating the whole event.
type MemberPayment struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	PaymentEventID snowflake.ID `gorm:"not null;uniqueIndex:uk_event_member" json:"payment_event_id"`
	MemberID       snowflake.ID `gorm:"not null;uniqueIndex:uk_event_member;index" json:"member_id"`
	BondID         snowflake.ID `gorm:"not null;index" json:"bond_id"`

	BondShares      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"bond_shares"`
	PercentageShare decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"percentage_share"`
	MemberFaceValue decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"member_face_value"`
	AwardShare      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"award_share"`

	// Maturity side.
	DiscountBase     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"discount_base"`
	CoopDiscountFee  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"coop_discount_fee"`
	NetDiscountValue decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"net_discount_value"`

	// Coupon side (gross is shared: maturity coupon or period coupon).
	GrossCoupon       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"gross_coupon"`
	WithholdingTax    decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"withholding_tax"`
	AuthorityFee      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"authority_fee"`
	CoopFeeOnCoupon   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"coop_fee_on_coupon"`
	NetMaturityCoupon decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"net_maturity_coupon"`
	NetCouponPayment  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"net_coupon_payment"`

	CalculationPeriod string    `json:"calculation_period,omitempty"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MemberPayment) TableName() string { return "member_payments" }
