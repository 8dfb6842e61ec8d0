package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/shopspring/decimal"
)

// AuditRow compares one event's generated allocation against the settlement
// statement figures uploaded onto the event.
type AuditRow struct {
	EventID     snowflake.ID          `json:"event_id"`
	EventName   string                `json:"event_name"`
	EventType   eventdomain.EventType `json:"event_type"`
	PaymentDate time.Time             `json:"payment_date"`

	CalculatedNetMaturity decimal.Decimal `json:"calculated_net_maturity"`
	ExpectedNetMaturity   decimal.Decimal `json:"expected_net_maturity"`
	MaturityDifference    decimal.Decimal `json:"maturity_difference"`

	CalculatedNetCoupon decimal.Decimal `json:"calculated_net_coupon"`
	ExpectedNetCoupon   decimal.Decimal `json:"expected_net_coupon"`
	CouponDifference    decimal.Decimal `json:"coupon_difference"`

	AllocationCount int64 `json:"allocation_count"`
	HasDiscrepancy  bool  `json:"has_discrepancy"`
}

// GrandTotal aggregates every row of a report.
type GrandTotal struct {
	CalculatedNetMaturity decimal.Decimal `json:"calculated_net_maturity"`
	ExpectedNetMaturity   decimal.Decimal `json:"expected_net_maturity"`
	MaturityDifference    decimal.Decimal `json:"maturity_difference"`

	CalculatedNetCoupon decimal.Decimal `json:"calculated_net_coupon"`
	ExpectedNetCoupon   decimal.Decimal `json:"expected_net_coupon"`
	CouponDifference    decimal.Decimal `json:"coupon_difference"`

	EventsWithDiscrepancy int `json:"events_with_discrepancy"`
}

type AuditReport struct {
	Rows  []AuditRow `json:"rows"`
	Total GrandTotal `json:"total"`
}
