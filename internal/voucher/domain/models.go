package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type VoucherStatus string

const (
	VoucherStatusIssued VoucherStatus = "issued"
	VoucherStatusVoided VoucherStatus = "voided"
)

// Voucher is the printable proof of one member payment. At most one voucher
// exists per allocation row; reissuing returns the existing record.
type Voucher struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	VoucherNumber   string          `gorm:"not null;uniqueIndex" json:"voucher_number"`
	MemberPaymentID snowflake.ID    `gorm:"not null;uniqueIndex" json:"member_payment_id"`
	MemberID        snowflake.ID    `gorm:"not null;index" json:"member_id"`
	PaymentEventID  snowflake.ID    `gorm:"not null;index" json:"payment_event_id"`
	NetAmount       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"net_amount"`
	Status          VoucherStatus   `gorm:"not null;default:issued" json:"status"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Voucher) TableName() string { return "payment_vouchers" }
