// Package calc reproduces the spreadsheet arithmetic the cooperative used
// before this system. Every derived figure is rounded at the point it is
// produced (see pkg/money); the numbers must match the legacy books
// bit-for-bit.
package calc

import (
	"errors"
	"time"

	"github.com/coopworks/bondledger/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidShares = errors.New("invalid_shares")

	// DefaultDiscountRate applies when a purchase carries no explicit rate.
	DefaultDiscountRate = decimal.RequireFromString("0.10")

	unitValue = decimal.NewFromInt(1)

	discountFeeRate = decimal.RequireFromString("0.02")
	couponWHTRate   = decimal.RequireFromString("0.15")
	authorityRate   = decimal.RequireFromString("0.01")
	coopRate        = decimal.RequireFromString("0.02")
)

// PurchaseEconomics is the complete breakdown of a bond purchase.
type PurchaseEconomics struct {
	FaceValue        decimal.Decimal `json:"face_value"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	CoopDiscountFee  decimal.Decimal `json:"coop_discount_fee"`
	NetDiscountValue decimal.Decimal `json:"net_discount_value"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	MaturityDate     time.Time       `json:"maturity_date"`
}

// PurchaseBreakdown derives the economics of a single purchase.
//
//	faceValue     = round(shares x 1)
//	discountValue = round(faceValue x discountRate)
//	coopFee       = round(discountValue x 2%)
//	purchasePrice = faceValue - discountValue
//
// A zero discountRate falls back to DefaultDiscountRate.
func PurchaseBreakdown(shares decimal.Decimal, purchaseDate time.Time, maturityYears int, discountRate decimal.Decimal) (PurchaseEconomics, error) {
	if !shares.IsPositive() {
		return PurchaseEconomics{}, ErrInvalidShares
	}
	if discountRate.IsZero() {
		discountRate = DefaultDiscountRate
	}

	faceValue := money.Round(shares.Mul(unitValue))
	discountValue := money.Round(faceValue.Mul(discountRate))
	coopDiscountFee := money.Round(discountValue.Mul(discountFeeRate))

	return PurchaseEconomics{
		FaceValue:        faceValue,
		DiscountValue:    discountValue,
		CoopDiscountFee:  coopDiscountFee,
		NetDiscountValue: discountValue.Sub(coopDiscountFee),
		PurchasePrice:    faceValue.Sub(discountValue),
		MaturityDate:     MaturityDate(purchaseDate, maturityYears),
	}, nil
}

// MaturityDate uses a fixed 365-day year, not calendar-year addition. The
// legacy books diverge across leap years if the calendar rule is used; the
// fixed rule is the canonical one here.
func MaturityDate(purchaseDate time.Time, maturityYears int) time.Time {
	return purchaseDate.AddDate(0, 0, 365*maturityYears)
}

// CalendarDays counts whole days between two dates.
func CalendarDays(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// CouponBreakdown is a calendar-period coupon with its deduction waterfall.
type CouponBreakdown struct {
	GrossCoupon    decimal.Decimal `json:"gross_coupon"`
	WithholdingTax decimal.Decimal `json:"withholding_tax"`
	AuthorityFee   decimal.Decimal `json:"authority_fee"`
	CoopFee        decimal.Decimal `json:"coop_fee"`
	NetPayment     decimal.Decimal `json:"net_payment"`
}

// CouponPayment derives a calendar-period coupon from a face value, an
// already-rounded daily rate, and a day count. Deductions apply sequentially
// to the gross, each independently rounded; the cooperative fee is 2% of the
// gross net of withholding tax and authority fee. Callers skip non-positive
// day counts; a zero or negative count yields a zero breakdown, not an error.
func CouponPayment(faceValue, dailyRate decimal.Decimal, calendarDays int) CouponBreakdown {
	if calendarDays <= 0 {
		return CouponBreakdown{
			GrossCoupon:    decimal.Zero,
			WithholdingTax: decimal.Zero,
			AuthorityFee:   decimal.Zero,
			CoopFee:        decimal.Zero,
			NetPayment:     decimal.Zero,
		}
	}

	gross := money.Round(faceValue.Mul(dailyRate).Mul(decimal.NewFromInt(int64(calendarDays))))
	wht := money.Round(gross.Mul(couponWHTRate))
	authorityFee := money.Round(gross.Mul(authorityRate))
	coopFee := money.Round(gross.Sub(wht).Sub(authorityFee).Mul(coopRate))

	return CouponBreakdown{
		GrossCoupon:    gross,
		WithholdingTax: wht,
		AuthorityFee:   authorityFee,
		CoopFee:        coopFee,
		NetPayment:     gross.Sub(wht).Sub(authorityFee).Sub(coopFee),
	}
}
