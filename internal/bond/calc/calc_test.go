package calc

import (
	"testing"
	"time"

	"github.com/coopworks/bondledger/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPurchaseBreakdown(t *testing.T) {
	// 10000 shares, 10% discount, bought 2024-01-01, 2-year maturity.
	got, err := PurchaseBreakdown(dec("10000"), date(2024, time.January, 1), 2, dec("0.10"))
	require.NoError(t, err)

	assert.True(t, dec("10000.00").Equal(got.FaceValue))
	assert.True(t, dec("1000.00").Equal(got.DiscountValue))
	assert.True(t, dec("20.00").Equal(got.CoopDiscountFee))
	assert.True(t, dec("980.00").Equal(got.NetDiscountValue))
	assert.True(t, dec("9000.00").Equal(got.PurchasePrice))
	// 730 days after 2024-01-01. 2024 has 366 days, so the fixed-365 rule
	// lands one day short of the calendar anniversary.
	assert.Equal(t, date(2025, time.December, 31), got.MaturityDate)
}

func TestPurchaseBreakdown_DefaultRate(t *testing.T) {
	got, err := PurchaseBreakdown(dec("500"), date(2024, time.March, 15), 5, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(got.DiscountValue), "zero rate falls back to 10%%")
}

func TestPurchaseBreakdown_InvalidShares(t *testing.T) {
	_, err := PurchaseBreakdown(decimal.Zero, date(2024, time.January, 1), 2, dec("0.10"))
	assert.ErrorIs(t, err, ErrInvalidShares)

	_, err = PurchaseBreakdown(dec("-5"), date(2024, time.January, 1), 2, dec("0.10"))
	assert.ErrorIs(t, err, ErrInvalidShares)
}

func TestPurchaseBreakdown_PriceAndDiscountPartitionFace(t *testing.T) {
	// purchasePrice + discountValue == faceValue, exactly: both are derived
	// from the same rounded faceValue.
	for _, shares := range []string{"1", "3", "333.33", "10000", "99999.99"} {
		got, err := PurchaseBreakdown(dec(shares), date(2024, time.June, 1), 2, dec("0.205"))
		require.NoError(t, err)
		assert.True(t, got.PurchasePrice.Add(got.DiscountValue).Equal(got.FaceValue), "shares=%s", shares)
		assert.True(t, got.NetDiscountValue.LessThanOrEqual(got.DiscountValue))
		assert.True(t, got.CoopDiscountFee.Equal(got.DiscountValue.Sub(got.NetDiscountValue)))
	}
}

func TestMaturityDate_Fixed365(t *testing.T) {
	// Across a leap year the fixed rule drifts off the calendar anniversary.
	got := MaturityDate(date(2023, time.June, 15), 2)
	assert.Equal(t, date(2025, time.June, 14), got)
}

func TestCouponPayment(t *testing.T) {
	// Face 50000, annual 9.02% -> daily 0.00024712, 181 days.
	daily := money.DailyRate(dec("0.0902"))
	got := CouponPayment(dec("50000"), daily, 181)

	gross := money.Round(dec("50000").Mul(daily).Mul(dec("181")))
	assert.True(t, gross.Equal(got.GrossCoupon))
	assert.True(t, money.Round(gross.Mul(dec("0.15"))).Equal(got.WithholdingTax))
	assert.True(t, money.Round(gross.Mul(dec("0.01"))).Equal(got.AuthorityFee))

	afterWHTAndFee := gross.Sub(got.WithholdingTax).Sub(got.AuthorityFee)
	assert.True(t, money.Round(afterWHTAndFee.Mul(dec("0.02"))).Equal(got.CoopFee))
	assert.True(t, afterWHTAndFee.Sub(got.CoopFee).Equal(got.NetPayment))
}

func TestCouponPayment_NonPositiveDays(t *testing.T) {
	for _, days := range []int{0, -10} {
		got := CouponPayment(dec("50000"), dec("0.00024712"), days)
		assert.True(t, got.GrossCoupon.IsZero())
		assert.True(t, got.NetPayment.IsZero())
	}
}

func TestCalendarDays(t *testing.T) {
	assert.Equal(t, 181, CalendarDays(date(2024, time.January, 1), date(2024, time.June, 30)))
	assert.Equal(t, 0, CalendarDays(date(2024, time.January, 1), date(2024, time.January, 1)))
	assert.Equal(t, -1, CalendarDays(date(2024, time.January, 2), date(2024, time.January, 1)))
}
