package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func testIssue() bonddomain.BondIssue {
	return bonddomain.BondIssue{
		ID:                 1001,
		IssueName:          "GOV-2024-A",
		CouponRate:         dec("0.1850"),
		DiscountRate:       dec("0.10"),
		WithholdingTaxRate: dec("15"),
		AuthorityFeeRate:   dec("1"),
		CoopFeeRate:        dec("2"),
	}
}

func holding(memberID snowflake.ID, shares, face string, asOf time.Time) *bonddomain.MemberHolding {
	return &bonddomain.MemberHolding{
		ID:         1,
		BondID:     1001,
		MemberID:   memberID,
		BondShares: dec(shares),
		FaceValue:  dec(face),
		AsOfDate:   asOf,
	}
}

func TestComputeAllocations_CouponSemiAnnual(t *testing.T) {
	issue := testIssue()
	event := domain.PaymentEvent{
		ID:          2001,
		BondID:      issue.ID,
		EventType:   domain.EventTypeCouponSemiAnnual,
		PaymentDate: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	asOf := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	payments := ComputeAllocations(issue, event, []*bonddomain.MemberHolding{
		holding(3001, "10000", "10000", asOf),
	})
	require.Len(t, payments, 1)

	p := payments[0]
	// 10000 x (0.1850 / 2) = 925.00, then sequential deductions.
	assert.True(t, p.GrossCoupon.Equal(dec("925.00")), p.GrossCoupon.String())
	assert.True(t, p.WithholdingTax.Equal(dec("138.75")), p.WithholdingTax.String())
	assert.True(t, p.AuthorityFee.Equal(dec("9.25")), p.AuthorityFee.String())
	assert.True(t, p.CoopFeeOnCoupon.Equal(dec("18.50")), p.CoopFeeOnCoupon.String())
	assert.True(t, p.NetCouponPayment.Equal(dec("758.50")), p.NetCouponPayment.String())
	assert.True(t, p.PercentageShare.Equal(dec("100.00")))

	// Maturity side stays zeroed on coupon events.
	assert.True(t, p.AwardShare.IsZero())
	assert.True(t, p.DiscountBase.IsZero())
	assert.True(t, p.NetDiscountValue.IsZero())
	assert.True(t, p.NetMaturityCoupon.IsZero())
}

func TestComputeAllocations_DiscountMaturity(t *testing.T) {
	issue := testIssue()
	event := domain.PaymentEvent{
		ID:          2002,
		BondID:      issue.ID,
		EventType:   domain.EventTypeDiscountMaturity,
		PaymentDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		AwardAmount: dec("500.00"),
	}
	asOf := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	payments := ComputeAllocations(issue, event, []*bonddomain.MemberHolding{
		holding(3001, "10000", "10000", asOf),
	})
	require.Len(t, payments, 1)

	p := payments[0]
	assert.True(t, p.AwardShare.Equal(dec("500.00")), p.AwardShare.String())
	assert.True(t, p.DiscountBase.Equal(dec("9500.00")), p.DiscountBase.String())
	assert.True(t, p.CoopDiscountFee.Equal(dec("190.00")), p.CoopDiscountFee.String())
	assert.True(t, p.NetDiscountValue.Equal(dec("9310.00")), p.NetDiscountValue.String())

	// Maturity coupon off the issue discount rate: 10000 x 0.10.
	assert.True(t, p.GrossCoupon.Equal(dec("1000.00")), p.GrossCoupon.String())
	assert.True(t, p.WithholdingTax.Equal(dec("150.00")))
	assert.True(t, p.AuthorityFee.Equal(dec("10.00")))
	assert.True(t, p.NetMaturityCoupon.Equal(dec("840.00")), p.NetMaturityCoupon.String())

	// Coupon-period side stays zeroed on maturity events.
	assert.True(t, p.CoopFeeOnCoupon.IsZero())
	assert.True(t, p.NetCouponPayment.IsZero())
}

func TestComputeAllocations_ZeroTotalShares(t *testing.T) {
	issue := testIssue()
	event := domain.PaymentEvent{ID: 2003, BondID: issue.ID, EventType: domain.EventTypeCouponSemiAnnual}

	payments := ComputeAllocations(issue, event, nil)
	require.NotNil(t, payments)
	assert.Empty(t, payments)

	asOf := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	payments = ComputeAllocations(issue, event, []*bonddomain.MemberHolding{
		holding(3001, "0", "0", asOf),
	})
	assert.Empty(t, payments)
}

func TestComputeAllocations_LatestSnapshotPerMember(t *testing.T) {
	issue := testIssue()
	event := domain.PaymentEvent{
		ID:          2004,
		BondID:      issue.ID,
		EventType:   domain.EventTypeCouponSemiAnnual,
		PaymentDate: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	}

	older := holding(3001, "5000", "5000", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	older.ID = 10
	newer := holding(3001, "10000", "10000", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	newer.ID = 11

	payments := ComputeAllocations(issue, event, []*bonddomain.MemberHolding{older, newer})
	require.Len(t, payments, 1)
	assert.True(t, payments[0].BondShares.Equal(dec("10000")))
	assert.True(t, payments[0].GrossCoupon.Equal(dec("925.00")))
}

func TestComputeAllocations_EventOverridesAndZeroFallback(t *testing.T) {
	issue := testIssue()
	asOf := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	snapshots := []*bonddomain.MemberHolding{holding(3001, "10000", "10000", asOf)}

	// A valid non-zero override replaces the issue coupon rate.
	event := domain.PaymentEvent{
		ID:        2005,
		BondID:    issue.ID,
		EventType: domain.EventTypeCouponSemiAnnual,
		BaseRate:  nullDec("0.2000"),
	}
	payments := ComputeAllocations(issue, event, snapshots)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].GrossCoupon.Equal(dec("1000.00")), payments[0].GrossCoupon.String())

	// A zero-valued override falls back to the issue rate.
	event.BaseRate = nullDec("0")
	payments = ComputeAllocations(issue, event, snapshots)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].GrossCoupon.Equal(dec("925.00")))

	// Fee overrides follow the same rule.
	event.BaseRate = decimal.NullDecimal{}
	event.CoopFeeRate = nullDec("3")
	payments = ComputeAllocations(issue, event, snapshots)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].CoopFeeOnCoupon.Equal(dec("27.75")), payments[0].CoopFeeOnCoupon.String())
}

func TestComputeAllocations_PercentageSumWithinTolerance(t *testing.T) {
	issue := testIssue()
	event := domain.PaymentEvent{ID: 2006, BondID: issue.ID, EventType: domain.EventTypeCouponSemiAnnual}
	asOf := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	// Three equal holdings: each rounds to 33.33, summing to 99.99.
	var snapshots []*bonddomain.MemberHolding
	for i := snowflake.ID(1); i <= 3; i++ {
		h := holding(3000+i, "1000", "1000", asOf)
		h.ID = i
		snapshots = append(snapshots, h)
	}

	payments := ComputeAllocations(issue, event, snapshots)
	require.Len(t, payments, 3)

	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.PercentageShare)
	}
	assert.True(t, sum.Equal(dec("99.99")), sum.String())

	tolerance := dec("0.005").Mul(decimal.NewFromInt(int64(len(payments))))
	assert.True(t, dec("100").Sub(sum).Abs().LessThanOrEqual(tolerance))
}

func TestComputeAllocations_Deterministic(t *testing.T) {
	issue := testIssue()
	event := domain.PaymentEvent{
		ID:          2007,
		BondID:      issue.ID,
		EventType:   domain.EventTypeDiscountMaturity,
		AwardAmount: dec("1234.56"),
	}
	asOf := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	var snapshots []*bonddomain.MemberHolding
	for i := snowflake.ID(1); i <= 5; i++ {
		h := holding(3000+i, "700", "700", asOf)
		h.ID = i
		snapshots = append(snapshots, h)
	}

	first := ComputeAllocations(issue, event, snapshots)
	second := ComputeAllocations(issue, event, snapshots)
	assert.Equal(t, first, second)
}
