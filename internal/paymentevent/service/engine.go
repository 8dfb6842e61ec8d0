package service

import (
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/coopworks/bondledger/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	oneHundred = decimal.NewFromInt(100)
	two        = decimal.NewFromInt(2)
)

// ComputeAllocations derives one payment record per member holding. It is a
// pure function of its inputs: given the same issue, event and snapshots it
// emits identical records (IDs and timestamps are assigned at persist time,
// not here), which is what makes recalculation reproducible.
//
// Snapshots may contain multiple rows per member; the engine keeps only the
// latest at-or-before row per member. A zero total share count yields an
// empty allocation, not an error.
func ComputeAllocations(issue bonddomain.BondIssue, event domain.PaymentEvent, snapshots []*bonddomain.MemberHolding) []domain.MemberPayment {
	holdings := bonddomain.LatestPerMember(snapshots)

	totalShares := decimal.Zero
	for _, h := range holdings {
		totalShares = totalShares.Add(h.BondShares)
	}
	if totalShares.IsZero() {
		return []domain.MemberPayment{}
	}

	whtRate := money.Percent(effectiveRate(event.WithholdingTax, issue.WithholdingTaxRate))
	authorityRate := money.Percent(effectiveRate(event.AuthorityFeeRate, issue.AuthorityFeeRate))
	coopRate := money.Percent(effectiveRate(event.CoopFeeRate, issue.CoopFeeRate))

	payments := make([]domain.MemberPayment, 0, len(holdings))
	for _, h := range holdings {
		ratio := h.BondShares.Div(totalShares)

		p := domain.MemberPayment{
			PaymentEventID:    event.ID,
			MemberID:          h.MemberID,
			BondID:            event.BondID,
			BondShares:        h.BondShares,
			PercentageShare:   money.Round(ratio.Mul(oneHundred)),
			MemberFaceValue:   h.FaceValue,
			CalculationPeriod: event.CalculationPeriod,
		}

		switch event.EventType {
		case domain.EventTypeDiscountMaturity:
			discountRate := effectiveRate(event.BaseRate, issue.DiscountRate)

			p.AwardShare = money.Round(ratio.Mul(event.AwardAmount))
			p.DiscountBase = money.Round(h.FaceValue.Sub(p.AwardShare))
			p.CoopDiscountFee = money.Round(p.DiscountBase.Mul(coopRate))
			p.NetDiscountValue = money.Round(p.DiscountBase.Sub(p.CoopDiscountFee))

			p.GrossCoupon = money.Round(h.FaceValue.Mul(discountRate))
			p.WithholdingTax = money.Round(p.GrossCoupon.Mul(whtRate))
			p.AuthorityFee = money.Round(p.GrossCoupon.Mul(authorityRate))
			p.NetMaturityCoupon = p.GrossCoupon.Sub(p.WithholdingTax).Sub(p.AuthorityFee)

		case domain.EventTypeCouponSemiAnnual:
			annualRate := effectiveRate(event.BaseRate, issue.CouponRate)

			p.GrossCoupon = money.Round(h.FaceValue.Mul(annualRate.Div(two)))
			p.WithholdingTax = money.Round(p.GrossCoupon.Mul(whtRate))
			p.AuthorityFee = money.Round(p.GrossCoupon.Mul(authorityRate))
			p.CoopFeeOnCoupon = money.Round(p.GrossCoupon.Mul(coopRate))
			p.NetCouponPayment = p.GrossCoupon.Sub(p.WithholdingTax).Sub(p.AuthorityFee).Sub(p.CoopFeeOnCoupon)
		}

		payments = append(payments, p)
	}

	return payments
}

// effectiveRate resolves a per-event override against the issue default. A
// null or zero override means "use the issue rate", mirroring how blank
// cells behaved in the legacy sheets.
func effectiveRate(override decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if override.Valid && !override.Decimal.IsZero() {
		return override.Decimal
	}
	return fallback
}
