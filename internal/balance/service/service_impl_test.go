package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/balance/domain"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	bondrepository "github.com/coopworks/bondledger/internal/bond/repository"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type fixture struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&bonddomain.BondIssue{},
		&bonddomain.MemberHolding{},
		&bonddomain.BondPurchase{},
		&eventdomain.PaymentEvent{},
		&eventdomain.MemberPayment{},
		&domain.MemberBalance{},
		&domain.MonthlySummary{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Bonds: bondrepository.Provide(),
	})
	return &fixture{db: db, node: node, svc: svc}
}

func (f *fixture) seedIssue(t *testing.T) bonddomain.BondIssue {
	t.Helper()

	issue := bonddomain.BondIssue{
		ID:           f.node.Generate(),
		IssueName:    "GOV-2024-A",
		CouponRate:   dec("0.1850"),
		DiscountRate: dec("0.10"),
		IssueDate:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&issue).Error)
	return issue
}

func (f *fixture) seedHolding(t *testing.T, bondID, memberID snowflake.ID, shares string, asOf time.Time) {
	t.Helper()

	require.NoError(t, f.db.Create(&bonddomain.MemberHolding{
		ID:         f.node.Generate(),
		BondID:     bondID,
		MemberID:   memberID,
		BondShares: dec(shares),
		FaceValue:  dec(shares),
		AsOfDate:   asOf,
	}).Error)
}

func (f *fixture) seedPurchase(t *testing.T, bondID, memberID snowflake.ID, price, coopFee string, date time.Time) {
	t.Helper()

	require.NoError(t, f.db.Create(&bonddomain.BondPurchase{
		ID:              f.node.Generate(),
		MemberID:        memberID,
		BondID:          bondID,
		PurchaseDate:    date,
		PurchaseMonth:   time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC),
		BondShares:      dec("1000"),
		FaceValue:       dec("1000"),
		PurchasePrice:   dec(price),
		CoopDiscountFee: dec(coopFee),
		MaturityYears:   2,
		MaturityDate:    date.AddDate(0, 0, 730),
		Status:          bonddomain.PurchaseStatusActive,
		TransactionRef:  "TXN-" + f.node.Generate().String(),
	}).Error)
}

func (f *fixture) seedPayment(t *testing.T, bondID, memberID snowflake.ID, paymentDate time.Time, net string) {
	t.Helper()

	event := eventdomain.PaymentEvent{
		ID:          f.node.Generate(),
		BondID:      bondID,
		EventType:   eventdomain.EventTypeCouponSemiAnnual,
		EventName:   "coupon",
		PaymentDate: paymentDate,
	}
	require.NoError(t, f.db.Create(&event).Error)
	require.NoError(t, f.db.Create(&eventdomain.MemberPayment{
		ID:               f.node.Generate(),
		PaymentEventID:   event.ID,
		MemberID:         memberID,
		BondID:           bondID,
		BondShares:       dec("1000"),
		PercentageShare:  dec("100.00"),
		MemberFaceValue:  dec("1000"),
		GrossCoupon:      dec("925.00"),
		WithholdingTax:   dec("138.75"),
		AuthorityFee:     dec("9.25"),
		CoopFeeOnCoupon:  dec("18.50"),
		NetCouponPayment: dec(net),
	}).Error)
}

func TestRollupMonth_ComputesBalances(t *testing.T) {
	f := newFixture(t)
	issue := f.seedIssue(t)
	ctx := context.Background()

	month := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	memberA := f.node.Generate()
	memberB := f.node.Generate()

	f.seedHolding(t, issue.ID, memberA, "6000", month)
	f.seedHolding(t, issue.ID, memberB, "4000", month)
	f.seedPurchase(t, issue.ID, memberA, "900.00", "20.00", month.AddDate(0, 0, 10))
	f.seedPayment(t, issue.ID, memberA, month.AddDate(0, 0, 15), "758.50")

	result, err := f.svc.RollupMonth(ctx, domain.RollupRequest{Month: month.AddDate(0, 0, 20)})
	require.NoError(t, err)
	require.Len(t, result.Balances, 2)

	byMember := map[snowflake.ID]domain.MemberBalance{}
	for _, b := range result.Balances {
		byMember[b.MemberID] = b
	}

	a := byMember[memberA]
	assert.True(t, a.OpeningBalance.IsZero())
	assert.True(t, a.PurchasesThisMonth.Equal(dec("900.00")))
	assert.True(t, a.PaymentsReceived.Equal(dec("758.50")))
	// Payments never reduce the closing balance.
	assert.True(t, a.ClosingBalance.Equal(dec("900.00")))
	assert.True(t, a.PercentageShare.Equal(dec("60.00")), a.PercentageShare.String())

	b := byMember[memberB]
	assert.True(t, b.PurchasesThisMonth.IsZero())
	assert.True(t, b.ClosingBalance.IsZero())
	assert.True(t, b.PercentageShare.Equal(dec("40.00")))
}

func TestRollupMonth_UpsertKeepsOneRowPerKey(t *testing.T) {
	f := newFixture(t)
	issue := f.seedIssue(t)
	ctx := context.Background()

	month := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	member := f.node.Generate()
	f.seedHolding(t, issue.ID, member, "5000", month)

	_, err := f.svc.RollupMonth(ctx, domain.RollupRequest{Month: month})
	require.NoError(t, err)
	_, err = f.svc.RollupMonth(ctx, domain.RollupRequest{Month: month})
	require.NoError(t, err)

	var balanceCount, summaryCount int64
	require.NoError(t, f.db.Model(&domain.MemberBalance{}).Count(&balanceCount).Error)
	require.NoError(t, f.db.Model(&domain.MonthlySummary{}).Count(&summaryCount).Error)
	assert.EqualValues(t, 1, balanceCount)
	assert.EqualValues(t, 1, summaryCount)
}

func TestRollupMonth_OpeningCarriesPriorClosing(t *testing.T) {
	f := newFixture(t)
	issue := f.seedIssue(t)
	ctx := context.Background()

	may := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	member := f.node.Generate()
	f.seedHolding(t, issue.ID, member, "1000", may)
	f.seedPurchase(t, issue.ID, member, "900.00", "20.00", may.AddDate(0, 0, 5))

	_, err := f.svc.RollupMonth(ctx, domain.RollupRequest{Month: may})
	require.NoError(t, err)

	// July: no purchases, gap over June. Closing carries forward.
	july := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	result, err := f.svc.RollupMonth(ctx, domain.RollupRequest{Month: july})
	require.NoError(t, err)
	require.Len(t, result.Balances, 1)

	assert.True(t, result.Balances[0].OpeningBalance.Equal(dec("900.00")))
	assert.True(t, result.Balances[0].PurchasesThisMonth.IsZero())
	assert.True(t, result.Balances[0].ClosingBalance.Equal(dec("900.00")))
}

func TestRollupMonth_SkipsZeroRows(t *testing.T) {
	f := newFixture(t)
	issue := f.seedIssue(t)
	ctx := context.Background()

	month := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	f.seedHolding(t, issue.ID, f.node.Generate(), "0", month)

	result, err := f.svc.RollupMonth(ctx, domain.RollupRequest{Month: month})
	require.NoError(t, err)
	assert.Empty(t, result.Balances)

	var count int64
	require.NoError(t, f.db.Model(&domain.MemberBalance{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRollupMonth_SummaryTotals(t *testing.T) {
	f := newFixture(t)
	issue := f.seedIssue(t)
	ctx := context.Background()

	month := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	member := f.node.Generate()
	f.seedHolding(t, issue.ID, member, "10000", month)
	f.seedPurchase(t, issue.ID, member, "900.00", "20.00", month.AddDate(0, 0, 3))
	f.seedPayment(t, issue.ID, member, month.AddDate(0, 0, 10), "758.50")

	result, err := f.svc.RollupMonth(ctx, domain.RollupRequest{Month: month})
	require.NoError(t, err)

	s := result.Summary
	assert.True(t, s.TotalShares.Equal(dec("10000")))
	assert.True(t, s.TotalPurchases.Equal(dec("900.00")))
	assert.True(t, s.TotalGrossCoupons.Equal(dec("925.00")))
	assert.True(t, s.TotalWithholdingTax.Equal(dec("138.75")))
	assert.True(t, s.TotalAuthorityFees.Equal(dec("9.25")))
	assert.True(t, s.TotalNetPayments.Equal(dec("758.50")))
	// Purchase discount fee plus coupon service fee.
	assert.True(t, s.CoopIncome.Equal(dec("38.50")), s.CoopIncome.String())
	assert.EqualValues(t, 1, s.MemberCount)
	assert.EqualValues(t, 1, s.PurchaseCount)
	assert.EqualValues(t, 0, s.MaturityEventCount)

	stored, err := f.svc.GetMonthlySummary(ctx, month)
	require.NoError(t, err)
	assert.True(t, stored.TotalNetPayments.Equal(dec("758.50")))
}

func TestGetMonthlySummary_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetMonthlySummary(context.Background(), time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
