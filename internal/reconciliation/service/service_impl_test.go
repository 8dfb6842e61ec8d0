package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	eventrepository "github.com/coopworks/bondledger/internal/paymentevent/repository"
	"github.com/coopworks/bondledger/internal/reconciliation/domain"
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

func setup(t *testing.T) (*gorm.DB, *snowflake.Node, domain.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&eventdomain.PaymentEvent{}, &eventdomain.MemberPayment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Events: eventrepository.Provide(),
	})
	return db, node, svc
}

func seedEvent(t *testing.T, db *gorm.DB, node *snowflake.Node, kind eventdomain.EventType, expectedMaturity, expectedCoupon string) eventdomain.PaymentEvent {
	t.Helper()

	event := eventdomain.PaymentEvent{
		ID:                       node.Generate(),
		BondID:                   node.Generate(),
		EventType:                kind,
		EventName:                "audit target",
		PaymentDate:              time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		ExpectedNetMaturityTotal: dec(expectedMaturity),
		ExpectedNetCouponTotal:   dec(expectedCoupon),
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func seedPayment(t *testing.T, db *gorm.DB, node *snowflake.Node, eventID snowflake.ID, netMaturity, netCoupon string) {
	t.Helper()

	require.NoError(t, db.Create(&eventdomain.MemberPayment{
		ID:                node.Generate(),
		PaymentEventID:    eventID,
		MemberID:          node.Generate(),
		BondID:            node.Generate(),
		BondShares:        dec("1000"),
		PercentageShare:   dec("50.00"),
		MemberFaceValue:   dec("1000"),
		NetMaturityCoupon: dec(netMaturity),
		NetCouponPayment:  dec(netCoupon),
	}).Error)
}

func TestReport_MatchingTotalsWithinTolerance(t *testing.T) {
	db, node, svc := setup(t)

	event := seedEvent(t, db, node, eventdomain.EventTypeCouponSemiAnnual, "0", "1517.00")
	seedPayment(t, db, node, event.ID, "0", "758.50")
	seedPayment(t, db, node, event.ID, "0", "758.51")

	report, err := svc.Report(context.Background(), domain.ReportRequest{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.True(t, row.CalculatedNetCoupon.Equal(dec("1517.01")), row.CalculatedNetCoupon.String())
	assert.True(t, row.CouponDifference.Equal(dec("0.01")))
	assert.False(t, row.HasDiscrepancy)
	assert.EqualValues(t, 2, row.AllocationCount)
	assert.Equal(t, 0, report.Total.EventsWithDiscrepancy)
}

func TestReport_FlagsDiscrepancyBeyondTolerance(t *testing.T) {
	db, node, svc := setup(t)

	event := seedEvent(t, db, node, eventdomain.EventTypeDiscountMaturity, "900.00", "0")
	seedPayment(t, db, node, event.ID, "840.00", "0")

	report, err := svc.Report(context.Background(), domain.ReportRequest{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.True(t, row.MaturityDifference.Equal(dec("-60.00")))
	assert.True(t, row.HasDiscrepancy)
	assert.Equal(t, 1, report.Total.EventsWithDiscrepancy)
}

func TestReport_EventWithoutAllocationComparesAgainstZero(t *testing.T) {
	db, node, svc := setup(t)

	seedEvent(t, db, node, eventdomain.EventTypeCouponSemiAnnual, "0", "500.00")

	report, err := svc.Report(context.Background(), domain.ReportRequest{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.True(t, row.CalculatedNetCoupon.IsZero())
	assert.True(t, row.CouponDifference.Equal(dec("-500.00")))
	assert.True(t, row.HasDiscrepancy)
	assert.EqualValues(t, 0, row.AllocationCount)
}

func TestReport_GrandTotalSpansEvents(t *testing.T) {
	db, node, svc := setup(t)

	first := seedEvent(t, db, node, eventdomain.EventTypeCouponSemiAnnual, "0", "758.50")
	seedPayment(t, db, node, first.ID, "0", "758.50")

	second := seedEvent(t, db, node, eventdomain.EventTypeDiscountMaturity, "840.00", "0")
	seedPayment(t, db, node, second.ID, "840.00", "0")

	report, err := svc.Report(context.Background(), domain.ReportRequest{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	assert.True(t, report.Total.CalculatedNetCoupon.Equal(dec("758.50")))
	assert.True(t, report.Total.CalculatedNetMaturity.Equal(dec("840.00")))
	assert.True(t, report.Total.CouponDifference.IsZero())
	assert.True(t, report.Total.MaturityDifference.IsZero())
	assert.Equal(t, 0, report.Total.EventsWithDiscrepancy)
}
