package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	memberdomain "github.com/coopworks/bondledger/internal/member/domain"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/coopworks/bondledger/internal/providers/pdf"
	"github.com/coopworks/bondledger/internal/voucher/domain"
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

func newService(t *testing.T) (*gorm.DB, *snowflake.Node, domain.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Member{},
		&bonddomain.BondIssue{},
		&eventdomain.PaymentEvent{},
		&eventdomain.MemberPayment{},
		&domain.Voucher{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		PDF:   pdf.NewProvider(),
	})
	return db, node, svc
}

func seedPayment(t *testing.T, db *gorm.DB, node *snowflake.Node) eventdomain.MemberPayment {
	t.Helper()

	member := memberdomain.Member{
		ID:         node.Generate(),
		MemberCode: "M-0001",
		FirstName:  "Ama",
		LastName:   "Mensah",
		Email:      "ama@example.com",
		Status:     memberdomain.MemberStatusActive,
	}
	require.NoError(t, db.Create(&member).Error)

	issue := bonddomain.BondIssue{
		ID:           node.Generate(),
		IssueName:    "GOV-2024-A",
		CouponRate:   dec("0.1850"),
		DiscountRate: dec("0.10"),
		IssueDate:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&issue).Error)

	event := eventdomain.PaymentEvent{
		ID:          node.Generate(),
		BondID:      issue.ID,
		EventType:   eventdomain.EventTypeCouponSemiAnnual,
		EventName:   "H1 2024 Coupon",
		PaymentDate: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&event).Error)

	payment := eventdomain.MemberPayment{
		ID:               node.Generate(),
		PaymentEventID:   event.ID,
		MemberID:         member.ID,
		BondID:           issue.ID,
		BondShares:       dec("10000"),
		PercentageShare:  dec("100.00"),
		MemberFaceValue:  dec("10000"),
		GrossCoupon:      dec("925.00"),
		WithholdingTax:   dec("138.75"),
		AuthorityFee:     dec("9.25"),
		CoopFeeOnCoupon:  dec("18.50"),
		NetCouponPayment: dec("758.50"),
	}
	require.NoError(t, db.Create(&payment).Error)
	return payment
}

func TestIssue_CreatesVoucherOnce(t *testing.T) {
	db, node, svc := newService(t)
	payment := seedPayment(t, db, node)
	ctx := context.Background()

	voucher, err := svc.Issue(ctx, domain.IssueRequest{MemberPaymentID: payment.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherStatusIssued, voucher.Status)
	assert.True(t, voucher.NetAmount.Equal(dec("758.50")))
	assert.Contains(t, voucher.VoucherNumber, "PV-")

	again, err := svc.Issue(ctx, domain.IssueRequest{MemberPaymentID: payment.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, voucher.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&domain.Voucher{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestIssue_UnknownPayment(t *testing.T) {
	_, node, svc := newService(t)

	_, err := svc.Issue(context.Background(), domain.IssueRequest{MemberPaymentID: node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestRenderPDF_ProducesDocument(t *testing.T) {
	db, node, svc := newService(t)
	payment := seedPayment(t, db, node)
	ctx := context.Background()

	voucher, err := svc.Issue(ctx, domain.IssueRequest{MemberPaymentID: payment.ID.String()})
	require.NoError(t, err)

	reader, err := svc.RenderPDF(ctx, voucher.ID.String())
	require.NoError(t, err)
	require.NotNil(t, reader)
}

func TestRenderPDF_RejectsVoidedVoucher(t *testing.T) {
	db, node, svc := newService(t)
	payment := seedPayment(t, db, node)
	ctx := context.Background()

	voucher, err := svc.Issue(ctx, domain.IssueRequest{MemberPaymentID: payment.ID.String()})
	require.NoError(t, err)

	voided, err := svc.Void(ctx, voucher.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherStatusVoided, voided.Status)

	_, err = svc.RenderPDF(ctx, voucher.ID.String())
	assert.ErrorIs(t, err, domain.ErrVoucherVoided)
}
