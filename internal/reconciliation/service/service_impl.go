package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/coopworks/bondledger/internal/reconciliation/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// discrepancyTolerance absorbs the expected rounding residual between
// independently rounded member shares and a whole-pool settlement figure.
var discrepancyTolerance = decimal.NewFromFloat(0.01)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Events eventdomain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	events eventdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("reconciliation.service"),
		events: p.Events,
	}
}

type allocationSums struct {
	NetMaturity decimal.NullDecimal `gorm:"column:net_maturity"`
	NetCoupon   decimal.NullDecimal `gorm:"column:net_coupon"`
	Count       int64               `gorm:"column:row_count"`
}

func (s *Service) Report(ctx context.Context, req domain.ReportRequest) (domain.AuditReport, error) {
	var bondID snowflake.ID
	if strings.TrimSpace(req.BondID) != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(req.BondID))
		if err != nil || id == 0 {
			return domain.AuditReport{}, eventdomain.ErrInvalidID
		}
		bondID = id
	}

	events, err := s.events.ListEvents(ctx, s.db, bondID)
	if err != nil {
		return domain.AuditReport{}, err
	}

	report := domain.AuditReport{Rows: make([]domain.AuditRow, 0, len(events))}
	for _, event := range events {
		if event == nil {
			continue
		}

		row, err := s.auditEvent(ctx, event)
		if err != nil {
			return domain.AuditReport{}, err
		}

		report.Rows = append(report.Rows, row)
		report.Total.CalculatedNetMaturity = report.Total.CalculatedNetMaturity.Add(row.CalculatedNetMaturity)
		report.Total.ExpectedNetMaturity = report.Total.ExpectedNetMaturity.Add(row.ExpectedNetMaturity)
		report.Total.MaturityDifference = report.Total.MaturityDifference.Add(row.MaturityDifference)
		report.Total.CalculatedNetCoupon = report.Total.CalculatedNetCoupon.Add(row.CalculatedNetCoupon)
		report.Total.ExpectedNetCoupon = report.Total.ExpectedNetCoupon.Add(row.ExpectedNetCoupon)
		report.Total.CouponDifference = report.Total.CouponDifference.Add(row.CouponDifference)
		if row.HasDiscrepancy {
			report.Total.EventsWithDiscrepancy++
		}
	}

	return report, nil
}

func (s *Service) auditEvent(ctx context.Context, event *eventdomain.PaymentEvent) (domain.AuditRow, error) {
	var sums allocationSums
	err := s.db.WithContext(ctx).Model(&eventdomain.MemberPayment{}).
		Select("SUM(net_maturity_coupon) AS net_maturity, SUM(net_coupon_payment) AS net_coupon, COUNT(*) AS row_count").
		Where("payment_event_id = ?", event.ID).
		Scan(&sums).Error
	if err != nil {
		return domain.AuditRow{}, err
	}

	row := domain.AuditRow{
		EventID:             event.ID,
		EventName:           event.EventName,
		EventType:           event.EventType,
		PaymentDate:         event.PaymentDate,
		ExpectedNetMaturity: event.ExpectedNetMaturityTotal,
		ExpectedNetCoupon:   event.ExpectedNetCouponTotal,
		AllocationCount:     sums.Count,
	}
	if sums.NetMaturity.Valid {
		row.CalculatedNetMaturity = sums.NetMaturity.Decimal
	}
	if sums.NetCoupon.Valid {
		row.CalculatedNetCoupon = sums.NetCoupon.Decimal
	}

	row.MaturityDifference = row.CalculatedNetMaturity.Sub(row.ExpectedNetMaturity)
	row.CouponDifference = row.CalculatedNetCoupon.Sub(row.ExpectedNetCoupon)
	row.HasDiscrepancy = row.MaturityDifference.Abs().GreaterThan(discrepancyTolerance) ||
		row.CouponDifference.Abs().GreaterThan(discrepancyTolerance)

	return row, nil
}
