package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/balance/domain"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/coopworks/bondledger/internal/observability/metrics"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/coopworks/bondledger/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var oneHundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Bonds bonddomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	bonds bonddomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("balance.rollup"),
		genID: p.GenID,
		bonds: p.Bonds,
	}
}

type balanceKey struct {
	MemberID snowflake.ID
	BondID   snowflake.ID
}

type purchaseAgg struct {
	MemberID snowflake.ID        `gorm:"column:member_id"`
	BondID   snowflake.ID        `gorm:"column:bond_id"`
	Price    decimal.NullDecimal `gorm:"column:price"`
	CoopFee  decimal.NullDecimal `gorm:"column:coop_fee"`
	Count    int64               `gorm:"column:row_count"`
}

type paymentAgg struct {
	MemberID    snowflake.ID        `gorm:"column:member_id"`
	BondID      snowflake.ID        `gorm:"column:bond_id"`
	Gross       decimal.NullDecimal `gorm:"column:gross"`
	Withholding decimal.NullDecimal `gorm:"column:withholding"`
	Authority   decimal.NullDecimal `gorm:"column:authority"`
	CoopFees    decimal.NullDecimal `gorm:"column:coop_fees"`
	Net         decimal.NullDecimal `gorm:"column:net"`
}

func (s *Service) RollupMonth(ctx context.Context, req domain.RollupRequest) (domain.RollupResult, error) {
	if req.Month.IsZero() {
		return domain.RollupResult{}, domain.ErrInvalidMonth
	}
	monthStart := monthOf(req.Month)
	monthEnd := monthStart.AddDate(0, 1, 0)

	issues, err := s.bonds.ListIssues(ctx, s.db)
	if err != nil {
		return domain.RollupResult{}, err
	}

	// Live positions: latest snapshot per member, per issue, plus the
	// cooperative-wide face value totals the percentage shares divide by.
	positions := make(map[balanceKey]bonddomain.MemberHolding)
	coopFace := make(map[snowflake.ID]decimal.Decimal)
	now := time.Now().UTC()
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		snapshots, err := s.bonds.HoldingsAsOf(ctx, s.db, issue.ID, now)
		if err != nil {
			return domain.RollupResult{}, err
		}
		total := decimal.Zero
		for _, h := range bonddomain.LatestPerMember(snapshots) {
			positions[balanceKey{MemberID: h.MemberID, BondID: h.BondID}] = h
			total = total.Add(h.FaceValue)
		}
		coopFace[issue.ID] = total
	}

	purchases, err := s.purchasesInMonth(ctx, monthStart, monthEnd)
	if err != nil {
		return domain.RollupResult{}, err
	}
	payments, err := s.paymentsInMonth(ctx, monthStart, monthEnd)
	if err != nil {
		return domain.RollupResult{}, err
	}

	keys := make(map[balanceKey]struct{}, len(positions))
	for k := range positions {
		keys[k] = struct{}{}
	}
	for k := range purchases {
		keys[k] = struct{}{}
	}
	for k := range payments {
		keys[k] = struct{}{}
	}

	var balances []domain.MemberBalance
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key := range keys {
			position := positions[key]
			purchased := decimal.Zero
			if agg, ok := purchases[key]; ok && agg.Price.Valid {
				purchased = agg.Price.Decimal
			}

			// Zero position and nothing bought this month: nothing to
			// carry, the row is skipped entirely.
			if position.BondShares.IsZero() && purchased.IsZero() {
				continue
			}

			opening, err := s.priorClosing(ctx, tx, key, monthStart)
			if err != nil {
				return err
			}

			received := decimal.Zero
			if agg, ok := payments[key]; ok && agg.Net.Valid {
				received = agg.Net.Decimal
			}

			balance := domain.MemberBalance{
				ID:                 s.genID.Generate(),
				MemberID:           key.MemberID,
				BondID:             key.BondID,
				Month:              monthStart,
				BondShares:         position.BondShares,
				TotalFaceValue:     position.FaceValue,
				OpeningBalance:     opening,
				PurchasesThisMonth: purchased,
				PaymentsReceived:   received,
				ClosingBalance:     opening.Add(purchased),
				UpdatedAt:          now,
			}
			if total := coopFace[key.BondID]; total.IsPositive() {
				balance.PercentageShare = money.Round(position.FaceValue.Div(total).Mul(oneHundred))
			}

			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "member_id"}, {Name: "bond_id"}, {Name: "month"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"bond_shares", "total_face_value", "percentage_share",
					"opening_balance", "purchases_this_month", "payments_received",
					"closing_balance", "updated_at",
				}),
			}).Create(&balance).Error; err != nil {
				return err
			}
			balances = append(balances, balance)
		}
		return nil
	})
	if err != nil {
		return domain.RollupResult{}, err
	}

	summary, err := s.upsertSummary(ctx, monthStart, monthEnd, positions, purchases, payments)
	if err != nil {
		return domain.RollupResult{}, err
	}

	metrics.Engine().ObserveRollup(len(balances))
	s.log.Info("completed monthly rollup",
		zap.Time("month", monthStart),
		zap.Int("balances", len(balances)),
	)

	return domain.RollupResult{Balances: balances, Summary: summary}, nil
}

func (s *Service) purchasesInMonth(ctx context.Context, start, end time.Time) (map[balanceKey]purchaseAgg, error) {
	var rows []purchaseAgg
	err := s.db.WithContext(ctx).Model(&bonddomain.BondPurchase{}).
		Select("member_id, bond_id, SUM(purchase_price) AS price, SUM(coop_discount_fee) AS coop_fee, COUNT(*) AS row_count").
		Where("purchase_date >= ? AND purchase_date < ?", start, end).
		Group("member_id, bond_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	aggs := make(map[balanceKey]purchaseAgg, len(rows))
	for _, row := range rows {
		aggs[balanceKey{MemberID: row.MemberID, BondID: row.BondID}] = row
	}
	return aggs, nil
}

func (s *Service) paymentsInMonth(ctx context.Context, start, end time.Time) (map[balanceKey]paymentAgg, error) {
	var rows []paymentAgg
	err := s.db.WithContext(ctx).
		Table("member_payments AS mp").
		Select(`mp.member_id, mp.bond_id,
			SUM(mp.gross_coupon) AS gross,
			SUM(mp.withholding_tax) AS withholding,
			SUM(mp.authority_fee) AS authority,
			SUM(mp.coop_fee_on_coupon + mp.coop_discount_fee) AS coop_fees,
			SUM(mp.net_maturity_coupon + mp.net_coupon_payment) AS net`).
		Joins("JOIN payment_events pe ON pe.id = mp.payment_event_id").
		Where("pe.payment_date >= ? AND pe.payment_date < ?", start, end).
		Group("mp.member_id, mp.bond_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	aggs := make(map[balanceKey]paymentAgg, len(rows))
	for _, row := range rows {
		aggs[balanceKey{MemberID: row.MemberID, BondID: row.BondID}] = row
	}
	return aggs, nil
}

// priorClosing finds the most recent balance row before the target month.
// A gap month simply carries the last known closing forward.
func (s *Service) priorClosing(ctx context.Context, tx *gorm.DB, key balanceKey, monthStart time.Time) (decimal.Decimal, error) {
	var prior domain.MemberBalance
	err := tx.WithContext(ctx).
		Where("member_id = ? AND bond_id = ? AND month < ?", key.MemberID, key.BondID, monthStart).
		Order("month DESC").
		First(&prior).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return prior.ClosingBalance, nil
}

func (s *Service) upsertSummary(
	ctx context.Context,
	start, end time.Time,
	positions map[balanceKey]bonddomain.MemberHolding,
	purchases map[balanceKey]purchaseAgg,
	payments map[balanceKey]paymentAgg,
) (domain.MonthlySummary, error) {
	summary := domain.MonthlySummary{
		ID:        s.genID.Generate(),
		Month:     start,
		UpdatedAt: time.Now().UTC(),
	}

	members := make(map[snowflake.ID]struct{})
	for key, h := range positions {
		if h.BondShares.IsZero() {
			continue
		}
		members[key.MemberID] = struct{}{}
		summary.TotalShares = summary.TotalShares.Add(h.BondShares)
		summary.TotalFaceValue = summary.TotalFaceValue.Add(h.FaceValue)
	}
	summary.MemberCount = int64(len(members))

	for _, agg := range purchases {
		if agg.Price.Valid {
			summary.TotalPurchases = summary.TotalPurchases.Add(agg.Price.Decimal)
		}
		if agg.CoopFee.Valid {
			summary.CoopIncome = summary.CoopIncome.Add(agg.CoopFee.Decimal)
		}
		summary.PurchaseCount += agg.Count
	}

	for _, agg := range payments {
		if agg.Gross.Valid {
			summary.TotalGrossCoupons = summary.TotalGrossCoupons.Add(agg.Gross.Decimal)
		}
		if agg.Withholding.Valid {
			summary.TotalWithholdingTax = summary.TotalWithholdingTax.Add(agg.Withholding.Decimal)
		}
		if agg.Authority.Valid {
			summary.TotalAuthorityFees = summary.TotalAuthorityFees.Add(agg.Authority.Decimal)
		}
		if agg.CoopFees.Valid {
			summary.CoopIncome = summary.CoopIncome.Add(agg.CoopFees.Decimal)
		}
		if agg.Net.Valid {
			summary.TotalNetPayments = summary.TotalNetPayments.Add(agg.Net.Decimal)
		}
	}

	var maturityCount int64
	err := s.db.WithContext(ctx).Model(&eventdomain.PaymentEvent{}).
		Where("event_type = ? AND payment_date >= ? AND payment_date < ?",
			eventdomain.EventTypeDiscountMaturity, start, end).
		Count(&maturityCount).Error
	if err != nil {
		return domain.MonthlySummary{}, err
	}
	summary.MaturityEventCount = maturityCount

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_shares", "total_face_value", "total_purchases",
			"total_gross_coupons", "total_withholding_tax", "total_authority_fees",
			"total_net_payments", "coop_income",
			"member_count", "purchase_count", "maturity_event_count", "updated_at",
		}),
	}).Create(&summary).Error
	if err != nil {
		return domain.MonthlySummary{}, err
	}

	return summary, nil
}

func (s *Service) ListBalances(ctx context.Context, req domain.ListBalancesRequest) ([]domain.MemberBalance, error) {
	q := s.db.WithContext(ctx).Model(&domain.MemberBalance{})

	if strings.TrimSpace(req.MemberID) != "" {
		id, err := snowflake.ParseString(strings.TrimSpace(req.MemberID))
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidID
		}
		q = q.Where("member_id = ?", id)
	}
	if !req.Month.IsZero() {
		q = q.Where("month = ?", monthOf(req.Month))
	}

	var balances []domain.MemberBalance
	err := q.Order("month DESC, member_id ASC").Find(&balances).Error
	return balances, err
}

func (s *Service) GetMonthlySummary(ctx context.Context, month time.Time) (domain.MonthlySummary, error) {
	if month.IsZero() {
		return domain.MonthlySummary{}, domain.ErrInvalidMonth
	}

	var summary domain.MonthlySummary
	err := s.db.WithContext(ctx).Where("month = ?", monthOf(month)).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MonthlySummary{}, domain.ErrNotFound
		}
		return domain.MonthlySummary{}, err
	}
	return summary, nil
}

func monthOf(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}
