package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/bond/calc"
	"github.com/coopworks/bondledger/internal/bond/domain"
	memberdomain "github.com/coopworks/bondledger/internal/member/domain"
	"github.com/coopworks/bondledger/pkg/money"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("bond.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateIssue(ctx context.Context, req domain.CreateIssueRequest) (domain.BondIssue, error) {
	name := strings.TrimSpace(req.IssueName)
	if name == "" {
		return domain.BondIssue{}, domain.ErrInvalidIssueName
	}
	if req.CouponRate.IsNegative() || req.DiscountRate.IsNegative() ||
		req.WithholdingTaxRate.IsNegative() || req.AuthorityFeeRate.IsNegative() ||
		req.CoopFeeRate.IsNegative() {
		return domain.BondIssue{}, domain.ErrInvalidRate
	}
	if req.IssueDate.IsZero() || req.MaturityDate.IsZero() || req.MaturityDate.Before(req.IssueDate) {
		return domain.BondIssue{}, domain.ErrInvalidDate
	}

	now := time.Now().UTC()
	issue := domain.BondIssue{
		ID:                 s.genID.Generate(),
		IssueName:          name,
		Issuer:             strings.TrimSpace(req.Issuer),
		CouponRate:         req.CouponRate,
		DiscountRate:       req.DiscountRate,
		WithholdingTaxRate: req.WithholdingTaxRate,
		AuthorityFeeRate:   req.AuthorityFeeRate,
		CoopFeeRate:        req.CoopFeeRate,
		IssueDate:          req.IssueDate,
		MaturityDate:       req.MaturityDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.InsertIssue(ctx, s.db, &issue); err != nil {
		return domain.BondIssue{}, err
	}

	return issue, nil
}

func (s *Service) GetIssue(ctx context.Context, req domain.GetIssueRequest) (domain.BondIssue, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.BondIssue{}, err
	}

	issue, err := s.repo.FindIssueByID(ctx, s.db, id)
	if err != nil {
		return domain.BondIssue{}, err
	}
	if issue == nil {
		return domain.BondIssue{}, domain.ErrNotFound
	}

	return *issue, nil
}

func (s *Service) ListIssues(ctx context.Context) ([]domain.BondIssue, error) {
	items, err := s.repo.ListIssues(ctx, s.db)
	if err != nil {
		return nil, err
	}

	issues := make([]domain.BondIssue, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		issues = append(issues, *item)
	}
	return issues, nil
}

func (s *Service) PreviewPurchase(ctx context.Context, req domain.PreviewPurchaseRequest) (calc.PurchaseEconomics, error) {
	if !req.BondShares.IsPositive() {
		return calc.PurchaseEconomics{}, domain.ErrInvalidShares
	}
	if req.MaturityYears <= 0 {
		return calc.PurchaseEconomics{}, domain.ErrInvalidMaturity
	}
	if req.PurchaseDate.IsZero() {
		return calc.PurchaseEconomics{}, domain.ErrInvalidDate
	}

	return calc.PurchaseBreakdown(req.BondShares, req.PurchaseDate, req.MaturityYears, req.DiscountRate)
}

func (s *Service) RecordPurchase(ctx context.Context, req domain.RecordPurchaseRequest) (domain.BondPurchase, error) {
	memberID, err := parseID(req.MemberID)
	if err != nil {
		return domain.BondPurchase{}, err
	}
	bondID, err := parseID(req.BondID)
	if err != nil {
		return domain.BondPurchase{}, err
	}
	if !req.BondShares.IsPositive() {
		return domain.BondPurchase{}, domain.ErrInvalidShares
	}
	if req.MaturityYears <= 0 {
		return domain.BondPurchase{}, domain.ErrInvalidMaturity
	}
	if req.PurchaseDate.IsZero() {
		return domain.BondPurchase{}, domain.ErrInvalidDate
	}

	issue, err := s.repo.FindIssueByID(ctx, s.db, bondID)
	if err != nil {
		return domain.BondPurchase{}, err
	}
	if issue == nil {
		return domain.BondPurchase{}, domain.ErrNotFound
	}

	var memberCount int64
	if err := s.db.WithContext(ctx).Model(&memberdomain.Member{}).Where("id = ?", memberID).Count(&memberCount).Error; err != nil {
		return domain.BondPurchase{}, err
	}
	if memberCount == 0 {
		return domain.BondPurchase{}, domain.ErrMemberNotFound
	}

	discountRate := req.DiscountRate
	if discountRate.IsZero() {
		discountRate = issue.DiscountRate
	}

	breakdown, err := calc.PurchaseBreakdown(req.BondShares, req.PurchaseDate, req.MaturityYears, discountRate)
	if err != nil {
		return domain.BondPurchase{}, err
	}

	now := time.Now().UTC()
	purchase := domain.BondPurchase{
		ID:               s.genID.Generate(),
		MemberID:         memberID,
		BondID:           bondID,
		PurchaseDate:     req.PurchaseDate,
		PurchaseMonth:    monthOf(req.PurchaseDate),
		BondShares:       req.BondShares,
		FaceValue:        breakdown.FaceValue,
		DiscountValue:    breakdown.DiscountValue,
		CoopDiscountFee:  breakdown.CoopDiscountFee,
		NetDiscountValue: breakdown.NetDiscountValue,
		PurchasePrice:    breakdown.PurchasePrice,
		MaturityYears:    req.MaturityYears,
		MaturityDate:     breakdown.MaturityDate,
		Status:           domain.PurchaseStatusActive,
		TransactionRef:   "TXN-" + uuid.NewString(),
		CreatedAt:        now,
	}

	// The purchase and the refreshed holding snapshot commit together.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertPurchase(ctx, tx, &purchase); err != nil {
			return err
		}

		shares, faceValue, err := s.repo.SumActivePurchases(ctx, tx, bondID, memberID)
		if err != nil {
			return err
		}

		holding := domain.MemberHolding{
			ID:         s.genID.Generate(),
			BondID:     bondID,
			MemberID:   memberID,
			BondShares: shares,
			FaceValue:  faceValue,
			AsOfDate:   req.PurchaseDate,
			CreatedAt:  now,
		}
		return s.repo.InsertHolding(ctx, tx, &holding)
	})
	if err != nil {
		return domain.BondPurchase{}, err
	}

	s.log.Info("recorded bond purchase",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("member_id", memberID.String()),
		zap.String("bond_id", bondID.String()),
		zap.String("face_value", purchase.FaceValue.String()),
	)

	return purchase, nil
}

func (s *Service) PeriodCoupon(ctx context.Context, req domain.PeriodCouponRequest) (calc.CouponBreakdown, error) {
	if req.FaceValue.IsNegative() {
		return calc.CouponBreakdown{}, domain.ErrInvalidShares
	}

	dailyRate := req.DailyRate
	if dailyRate.IsZero() && !req.AnnualRate.IsZero() {
		dailyRate = money.DailyRate(req.AnnualRate)
	}

	return calc.CouponPayment(req.FaceValue, dailyRate, req.CalendarDays), nil
}

func (s *Service) RecordHolding(ctx context.Context, req domain.RecordHoldingRequest) (domain.MemberHolding, error) {
	memberID, err := parseID(req.MemberID)
	if err != nil {
		return domain.MemberHolding{}, err
	}
	bondID, err := parseID(req.BondID)
	if err != nil {
		return domain.MemberHolding{}, err
	}
	if req.BondShares.IsNegative() || req.FaceValue.IsNegative() {
		return domain.MemberHolding{}, domain.ErrInvalidShares
	}
	if req.AsOfDate.IsZero() {
		return domain.MemberHolding{}, domain.ErrInvalidDate
	}

	issue, err := s.repo.FindIssueByID(ctx, s.db, bondID)
	if err != nil {
		return domain.MemberHolding{}, err
	}
	if issue == nil {
		return domain.MemberHolding{}, domain.ErrNotFound
	}

	holding := domain.MemberHolding{
		ID:         s.genID.Generate(),
		BondID:     bondID,
		MemberID:   memberID,
		BondShares: req.BondShares,
		FaceValue:  req.FaceValue,
		AsOfDate:   req.AsOfDate,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.InsertHolding(ctx, s.db, &holding); err != nil {
		return domain.MemberHolding{}, err
	}

	return holding, nil
}

func (s *Service) HoldingsAsOf(ctx context.Context, bondID string, asOf time.Time) ([]domain.MemberHolding, error) {
	id, err := parseID(bondID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		return nil, domain.ErrInvalidDate
	}

	snapshots, err := s.repo.HoldingsAsOf(ctx, s.db, id, asOf)
	if err != nil {
		return nil, err
	}

	return domain.LatestPerMember(snapshots), nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func monthOf(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}
