package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIssue(ctx context.Context, db *gorm.DB, issue *domain.BondIssue) error {
	return db.WithContext(ctx).Create(issue).Error
}

func (r *repo) FindIssueByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BondIssue, error) {
	var issue domain.BondIssue
	err := db.WithContext(ctx).Where("id = ?", id).First(&issue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

func (r *repo) ListIssues(ctx context.Context, db *gorm.DB) ([]*domain.BondIssue, error) {
	var issues []*domain.BondIssue
	err := db.WithContext(ctx).Order("issue_date DESC").Find(&issues).Error
	return issues, err
}

func (r *repo) InsertPurchase(ctx context.Context, db *gorm.DB, purchase *domain.BondPurchase) error {
	return db.WithContext(ctx).Create(purchase).Error
}

func (r *repo) SumActivePurchases(ctx context.Context, db *gorm.DB, bondID, memberID snowflake.ID) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		Shares    decimal.NullDecimal `gorm:"column:shares"`
		FaceValue decimal.NullDecimal `gorm:"column:face_value"`
	}
	err := db.WithContext(ctx).Model(&domain.BondPurchase{}).
		Select("SUM(bond_shares) AS shares, SUM(face_value) AS face_value").
		Where("bond_id = ? AND member_id = ? AND status = ?", bondID, memberID, domain.PurchaseStatusActive).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	shares := decimal.Zero
	if row.Shares.Valid {
		shares = row.Shares.Decimal
	}
	faceValue := decimal.Zero
	if row.FaceValue.Valid {
		faceValue = row.FaceValue.Decimal
	}
	return shares, faceValue, nil
}

func (r *repo) InsertHolding(ctx context.Context, db *gorm.DB, holding *domain.MemberHolding) error {
	return db.WithContext(ctx).Create(holding).Error
}

func (r *repo) HoldingsAsOf(ctx context.Context, db *gorm.DB, bondID snowflake.ID, asOf time.Time) ([]*domain.MemberHolding, error) {
	var holdings []*domain.MemberHolding
	err := db.WithContext(ctx).
		Where("bond_id = ? AND as_of_date <= ?", bondID, asOf).
		Order("member_id ASC, as_of_date ASC, id ASC").
		Find(&holdings).Error
	return holdings, err
}
