package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	InsertIssue(ctx context.Context, db *gorm.DB, issue *BondIssue) error
	FindIssueByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BondIssue, error)
	ListIssues(ctx context.Context, db *gorm.DB) ([]*BondIssue, error)

	InsertPurchase(ctx context.Context, db *gorm.DB, purchase *BondPurchase) error
	// SumActivePurchases aggregates shares and face value over a member's
	// active purchases in one issue.
	SumActivePurchases(ctx context.Context, db *gorm.DB, bondID, memberID snowflake.ID) (shares, faceValue decimal.Decimal, err error)

	InsertHolding(ctx context.Context, db *gorm.DB, holding *MemberHolding) error
	// HoldingsAsOf returns every snapshot dated at or before asOf for the
	// issue. Callers needing one row per member reduce to the latest
	// snapshot themselves.
	HoldingsAsOf(ctx context.Context, db *gorm.DB, bondID snowflake.ID, asOf time.Time) ([]*MemberHolding, error)
}
