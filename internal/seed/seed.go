package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	memberdomain "github.com/coopworks/bondledger/internal/member/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const demoIssueName = "GoG 6-Year Bond 2024"

// EnsureDemoData seeds a demo bond issue with a handful of members so a fresh
// development database is immediately usable. Existing data is left alone.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issue, err := ensureDemoIssueTx(ctx, tx, node)
		if err != nil {
			return err
		}
		return ensureDemoMembersTx(ctx, tx, node, issue)
	})
}

func ensureDemoIssueTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*bonddomain.BondIssue, error) {
	var existing bonddomain.BondIssue
	err := tx.WithContext(ctx).Where("issue_name = ?", demoIssueName).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	issue := bonddomain.BondIssue{
		ID:                 node.Generate(),
		IssueName:          demoIssueName,
		Issuer:             "Government of Ghana",
		CouponRate:         decimal.RequireFromString("0.1850"),
		DiscountRate:       decimal.RequireFromString("0.10"),
		WithholdingTaxRate: decimal.RequireFromString("15"),
		AuthorityFeeRate:   decimal.RequireFromString("1"),
		CoopFeeRate:        decimal.RequireFromString("2"),
		IssueDate:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		MaturityDate:       time.Date(2030, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := tx.WithContext(ctx).Create(&issue).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

func ensureDemoMembersTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, issue *bonddomain.BondIssue) error {
	seedMembers := []struct {
		code   string
		first  string
		last   string
		email  string
		shares string
	}{
		{"M-0001", "Ama", "Mensah", "ama.mensah@example.com", "60"},
		{"M-0002", "Kofi", "Boateng", "kofi.boateng@example.com", "25"},
		{"M-0003", "Efua", "Owusu", "efua.owusu@example.com", "15"},
	}

	asOf := issue.IssueDate
	for _, sm := range seedMembers {
		var existing memberdomain.Member
		err := tx.WithContext(ctx).Where("member_code = ?", sm.code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		member := memberdomain.Member{
			ID:         node.Generate(),
			MemberCode: sm.code,
			FirstName:  sm.first,
			LastName:   sm.last,
			Email:      sm.email,
			Status:     memberdomain.MemberStatusActive,
		}
		if err := tx.WithContext(ctx).Create(&member).Error; err != nil {
			return err
		}

		shares := decimal.RequireFromString(sm.shares)
		holding := bonddomain.MemberHolding{
			ID:         node.Generate(),
			BondID:     issue.ID,
			MemberID:   member.ID,
			BondShares: shares,
			FaceValue:  shares,
			AsOfDate:   asOf,
		}
		if err := tx.WithContext(ctx).Create(&holding).Error; err != nil {
			return err
		}
	}

	return nil
}
