package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/member/domain"
	"github.com/coopworks/bondledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).Where("member_code = ?", code).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListMemberFilter, page pagination.Pagination) ([]*domain.Member, error) {
	stmt := db.WithContext(ctx).Model(&domain.Member{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("member_code LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", like, like, like, like)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.ID != "" {
			stmt = stmt.Where("id > ?", cursor.ID)
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}

	var members []*domain.Member
	// Fetch one extra row to detect has_more.
	if err := stmt.Order("id ASC").Limit(limit + 1).Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}
