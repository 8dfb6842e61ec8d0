package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListMemberFilter struct {
	Status string
	Search string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, member *Member) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Member, error)
	List(ctx context.Context, db *gorm.DB, filter ListMemberFilter, page pagination.Pagination) ([]*Member, error)
}
