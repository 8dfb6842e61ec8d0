package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *PaymentEvent) error
	UpdateEvent(ctx context.Context, db *gorm.DB, event *PaymentEvent) error
	FindEventByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentEvent, error)
	ListEvents(ctx context.Context, db *gorm.DB, bondID snowflake.ID) ([]*PaymentEvent, error)

	CountPayments(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error)
	InsertPayments(ctx context.Context, db *gorm.DB, payments []*MemberPayment) error
	DeletePayments(ctx context.Context, db *gorm.DB, eventID snowflake.ID) error
	PaymentsByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*MemberPayment, error)
	PaymentsByMember(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]*MemberPayment, error)
}
