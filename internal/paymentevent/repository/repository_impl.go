package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/paymentevent/domain"
	"gorm.io/gorm"
)

const insertBatchSize = 200

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.PaymentEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) UpdateEvent(ctx context.Context, db *gorm.DB, event *domain.PaymentEvent) error {
	return db.WithContext(ctx).Save(event).Error
}

func (r *repo) FindEventByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentEvent, error) {
	var event domain.PaymentEvent
	err := db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repo) ListEvents(ctx context.Context, db *gorm.DB, bondID snowflake.ID) ([]*domain.PaymentEvent, error) {
	q := db.WithContext(ctx).Order("payment_date DESC, id DESC")
	if bondID != 0 {
		q = q.Where("bond_id = ?", bondID)
	}

	var events []*domain.PaymentEvent
	err := q.Find(&events).Error
	return events, err
}

func (r *repo) CountPayments(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.MemberPayment{}).
		Where("payment_event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (r *repo) InsertPayments(ctx context.Context, db *gorm.DB, payments []*domain.MemberPayment) error {
	if len(payments) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(payments, insertBatchSize).Error
}

func (r *repo) DeletePayments(ctx context.Context, db *gorm.DB, eventID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("payment_event_id = ?", eventID).
		Delete(&domain.MemberPayment{}).Error
}

func (r *repo) PaymentsByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]*domain.MemberPayment, error) {
	var payments []*domain.MemberPayment
	err := db.WithContext(ctx).
		Where("payment_event_id = ?", eventID).
		Order("member_id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *repo) PaymentsByMember(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]*domain.MemberPayment, error) {
	var payments []*domain.MemberPayment
	err := db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}
