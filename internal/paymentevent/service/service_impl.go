package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/coopworks/bondledger/internal/observability/metrics"
	"github.com/coopworks/bondledger/internal/paymentevent/domain"
	pkgdb "github.com/coopworks/bondledger/pkg/db"
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
	Bonds bonddomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	bonds bonddomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("paymentevent.service"),
		genID: p.GenID,
		repo:  p.Repo,
		bonds: p.Bonds,
	}
}

func (s *Service) CreateEvent(ctx context.Context, req domain.CreateEventRequest) (domain.PaymentEvent, error) {
	bondID, err := parseID(req.BondID)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	if !req.EventType.Valid() {
		return domain.PaymentEvent{}, domain.ErrInvalidEventType
	}
	name := strings.TrimSpace(req.EventName)
	if name == "" {
		return domain.PaymentEvent{}, domain.ErrInvalidEventName
	}
	if req.PaymentDate.IsZero() {
		return domain.PaymentEvent{}, domain.ErrInvalidDate
	}
	if req.AwardAmount.IsNegative() {
		return domain.PaymentEvent{}, domain.ErrInvalidAmount
	}

	issue, err := s.bonds.FindIssueByID(ctx, s.db, bondID)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	if issue == nil {
		return domain.PaymentEvent{}, domain.ErrBondNotFound
	}

	now := time.Now().UTC()
	event := domain.PaymentEvent{
		ID:                s.genID.Generate(),
		BondID:            bondID,
		EventType:         req.EventType,
		EventName:         name,
		PaymentDate:       req.PaymentDate,
		CalculationPeriod: strings.TrimSpace(req.CalculationPeriod),
		BaseRate:          req.BaseRate,
		WithholdingTax:    req.WithholdingTax,
		AuthorityFeeRate:  req.AuthorityFeeRate,
		CoopFeeRate:       req.CoopFeeRate,
		AwardAmount:       req.AwardAmount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.InsertEvent(ctx, s.db, &event); err != nil {
		return domain.PaymentEvent{}, err
	}

	return event, nil
}

func (s *Service) UpdateEvent(ctx context.Context, req domain.UpdateEventRequest) (domain.PaymentEvent, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.PaymentEvent{}, err
	}

	event, err := s.repo.FindEventByID(ctx, s.db, id)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	if event == nil {
		return domain.PaymentEvent{}, domain.ErrNotFound
	}

	if name := strings.TrimSpace(req.EventName); name != "" {
		event.EventName = name
	}
	if !req.PaymentDate.IsZero() {
		event.PaymentDate = req.PaymentDate
	}
	if period := strings.TrimSpace(req.CalculationPeriod); period != "" {
		event.CalculationPeriod = period
	}
	if req.AwardAmount.IsNegative() {
		return domain.PaymentEvent{}, domain.ErrInvalidAmount
	}
	event.BaseRate = req.BaseRate
	event.WithholdingTax = req.WithholdingTax
	event.AuthorityFeeRate = req.AuthorityFeeRate
	event.CoopFeeRate = req.CoopFeeRate
	event.AwardAmount = req.AwardAmount
	event.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateEvent(ctx, s.db, event); err != nil {
		return domain.PaymentEvent{}, err
	}

	return *event, nil
}

func (s *Service) GetEvent(ctx context.Context, req domain.GetEventRequest) (domain.PaymentEvent, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.PaymentEvent{}, err
	}

	event, err := s.repo.FindEventByID(ctx, s.db, id)
	if err != nil {
		return domain.PaymentEvent{}, err
	}
	if event == nil {
		return domain.PaymentEvent{}, domain.ErrNotFound
	}

	return *event, nil
}

func (s *Service) ListEvents(ctx context.Context, req domain.ListEventsRequest) ([]domain.PaymentEvent, error) {
	var bondID snowflake.ID
	if strings.TrimSpace(req.BondID) != "" {
		id, err := parseID(req.BondID)
		if err != nil {
			return nil, err
		}
		bondID = id
	}

	items, err := s.repo.ListEvents(ctx, s.db, bondID)
	if err != nil {
		return nil, err
	}

	events := make([]domain.PaymentEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		events = append(events, *item)
	}
	return events, nil
}

func (s *Service) Preview(ctx context.Context, eventID string) ([]domain.MemberPayment, error) {
	start := time.Now()
	event, issue, holdings, err := s.loadAllocationInputs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	payments := ComputeAllocations(*issue, *event, holdings)
	metrics.Engine().ObserveAllocation(metrics.OperationPreview, string(event.EventType), len(payments), time.Since(start), nil)
	return payments, nil
}

func (s *Service) Generate(ctx context.Context, eventID string) ([]domain.MemberPayment, error) {
	start := time.Now()
	event, issue, holdings, err := s.loadAllocationInputs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	payments := ComputeAllocations(*issue, *event, holdings)

	// Existence check and inserts share one transaction so two concurrent
	// generates cannot both pass the check; the unique (event, member)
	// index is the backstop.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.repo.CountPayments(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAllocationExists
		}
		return s.repo.InsertPayments(ctx, tx, s.stamp(payments))
	})
	metrics.Engine().ObserveAllocation(metrics.OperationGenerate, string(event.EventType), len(payments), time.Since(start), err)
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAllocationExists
		}
		return nil, err
	}

	s.log.Info("generated event allocation",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", string(event.EventType)),
		zap.Int("payments", len(payments)),
	)

	return payments, nil
}

func (s *Service) Recalculate(ctx context.Context, eventID string) ([]domain.MemberPayment, error) {
	start := time.Now()
	event, issue, holdings, err := s.loadAllocationInputs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	payments := ComputeAllocations(*issue, *event, holdings)

	// Delete and regenerate commit together; a failure between the two
	// steps must never leave the event without its allocation.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeletePayments(ctx, tx, event.ID); err != nil {
			return err
		}
		return s.repo.InsertPayments(ctx, tx, s.stamp(payments))
	})
	metrics.Engine().ObserveAllocation(metrics.OperationRecalculate, string(event.EventType), len(payments), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.log.Info("recalculated event allocation",
		zap.String("event_id", event.ID.String()),
		zap.Int("payments", len(payments)),
	)

	return payments, nil
}

func (s *Service) ApplyExpectedTotals(ctx context.Context, req domain.ApplyExpectedTotalsRequest) (domain.BatchResult, error) {
	result := domain.BatchResult{}

	for _, row := range req.Rows {
		if err := s.applyExpectedRow(ctx, row); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.BatchRowError{
				EventID: row.EventID,
				Reason:  err.Error(),
			})
			continue
		}
		result.Applied++
	}

	return result, nil
}

func (s *Service) applyExpectedRow(ctx context.Context, row domain.ExpectedTotalsRow) error {
	id, err := parseID(row.EventID)
	if err != nil {
		return err
	}

	event, err := s.repo.FindEventByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if event == nil {
		return domain.ErrNotFound
	}

	event.ExpectedNetMaturityTotal = row.ExpectedNetMaturityTotal
	event.ExpectedNetCouponTotal = row.ExpectedNetCouponTotal
	event.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateEvent(ctx, s.db, event)
}

func (s *Service) MemberPayments(ctx context.Context, memberID string) ([]domain.MemberPayment, error) {
	id, err := parseID(memberID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.PaymentsByMember(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) EventPayments(ctx context.Context, eventID string) ([]domain.MemberPayment, error) {
	id, err := parseID(eventID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.PaymentsByEvent(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) loadAllocationInputs(ctx context.Context, eventID string) (*domain.PaymentEvent, *bonddomain.BondIssue, []*bonddomain.MemberHolding, error) {
	id, err := parseID(eventID)
	if err != nil {
		return nil, nil, nil, err
	}

	event, err := s.repo.FindEventByID(ctx, s.db, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if event == nil {
		return nil, nil, nil, domain.ErrNotFound
	}

	issue, err := s.bonds.FindIssueByID(ctx, s.db, event.BondID)
	if err != nil {
		return nil, nil, nil, err
	}
	if issue == nil {
		return nil, nil, nil, domain.ErrBondNotFound
	}

	holdings, err := s.bonds.HoldingsAsOf(ctx, s.db, event.BondID, event.PaymentDate)
	if err != nil {
		return nil, nil, nil, err
	}

	return event, issue, holdings, nil
}

// stamp assigns identity and creation time to engine output just before it
// is persisted.
func (s *Service) stamp(payments []domain.MemberPayment) []*domain.MemberPayment {
	now := time.Now().UTC()
	rows := make([]*domain.MemberPayment, 0, len(payments))
	for i := range payments {
		row := payments[i]
		row.ID = s.genID.Generate()
		row.CreatedAt = now
		rows = append(rows, &row)
	}
	return rows
}

func dereference(items []*domain.MemberPayment) []domain.MemberPayment {
	payments := make([]domain.MemberPayment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}
	return payments
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
