package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	memberdomain "github.com/coopworks/bondledger/internal/member/domain"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type createPaymentEventRequest struct {
	BondID            string              `json:"bond_id"`
	EventType         string              `json:"event_type"`
	EventName         string              `json:"event_name"`
	PaymentDate       string              `json:"payment_date"`
	CalculationPeriod string              `json:"calculation_period"`
	BaseRate          decimal.NullDecimal `json:"base_rate"`
	WithholdingTax    decimal.NullDecimal `json:"withholding_tax_rate"`
	AuthorityFeeRate  decimal.NullDecimal `json:"authority_fee_rate"`
	CoopFeeRate       decimal.NullDecimal `json:"coop_fee_rate"`
	AwardAmount       decimal.Decimal     `json:"award_amount"`
}

func (s *Server) CreatePaymentEvent(c *gin.Context) {
	var req createPaymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment_date"))
		return
	}

	resp, err := s.eventSvc.CreateEvent(c.Request.Context(), eventdomain.CreateEventRequest{
		BondID:            strings.TrimSpace(req.BondID),
		EventType:         eventdomain.EventType(strings.TrimSpace(req.EventType)),
		EventName:         strings.TrimSpace(req.EventName),
		PaymentDate:       paymentDate,
		CalculationPeriod: strings.TrimSpace(req.CalculationPeriod),
		BaseRate:          req.BaseRate,
		WithholdingTax:    req.WithholdingTax,
		AuthorityFeeRate:  req.AuthorityFeeRate,
		CoopFeeRate:       req.CoopFeeRate,
		AwardAmount:       req.AwardAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), "payment_event.create", "payment_event", &targetID, map[string]any{
			"bond_id":    resp.BondID.String(),
			"event_type": string(resp.EventType),
			"event_name": resp.EventName,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updatePaymentEventRequest struct {
	EventName         string              `json:"event_name"`
	PaymentDate       string              `json:"payment_date"`
	CalculationPeriod string              `json:"calculation_period"`
	BaseRate          decimal.NullDecimal `json:"base_rate"`
	WithholdingTax    decimal.NullDecimal `json:"withholding_tax_rate"`
	AuthorityFeeRate  decimal.NullDecimal `json:"authority_fee_rate"`
	CoopFeeRate       decimal.NullDecimal `json:"coop_fee_rate"`
	AwardAmount       decimal.Decimal     `json:"award_amount"`
}

func (s *Server) UpdatePaymentEvent(c *gin.Context) {
	var req updatePaymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// An omitted payment_date keeps the stored one.
	var paymentDate time.Time
	if strings.TrimSpace(req.PaymentDate) != "" {
		parsed, err := parseDate(req.PaymentDate)
		if err != nil {
			AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment_date"))
			return
		}
		paymentDate = parsed
	}

	resp, err := s.eventSvc.UpdateEvent(c.Request.Context(), eventdomain.UpdateEventRequest{
		ID:                strings.TrimSpace(c.Param("id")),
		EventName:         strings.TrimSpace(req.EventName),
		PaymentDate:       paymentDate,
		CalculationPeriod: strings.TrimSpace(req.CalculationPeriod),
		BaseRate:          req.BaseRate,
		WithholdingTax:    req.WithholdingTax,
		AuthorityFeeRate:  req.AuthorityFeeRate,
		CoopFeeRate:       req.CoopFeeRate,
		AwardAmount:       req.AwardAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), "payment_event.update", "payment_event", &targetID, map[string]any{
			"event_name": resp.EventName,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentEvent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.eventSvc.GetEvent(c.Request.Context(), eventdomain.GetEventRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPaymentEvents(c *gin.Context) {
	resp, err := s.eventSvc.ListEvents(c.Request.Context(), eventdomain.ListEventsRequest{
		BondID: strings.TrimSpace(c.Query("bond_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PreviewAllocation(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.eventSvc.Preview(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GenerateAllocation(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.eventSvc.Generate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.Record(c.Request.Context(), "payment_event.generate", "payment_event", &id, map[string]any{
			"payment_count": len(resp),
		})
	}

	s.notifyPaymentsGenerated(c.Request.Context(), id, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecalculateAllocation(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.eventSvc.Recalculate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.Record(c.Request.Context(), "payment_event.recalculate", "payment_event", &id, map[string]any{
			"payment_count": len(resp),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEventPayments(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.eventSvc.EventPayments(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApplyExpectedTotals(c *gin.Context) {
	var req eventdomain.ApplyExpectedTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.eventSvc.ApplyExpectedTotals(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.Record(c.Request.Context(), "payment_event.expected_totals", "payment_event", nil, map[string]any{
			"applied": resp.Applied,
			"failed":  resp.Failed,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// notifyPaymentsGenerated emails each allocated member. Delivery is best
// effort; the allocation stands regardless.
func (s *Server) notifyPaymentsGenerated(ctx context.Context, eventID string, payments []eventdomain.MemberPayment) {
	if s.email == nil || len(payments) == 0 {
		return
	}

	event, err := s.eventSvc.GetEvent(ctx, eventdomain.GetEventRequest{ID: eventID})
	if err != nil {
		s.log.Warn("payment notice skipped", zap.String("event_id", eventID), zap.Error(err))
		return
	}

	memberIDs := make([]int64, 0, len(payments))
	for _, p := range payments {
		memberIDs = append(memberIDs, int64(p.MemberID))
	}

	var members []memberdomain.Member
	if err := s.db.WithContext(ctx).Where("id IN ?", memberIDs).Find(&members).Error; err != nil {
		s.log.Warn("payment notice skipped", zap.String("event_id", eventID), zap.Error(err))
		return
	}

	emails := make(map[int64]memberdomain.Member, len(members))
	for _, m := range members {
		emails[int64(m.ID)] = m
	}

	for _, p := range payments {
		m, ok := emails[int64(p.MemberID)]
		if !ok || strings.TrimSpace(m.Email) == "" {
			continue
		}

		net := p.NetDiscountValue.Add(p.NetMaturityCoupon).Add(p.NetCouponPayment)
		subject := fmt.Sprintf("Payment advice: %s", event.EventName)
		body := fmt.Sprintf(
			"<p>Dear %s %s,</p><p>Your payment for <strong>%s</strong> dated %s has been processed.</p><p>Net amount: <strong>%s</strong></p>",
			m.FirstName, m.LastName, event.EventName, event.PaymentDate.Format(dateOnlyLayout), net.StringFixed(2),
		)
		if err := s.email.Send(ctx, []string{m.Email}, subject, body); err != nil {
			s.log.Warn("payment notice failed",
				zap.String("event_id", eventID),
				zap.String("member_id", m.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func isPaymentEventValidationError(err error) bool {
	switch err {
	case eventdomain.ErrInvalidID,
		eventdomain.ErrInvalidEventType,
		eventdomain.ErrInvalidEventName,
		eventdomain.ErrInvalidDate,
		eventdomain.ErrInvalidAmount:
		return true
	default:
		return false
	}
}
