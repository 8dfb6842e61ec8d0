package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	memberdomain "github.com/coopworks/bondledger/internal/member/domain"
	"github.com/coopworks/bondledger/internal/observability/metrics"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/coopworks/bondledger/internal/providers/pdf"
	"github.com/coopworks/bondledger/internal/voucher/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	PDF   pdf.Provider
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	pdf   pdf.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("voucher.service"),
		genID: p.GenID,
		pdf:   p.PDF,
	}
}

func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) (domain.Voucher, error) {
	paymentID, err := parseID(req.MemberPaymentID)
	if err != nil {
		return domain.Voucher{}, err
	}

	var payment eventdomain.MemberPayment
	if err := s.db.WithContext(ctx).Where("id = ?", paymentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Voucher{}, domain.ErrPaymentNotFound
		}
		return domain.Voucher{}, err
	}

	var existing domain.Voucher
	err = s.db.WithContext(ctx).Where("member_payment_id = ?", paymentID).First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Voucher{}, err
	}

	now := time.Now().UTC()
	voucher := domain.Voucher{
		ID:              s.genID.Generate(),
		VoucherNumber:   "PV-" + uuid.NewString(),
		MemberPaymentID: payment.ID,
		MemberID:        payment.MemberID,
		PaymentEventID:  payment.PaymentEventID,
		NetAmount:       netAmount(payment),
		Status:          domain.VoucherStatusIssued,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.WithContext(ctx).Create(&voucher).Error; err != nil {
		return domain.Voucher{}, err
	}

	metrics.Engine().VoucherIssued()
	s.log.Info("issued payment voucher",
		zap.String("voucher_number", voucher.VoucherNumber),
		zap.String("member_id", voucher.MemberID.String()),
	)

	return voucher, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Voucher, error) {
	voucherID, err := parseID(id)
	if err != nil {
		return domain.Voucher{}, err
	}

	var voucher domain.Voucher
	if err := s.db.WithContext(ctx).Where("id = ?", voucherID).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Voucher{}, domain.ErrNotFound
		}
		return domain.Voucher{}, err
	}
	return voucher, nil
}

func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]domain.Voucher, error) {
	id, err := parseID(eventID)
	if err != nil {
		return nil, err
	}

	var vouchers []domain.Voucher
	err = s.db.WithContext(ctx).
		Where("payment_event_id = ?", id).
		Order("member_id ASC").
		Find(&vouchers).Error
	return vouchers, err
}

func (s *Service) Void(ctx context.Context, id string) (domain.Voucher, error) {
	voucher, err := s.Get(ctx, id)
	if err != nil {
		return domain.Voucher{}, err
	}

	voucher.Status = domain.VoucherStatusVoided
	voucher.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(&voucher).Error; err != nil {
		return domain.Voucher{}, err
	}
	return voucher, nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) (io.Reader, error) {
	voucher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if voucher.Status == domain.VoucherStatusVoided {
		return nil, domain.ErrVoucherVoided
	}

	var payment eventdomain.MemberPayment
	if err := s.db.WithContext(ctx).Where("id = ?", voucher.MemberPaymentID).First(&payment).Error; err != nil {
		return nil, err
	}

	var event eventdomain.PaymentEvent
	if err := s.db.WithContext(ctx).Where("id = ?", voucher.PaymentEventID).First(&event).Error; err != nil {
		return nil, err
	}

	var issue bonddomain.BondIssue
	if err := s.db.WithContext(ctx).Where("id = ?", event.BondID).First(&issue).Error; err != nil {
		return nil, err
	}

	var member memberdomain.Member
	if err := s.db.WithContext(ctx).Where("id = ?", voucher.MemberID).First(&member).Error; err != nil {
		return nil, err
	}

	data := pdf.VoucherData{
		VoucherNumber: voucher.VoucherNumber,
		CoopName:      "Bond Investment Cooperative",
		MemberName:    member.FullName(),
		MemberCode:    member.MemberCode,
		EventName:     event.EventName,
		BondIssue:     issue.IssueName,
		PaymentDate:   event.PaymentDate.Format("2006-01-02"),
		Lines:         voucherLines(event.EventType, payment),
		NetAmount:     voucher.NetAmount.StringFixed(2),
	}

	return s.pdf.GenerateVoucher(ctx, data)
}

func voucherLines(kind eventdomain.EventType, p eventdomain.MemberPayment) []pdf.VoucherLine {
	lines := []pdf.VoucherLine{
		{Label: "Bond shares", Amount: p.BondShares.StringFixed(2)},
		{Label: "Face value", Amount: p.MemberFaceValue.StringFixed(2)},
	}

	if kind == eventdomain.EventTypeDiscountMaturity {
		lines = append(lines,
			pdf.VoucherLine{Label: "Award share", Amount: p.AwardShare.StringFixed(2)},
			pdf.VoucherLine{Label: "Net discount value", Amount: p.NetDiscountValue.StringFixed(2)},
			pdf.VoucherLine{Label: "Gross maturity coupon", Amount: p.GrossCoupon.StringFixed(2)},
			pdf.VoucherLine{Label: "Withholding tax", Amount: "-" + p.WithholdingTax.StringFixed(2)},
			pdf.VoucherLine{Label: "Authority fee", Amount: "-" + p.AuthorityFee.StringFixed(2)},
			pdf.VoucherLine{Label: "Net maturity coupon", Amount: p.NetMaturityCoupon.StringFixed(2)},
		)
		return lines
	}

	lines = append(lines,
		pdf.VoucherLine{Label: "Gross coupon", Amount: p.GrossCoupon.StringFixed(2)},
		pdf.VoucherLine{Label: "Withholding tax", Amount: "-" + p.WithholdingTax.StringFixed(2)},
		pdf.VoucherLine{Label: "Authority fee", Amount: "-" + p.AuthorityFee.StringFixed(2)},
		pdf.VoucherLine{Label: "Cooperative service fee", Amount: "-" + p.CoopFeeOnCoupon.StringFixed(2)},
		pdf.VoucherLine{Label: "Net coupon payment", Amount: p.NetCouponPayment.StringFixed(2)},
	)
	return lines
}

// netAmount is the cash the member actually receives for this allocation:
// the non-applicable sides are zero, so a plain sum works for both kinds.
func netAmount(p eventdomain.MemberPayment) decimal.Decimal {
	return p.NetDiscountValue.Add(p.NetMaturityCoupon).Add(p.NetCouponPayment)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
