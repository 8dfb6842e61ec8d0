package domain

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("voucher_not_found")
	ErrPaymentNotFound = errors.New("member_payment_not_found")
	ErrVoucherVoided   = errors.New("voucher_voided")
)

type IssueRequest struct {
	MemberPaymentID string `json:"member_payment_id"`
}

type Service interface {
	// Issue creates the voucher for an allocation row, or returns the
	// existing one.
	Issue(ctx context.Context, req IssueRequest) (Voucher, error)
	Get(ctx context.Context, id string) (Voucher, error)
	ListByEvent(ctx context.Context, eventID string) ([]Voucher, error)
	Void(ctx context.Context, id string) (Voucher, error)
	// RenderPDF produces the printable voucher document.
	RenderPDF(ctx context.Context, id string) (io.Reader, error)
}
