package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateVoucher(ctx context.Context, data VoucherData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateVoucher(ctx context.Context, data VoucherData) (io.Reader, error) {
	return nil, nil
}
