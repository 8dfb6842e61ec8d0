package voucher

import (
	"github.com/coopworks/bondledger/internal/voucher/service"
	"go.uber.org/fx"
)

var Module = fx.Module("voucher.service",
	fx.Provide(service.New),
)
