package balance

import (
	"github.com/coopworks/bondledger/internal/balance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("balance.rollup",
	fx.Provide(service.New),
)
