package bond

import (
	"github.com/coopworks/bondledger/internal/bond/repository"
	"github.com/coopworks/bondledger/internal/bond/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bond.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
