package audit

import (
	"github.com/coopworks/bondledger/internal/audit/repository"
	"github.com/coopworks/bondledger/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
