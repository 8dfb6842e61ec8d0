package paymentevent

import (
	"github.com/coopworks/bondledger/internal/paymentevent/repository"
	"github.com/coopworks/bondledger/internal/paymentevent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentevent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
