package member

import (
	"github.com/coopworks/bondledger/internal/member/repository"
	"github.com/coopworks/bondledger/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
