package providers

import (
	"github.com/coopworks/bondledger/internal/providers/email"
	"github.com/coopworks/bondledger/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
