package migration

import (
	"strings"

	auditdomain "github.com/coopworks/bondledger/internal/audit/domain"
	balancedomain "github.com/coopworks/bondledger/internal/balance/domain"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/coopworks/bondledger/internal/config"
	memberdomain "github.com/coopworks/bondledger/internal/member/domain"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/coopworks/bondledger/internal/seed"
	voucherdomain "github.com/coopworks/bondledger/internal/voucher/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(conn.Dialector.Name(), "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-Postgres databases (sqlite in development) take the schema
			// from the models directly.
			err := conn.AutoMigrate(
				&memberdomain.Member{},
				&bonddomain.BondIssue{},
				&bonddomain.BondPurchase{},
				&bonddomain.MemberHolding{},
				&eventdomain.PaymentEvent{},
				&eventdomain.MemberPayment{},
				&balancedomain.MemberBalance{},
				&balancedomain.MonthlySummary{},
				&voucherdomain.Voucher{},
				&auditdomain.AuditLog{},
			)
			if err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
