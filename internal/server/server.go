package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coopworks/bondledger/internal/audit"
	auditdomain "github.com/coopworks/bondledger/internal/audit/domain"
	"github.com/coopworks/bondledger/internal/balance"
	balancedomain "github.com/coopworks/bondledger/internal/balance/domain"
	"github.com/coopworks/bondledger/internal/bond"
	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/coopworks/bondledger/internal/config"
	"github.com/coopworks/bondledger/internal/member"
	memberdomain "github.com/coopworks/bondledger/internal/member/domain"
	"github.com/coopworks/bondledger/internal/paymentevent"
	eventdomain "github.com/coopworks/bondledger/internal/paymentevent/domain"
	"github.com/coopworks/bondledger/internal/providers"
	"github.com/coopworks/bondledger/internal/providers/email"
	"github.com/coopworks/bondledger/internal/reconciliation"
	recondomain "github.com/coopworks/bondledger/internal/reconciliation/domain"
	"github.com/coopworks/bondledger/internal/voucher"
	voucherdomain "github.com/coopworks/bondledger/internal/voucher/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	member.Module,
	bond.Module,
	paymentevent.Module,
	reconciliation.Module,
	balance.Module,
	voucher.Module,
	providers.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	memberSvc  memberdomain.Service
	bondSvc    bonddomain.Service
	eventSvc   eventdomain.Service
	reconSvc   recondomain.Service
	balanceSvc balancedomain.Service
	voucherSvc voucherdomain.Service
	auditSvc   auditdomain.Service
	email      email.Provider
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	MemberSvc  memberdomain.Service
	BondSvc    bonddomain.Service
	EventSvc   eventdomain.Service
	ReconSvc   recondomain.Service
	BalanceSvc balancedomain.Service
	VoucherSvc voucherdomain.Service
	AuditSvc   auditdomain.Service
	Email      email.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("http.server"),
		genID:      p.GenID,
		memberSvc:  p.MemberSvc,
		bondSvc:    p.BondSvc,
		eventSvc:   p.EventSvc,
		reconSvc:   p.ReconSvc,
		balanceSvc: p.BalanceSvc,
		voucherSvc: p.VoucherSvc,
		auditSvc:   p.AuditSvc,
		email:      p.Email,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/members", s.CreateMember)
	api.GET("/members", s.ListMembers)
	api.GET("/members/:id", s.GetMemberByID)
	api.GET("/members/:id/payments", s.ListMemberPayments)

	api.POST("/bonds", s.CreateBondIssue)
	api.GET("/bonds", s.ListBondIssues)
	api.GET("/bonds/:id", s.GetBondIssue)
	api.GET("/bonds/:id/holdings", s.ListHoldings)

	api.POST("/holdings", s.RecordHolding)
	api.POST("/purchases/preview", s.PreviewPurchase)
	api.POST("/purchases", s.RecordPurchase)
	api.POST("/coupons/period", s.PeriodCoupon)

	api.POST("/payment-events", s.CreatePaymentEvent)
	api.GET("/payment-events", s.ListPaymentEvents)
	api.GET("/payment-events/:id", s.GetPaymentEvent)
	api.PUT("/payment-events/:id", s.UpdatePaymentEvent)
	api.POST("/payment-events/:id/preview", s.PreviewAllocation)
	api.POST("/payment-events/:id/generate", s.GenerateAllocation)
	api.POST("/payment-events/:id/recalculate", s.RecalculateAllocation)
	api.GET("/payment-events/:id/payments", s.ListEventPayments)
	api.POST("/payment-events/expected-totals", s.ApplyExpectedTotals)

	api.GET("/reconciliation/report", s.ReconciliationReport)

	api.POST("/rollups", s.RunMonthlyRollup)
	api.GET("/balances", s.ListBalances)
	api.GET("/summaries/:month", s.GetMonthlySummary)

	api.POST("/vouchers", s.IssueVoucher)
	api.GET("/vouchers", s.ListVouchersByEvent)
	api.GET("/vouchers/:id", s.GetVoucher)
	api.POST("/vouchers/:id/void", s.VoidVoucher)
	api.GET("/vouchers/:id/pdf", s.DownloadVoucherPDF)

	api.GET("/audit-logs", s.ListAuditLogs)
}
