package server

import (
	"net/http"
	"strings"
	"time"

	balancedomain "github.com/coopworks/bondledger/internal/balance/domain"
	"github.com/gin-gonic/gin"
)

type rollupRequest struct {
	Month string `json:"month"`
}

func (s *Server) RunMonthlyRollup(c *gin.Context) {
	var req rollupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	month, err := parseMonth(req.Month)
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "invalid month"))
		return
	}

	resp, err := s.balanceSvc.RollupMonth(c.Request.Context(), balancedomain.RollupRequest{
		Month: month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		monthKey := month.Format("2006-01")
		_ = s.auditSvc.Record(c.Request.Context(), "balance.rollup", "monthly_summary", &monthKey, map[string]any{
			"balance_count": len(resp.Balances),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBalances(c *gin.Context) {
	var month time.Time
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := parseMonth(raw)
		if err != nil {
			AbortWithError(c, newValidationError("month", "invalid_month", "invalid month"))
			return
		}
		month = parsed
	}

	resp, err := s.balanceSvc.ListBalances(c.Request.Context(), balancedomain.ListBalancesRequest{
		MemberID: strings.TrimSpace(c.Query("member_id")),
		Month:    month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMonthlySummary(c *gin.Context) {
	month, err := parseMonth(c.Param("month"))
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "invalid month"))
		return
	}

	resp, err := s.balanceSvc.GetMonthlySummary(c.Request.Context(), month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isBalanceValidationError(err error) bool {
	switch err {
	case balancedomain.ErrInvalidMonth,
		balancedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
