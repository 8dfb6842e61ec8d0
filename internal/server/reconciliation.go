package server

import (
	"net/http"
	"strings"

	recondomain "github.com/coopworks/bondledger/internal/reconciliation/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ReconciliationReport(c *gin.Context) {
	resp, err := s.reconSvc.Report(c.Request.Context(), recondomain.ReportRequest{
		BondID: strings.TrimSpace(c.Query("bond_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
