package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	voucherdomain "github.com/coopworks/bondledger/internal/voucher/domain"
	"github.com/gin-gonic/gin"
)

type issueVoucherRequest struct {
	MemberPaymentID string `json:"member_payment_id"`
}

func (s *Server) IssueVoucher(c *gin.Context) {
	var req issueVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.voucherSvc.Issue(c.Request.Context(), voucherdomain.IssueRequest{
		MemberPaymentID: strings.TrimSpace(req.MemberPaymentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), "voucher.issue", "voucher", &targetID, map[string]any{
			"voucher_number": resp.VoucherNumber,
			"net_amount":     resp.NetAmount.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetVoucher(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.voucherSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVouchersByEvent(c *gin.Context) {
	eventID := strings.TrimSpace(c.Query("event_id"))
	if eventID == "" {
		AbortWithError(c, newValidationError("event_id", "invalid_event_id", "invalid event_id"))
		return
	}

	resp, err := s.voucherSvc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) VoidVoucher(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.voucherSvc.Void(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), "voucher.void", "voucher", &targetID, map[string]any{
			"voucher_number": resp.VoucherNumber,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadVoucherPDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	v, err := s.voucherSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.voucherSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", v.VoucherNumber))
	c.Data(http.StatusOK, "application/pdf", data)
}

func isVoucherValidationError(err error) bool {
	switch err {
	case voucherdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
