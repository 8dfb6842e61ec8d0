package server

import (
	"net/http"
	"strings"

	bonddomain "github.com/coopworks/bondledger/internal/bond/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createBondIssueRequest struct {
	IssueName          string          `json:"issue_name"`
	Issuer             string          `json:"issuer"`
	CouponRate         decimal.Decimal `json:"coupon_rate"`
	DiscountRate       decimal.Decimal `json:"discount_rate"`
	WithholdingTaxRate decimal.Decimal `json:"withholding_tax_rate"`
	AuthorityFeeRate   decimal.Decimal `json:"authority_fee_rate"`
	CoopFeeRate        decimal.Decimal `json:"coop_fee_rate"`
	IssueDate          string          `json:"issue_date"`
	MaturityDate       string          `json:"maturity_date"`
}

func (s *Server) CreateBondIssue(c *gin.Context) {
	var req createBondIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	maturityDate, err := parseDate(req.MaturityDate)
	if err != nil {
		AbortWithError(c, newValidationError("maturity_date", "invalid_maturity_date", "invalid maturity_date"))
		return
	}

	resp, err := s.bondSvc.CreateIssue(c.Request.Context(), bonddomain.CreateIssueRequest{
		IssueName:          strings.TrimSpace(req.IssueName),
		Issuer:             strings.TrimSpace(req.Issuer),
		CouponRate:         req.CouponRate,
		DiscountRate:       req.DiscountRate,
		WithholdingTaxRate: req.WithholdingTaxRate,
		AuthorityFeeRate:   req.AuthorityFeeRate,
		CoopFeeRate:        req.CoopFeeRate,
		IssueDate:          issueDate,
		MaturityDate:       maturityDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), "bond.create", "bond_issue", &targetID, map[string]any{
			"issue_name": resp.IssueName,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBondIssues(c *gin.Context) {
	resp, err := s.bondSvc.ListIssues(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBondIssue(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.bondSvc.GetIssue(c.Request.Context(), bonddomain.GetIssueRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListHoldings(c *gin.Context) {
	bondID := strings.TrimSpace(c.Param("id"))

	asOf, err := parseOptionalTime(c.Query("as_of"), true)
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	at := timeNow()
	if asOf != nil {
		at = *asOf
	}

	resp, err := s.bondSvc.HoldingsAsOf(c.Request.Context(), bondID, at)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordHoldingRequest struct {
	MemberID   string          `json:"member_id"`
	BondID     string          `json:"bond_id"`
	BondShares decimal.Decimal `json:"bond_shares"`
	FaceValue  decimal.Decimal `json:"face_value"`
	AsOfDate   string          `json:"as_of_date"`
}

func (s *Server) RecordHolding(c *gin.Context) {
	var req recordHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	asOf, err := parseDate(req.AsOfDate)
	if err != nil {
		AbortWithError(c, newValidationError("as_of_date", "invalid_as_of_date", "invalid as_of_date"))
		return
	}

	resp, err := s.bondSvc.RecordHolding(c.Request.Context(), bonddomain.RecordHoldingRequest{
		MemberID:   strings.TrimSpace(req.MemberID),
		BondID:     strings.TrimSpace(req.BondID),
		BondShares: req.BondShares,
		FaceValue:  req.FaceValue,
		AsOfDate:   asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type previewPurchaseRequest struct {
	BondShares    decimal.Decimal `json:"bond_shares"`
	PurchaseDate  string          `json:"purchase_date"`
	MaturityYears int             `json:"maturity_years"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
}

func (s *Server) PreviewPurchase(c *gin.Context) {
	var req previewPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		AbortWithError(c, newValidationError("purchase_date", "invalid_purchase_date", "invalid purchase_date"))
		return
	}

	resp, err := s.bondSvc.PreviewPurchase(c.Request.Context(), bonddomain.PreviewPurchaseRequest{
		BondShares:    req.BondShares,
		PurchaseDate:  purchaseDate,
		MaturityYears: req.MaturityYears,
		DiscountRate:  req.DiscountRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordPurchaseRequest struct {
	MemberID      string          `json:"member_id"`
	BondID        string          `json:"bond_id"`
	PurchaseDate  string          `json:"purchase_date"`
	BondShares    decimal.Decimal `json:"bond_shares"`
	MaturityYears int             `json:"maturity_years"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
}

func (s *Server) RecordPurchase(c *gin.Context) {
	var req recordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		AbortWithError(c, newValidationError("purchase_date", "invalid_purchase_date", "invalid purchase_date"))
		return
	}

	resp, err := s.bondSvc.RecordPurchase(c.Request.Context(), bonddomain.RecordPurchaseRequest{
		MemberID:      strings.TrimSpace(req.MemberID),
		BondID:        strings.TrimSpace(req.BondID),
		PurchaseDate:  purchaseDate,
		BondShares:    req.BondShares,
		MaturityYears: req.MaturityYears,
		DiscountRate:  req.DiscountRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), "purchase.record", "bond_purchase", &targetID, map[string]any{
			"member_id":       resp.MemberID.String(),
			"bond_id":         resp.BondID.String(),
			"transaction_ref": resp.TransactionRef,
			"purchase_price":  resp.PurchasePrice.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type periodCouponRequest struct {
	FaceValue    decimal.Decimal `json:"face_value"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	AnnualRate   decimal.Decimal `json:"annual_rate"`
	CalendarDays int             `json:"calendar_days"`
}

func (s *Server) PeriodCoupon(c *gin.Context) {
	var req periodCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bondSvc.PeriodCoupon(c.Request.Context(), bonddomain.PeriodCouponRequest{
		FaceValue:    req.FaceValue,
		DailyRate:    req.DailyRate,
		AnnualRate:   req.AnnualRate,
		CalendarDays: req.CalendarDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isBondValidationError(err error) bool {
	switch err {
	case bonddomain.ErrInvalidID,
		bonddomain.ErrInvalidIssueName,
		bonddomain.ErrInvalidRate,
		bonddomain.ErrInvalidShares,
		bonddomain.ErrInvalidDate,
		bonddomain.ErrInvalidMaturity:
		return true
	default:
		return false
	}
}
