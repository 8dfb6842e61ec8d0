package domain

import "context"

type ReportRequest struct {
	// BondID narrows the report to one issue; empty means every event.
	BondID string `json:"bond_id"`
}

type Service interface {
	Report(ctx context.Context, req ReportRequest) (AuditReport, error)
}
