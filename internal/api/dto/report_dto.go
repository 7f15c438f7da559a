package dto

import (
	"time"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

// CreateReportRequest payload.
type CreateReportRequest struct {
	UserID       string  `json:"user_id"`
	RouteID      *string `json:"route_id"`
	StationID    *string `json:"station_id"`
	DelayMinutes *int    `json:"delay"`
	BusNumber    *string `json:"bus_number"`
	Issue        string  `json:"issue"`
}

// ReportResponse mirrors a stored report.
type ReportResponse struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	RouteID      *string             `json:"route_id"`
	StationID    *string             `json:"station_id"`
	DelayMinutes *int                `json:"delay"`
	BusNumber    *string             `json:"bus_number"`
	Issue        string              `json:"issue"`
	Status       domain.ReportStatus `json:"status"`
	ReportedTime time.Time           `json:"reported_time"`
	VerifiedAt   *time.Time          `json:"verified_at"`
}

// FromReport maps the domain aggregate to its response shape.
func FromReport(report *domain.Report) ReportResponse {
	return ReportResponse{
		ID:           report.ID,
		UserID:       report.UserID,
		RouteID:      report.RouteID,
		StationID:    report.StationID,
		DelayMinutes: report.DelayMinutes,
		BusNumber:    report.BusNumber,
		Issue:        report.Issue,
		Status:       report.Status,
		ReportedTime: report.ReportedTime,
		VerifiedAt:   report.VerifiedAt,
	}
}
