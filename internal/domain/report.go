package domain

import "time"

// ReportStatus enumerates verification states for a delay report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusVerified ReportStatus = "verified"
	ReportStatusRejected ReportStatus = "rejected"
)

// Report is a commuter's claim that a bus is delayed at a station.
// Only the transition into verified status is credited toward level
// progress, and each report is credited at most once.
type Report struct {
	ID           string
	UserID       string
	RouteID      *string
	StationID    *string
	DelayMinutes *int
	BusNumber    *string
	Issue        string
	Status       ReportStatus
	ReportedTime time.Time
	VerifiedAt   *time.Time
}
