package events

import (
	"time"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportCreated   EventType = "report_created"
	EventReportVerified  EventType = "report_verified"
	EventReportRejected  EventType = "report_rejected"
	EventLevelUp         EventType = "level_up"
	EventTicketActivated EventType = "ticket_activated"
	EventTicketsExpired  EventType = "tickets_expired"
)

// Event represents a domain event emitted by services. UserID is set
// on every event except the bulk expiry sweep.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ReportCreatedPayload payload.
type ReportCreatedPayload struct {
	ReportID  string  `json:"report_id"`
	RouteID   *string `json:"route_id,omitempty"`
	StationID *string `json:"station_id,omitempty"`
	Issue     string  `json:"issue"`
}

// ReportVerifiedPayload payload.
type ReportVerifiedPayload struct {
	ReportID      string `json:"report_id"`
	TotalVerified int    `json:"total_verified_reports"`
	Points        int    `json:"points"`
}

// ReportRejectedPayload payload.
type ReportRejectedPayload struct {
	ReportID string `json:"report_id"`
}

// IssuedTicket describes one ticket created by a level-up.
type IssuedTicket struct {
	TicketID    string `json:"ticket_id"`
	EarnedLevel int    `json:"earned_level"`
	Days        int    `json:"days"`
}

// LevelUpPayload payload.
type LevelUpPayload struct {
	OldLevel int            `json:"old_level"`
	NewLevel int            `json:"new_level"`
	Tickets  []IssuedTicket `json:"tickets"`
}

// TicketActivatedPayload payload.
type TicketActivatedPayload struct {
	TicketID      string              `json:"ticket_id"`
	Days          int                 `json:"days"`
	ActivatedDate *time.Time          `json:"activated_date,omitempty"`
	ExpiryDate    *time.Time          `json:"expiry_date,omitempty"`
	Status        domain.TicketStatus `json:"status"`
}

// TicketsExpiredPayload payload.
type TicketsExpiredPayload struct {
	Count int64     `json:"count"`
	AsOf  time.Time `json:"as_of"`
}
