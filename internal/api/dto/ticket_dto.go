package dto

import (
	"time"

	"github.com/spec-kit/transit-rewards/internal/domain"
)

// TicketResponse mirrors a stored reward ticket.
type TicketResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Days          int                 `json:"days"`
	EarnedLevel   int                 `json:"earned_level"`
	EarnedDate    time.Time           `json:"earned_date"`
	ActivatedDate *time.Time          `json:"activated_date"`
	ExpiryDate    *time.Time          `json:"expiry_date"`
	Status        domain.TicketStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

// FromTicket maps the domain aggregate to its response shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            ticket.ID,
		UserID:        ticket.UserID,
		Days:          ticket.Days,
		EarnedLevel:   ticket.EarnedLevel,
		EarnedDate:    ticket.EarnedDate,
		ActivatedDate: ticket.ActivatedDate,
		ExpiryDate:    ticket.ExpiryDate,
		Status:        ticket.Status,
		CreatedAt:     ticket.CreatedAt,
	}
}
