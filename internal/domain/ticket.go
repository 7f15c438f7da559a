package domain

import "time"

// TicketStatus enumerates lifecycle states for reward tickets.
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusActive    TicketStatus = "active"
	TicketStatusExpired   TicketStatus = "expired"
	TicketStatusUsed      TicketStatus = "used"
)

// Ticket is a free-ride pass earned by crossing a level boundary.
// It is created available, becomes active on explicit activation
// (which stamps ActivatedDate and ExpiryDate), and is flipped to
// expired by the sweep once ExpiryDate has passed. Used is terminal
// and set by the external redemption flow.
type Ticket struct {
	ID            string
	UserID        string
	Days          int
	EarnedLevel   int
	EarnedDate    time.Time
	ActivatedDate *time.Time
	ExpiryDate    *time.Time
	Status        TicketStatus
	CreatedAt     time.Time
}
