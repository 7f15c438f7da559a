package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transit-rewards/internal/api/dto"
	"github.com/spec-kit/transit-rewards/internal/service"
)

// TicketsHandler manages reward-ticket endpoints.
type TicketsHandler struct {
	rewards *service.RewardService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(rewards *service.RewardService) *TicketsHandler {
	return &TicketsHandler{rewards: rewards}
}

// ListByUser GET /tickets/user/:userID.
func (h *TicketsHandler) ListByUser(c *fiber.Ctx) error {
	tickets, err := h.rewards.ListUserTickets(c.UserContext(), c.Params("userID"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Activate POST /tickets/:id/activate.
func (h *TicketsHandler) Activate(c *fiber.Ctx) error {
	ticket, err := h.rewards.ActivateTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "ticket activated",
		"ticket":  dto.FromTicket(ticket),
	})
}

// CleanupExpired POST /tickets/cleanup-expired.
func (h *TicketsHandler) CleanupExpired(c *fiber.Ctx) error {
	count, err := h.rewards.SweepExpiredTickets(c.UserContext(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"expired": count})
}
