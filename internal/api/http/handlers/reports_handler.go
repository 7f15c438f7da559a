package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transit-rewards/internal/api/dto"
	"github.com/spec-kit/transit-rewards/internal/domain"
	"github.com/spec-kit/transit-rewards/internal/service"
	apperrors "github.com/spec-kit/transit-rewards/pkg/util"
)

// ReportsHandler manages delay-report endpoints.
type ReportsHandler struct {
	reports *service.ReportService
	rewards *service.RewardService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService, rewards *service.RewardService) *ReportsHandler {
	return &ReportsHandler{reports: reports, rewards: rewards}
}

// Create POST /reports.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.Issue == "" {
		return apperrors.NewValidationError("user_id and issue required", nil)
	}

	report, err := h.reports.CreateReport(c.UserContext(), service.ReportCreateInput{
		UserID:       req.UserID,
		RouteID:      req.RouteID,
		StationID:    req.StationID,
		DelayMinutes: req.DelayMinutes,
		BusNumber:    req.BusNumber,
		Issue:        req.Issue,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromReport(report)})
}

// ListByUser GET /reports/user/:userID.
func (h *ReportsHandler) ListByUser(c *fiber.Ctx) error {
	var status *domain.ReportStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.ReportStatus(raw)
		status = &s
	}

	reports, err := h.reports.ListUserReports(c.UserContext(), c.Params("userID"), status)
	if err != nil {
		return err
	}
	items := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, dto.FromReport(&reports[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Verify PATCH /reports/:id/verify. Runs the full credit reaction.
func (h *ReportsHandler) Verify(c *fiber.Ctx) error {
	result, err := h.rewards.VerifyReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	response := fiber.Map{
		"message": "report verified",
		"report":  dto.FromReport(result.Report),
	}
	if result.Credited && result.NewLevel > result.OldLevel {
		tickets := make([]dto.TicketResponse, 0, len(result.Tickets))
		for i := range result.Tickets {
			tickets = append(tickets, dto.FromTicket(&result.Tickets[i]))
		}
		response["level_up"] = fiber.Map{
			"old_level": result.OldLevel,
			"new_level": result.NewLevel,
			"tickets":   tickets,
		}
	}
	return c.JSON(response)
}

// Reject PATCH /reports/:id/reject.
func (h *ReportsHandler) Reject(c *fiber.Ctx) error {
	report, err := h.rewards.RejectReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "report rejected",
		"report":  dto.FromReport(report),
	})
}
