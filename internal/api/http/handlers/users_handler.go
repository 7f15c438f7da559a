package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transit-rewards/internal/api/dto"
	"github.com/spec-kit/transit-rewards/internal/service"
	apperrors "github.com/spec-kit/transit-rewards/pkg/util"
)

// UsersHandler manages account and progression endpoints.
type UsersHandler struct {
	users   *service.UserService
	rewards *service.RewardService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, rewards *service.RewardService) *UsersHandler {
	return &UsersHandler{users: users, rewards: rewards}
}

// Register POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.Register(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromUser(user)})
}

// Level GET /users/:id/level.
func (h *UsersHandler) Level(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(user)})
}

// Progress GET /users/:id/progress.
func (h *UsersHandler) Progress(c *fiber.Ctx) error {
	view, err := h.rewards.GetProgress(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromProgress(view)})
}
