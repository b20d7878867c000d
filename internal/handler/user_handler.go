package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/service"
	"github.com/credtrack/credtrack-api/internal/utils"
)

// UserHandler wires account listing and the admin approval gate.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches the user endpoints to the router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/approve", h.setStatus)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	var req dto.UserListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	users, err := h.service.List(c.UserContext(), actor, req)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to list users")
	}

	return utils.SendSuccess(c, "users", users)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	user, err := h.service.Get(c.UserContext(), actor, id)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to load user")
	}

	return utils.SendSuccess(c, "user", user)
}

func (h *UserHandler) setStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.UserStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	user, err := h.service.SetStatus(c.UserContext(), actor, id, payload)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to update user status")
	}

	return utils.SendSuccess(c, "user status updated", user)
}
