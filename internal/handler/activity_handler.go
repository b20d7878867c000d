package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/service"
	"github.com/credtrack/credtrack-api/internal/utils"
)

// ActivityHandler wires the activity submission and review endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the activity endpoints to the router group. The
// optional limiter is placed in front of the review route only.
func (h *ActivityHandler) Register(router fiber.Router, reviewLimiter fiber.Handler) {
	router.Get("/", h.list)
	router.Post("/", h.submit)
	router.Get("/pending", h.listPending)
	router.Get("/:id", h.get)
	router.Post("/:id/claim", h.claim)
	if reviewLimiter != nil {
		router.Post("/:id/review", reviewLimiter, h.review)
	} else {
		router.Post("/:id/review", h.review)
	}
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	var filter dto.ActivityFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	activities, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to list activities")
	}

	return utils.SendSuccess(c, "activities", activities)
}

func (h *ActivityHandler) submit(c *fiber.Ctx) error {
	var payload dto.ActivitySubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	activity, err := h.service.Submit(c.UserContext(), actor, payload)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to submit activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity submitted", activity)
}

func (h *ActivityHandler) listPending(c *fiber.Ctx) error {
	teacherID, err := parseQueryUint(c, "teacher_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid teacher id")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	queue, err := h.service.ListPending(c.UserContext(), actor, teacherID)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to list pending activities")
	}

	return utils.SendSuccess(c, "pending activities", queue)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	activity, err := h.service.Get(c.UserContext(), actor, id)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to load activity")
	}

	return utils.SendSuccess(c, "activity", activity)
}

func (h *ActivityHandler) claim(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	activity, err := h.service.Claim(c.UserContext(), actor, id)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to claim activity")
	}

	return utils.SendSuccess(c, "activity claimed", activity)
}

func (h *ActivityHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ActivityReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	activity, err := h.service.Review(c.UserContext(), actor, id, payload)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to review activity")
	}

	return utils.SendSuccess(c, "activity reviewed", activity)
}
