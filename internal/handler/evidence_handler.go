package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/credtrack/credtrack-api/internal/service"
	"github.com/credtrack/credtrack-api/internal/utils"
)

// EvidenceHandler wires evidence file upload and listing onto the
// activities group.
type EvidenceHandler struct {
	service service.EvidenceService
	logger  zerolog.Logger
}

// NewEvidenceHandler constructs the handler.
func NewEvidenceHandler(service service.EvidenceService, logger zerolog.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		service: service,
		logger:  logger.With().Str("component", "evidence_handler").Logger(),
	}
}

// Register attaches the evidence endpoints to the activities group.
func (h *EvidenceHandler) Register(router fiber.Router) {
	router.Get("/:id/files", h.list)
	router.Post("/:id/files", h.attach)
}

func (h *EvidenceHandler) attach(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "evidence file is required")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	reference, err := h.service.Attach(c.UserContext(), actor, id, file)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to attach evidence file")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evidence file attached", reference)
}

func (h *EvidenceHandler) list(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	files, err := h.service.ListFiles(c.UserContext(), actor, id)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to list evidence files")
	}

	return utils.SendSuccess(c, "evidence files", files)
}
