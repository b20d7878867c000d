package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/service"
	"github.com/credtrack/credtrack-api/internal/utils"
)

// AuditHandler exposes the admin-only audit trail listing.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the audit endpoints to the router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	var req dto.AuditListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	entries, err := h.service.List(c.UserContext(), actor, req)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to list audit entries")
	}

	return utils.SendSuccess(c, "audit entries", entries)
}
