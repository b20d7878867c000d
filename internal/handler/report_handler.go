package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/credtrack/credtrack-api/internal/service"
	"github.com/credtrack/credtrack-api/internal/utils"
)

// ReportHandler wires the aggregated credit report endpoints.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches the report endpoints to the router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/students/:id/credits", h.studentSummary)
	router.Get("/overview", h.overview)
}

func (h *ReportHandler) studentSummary(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	report, err := h.service.StudentSummary(c.UserContext(), actor, id)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to build student report")
	}

	return utils.SendSuccess(c, "student credit report", report)
}

func (h *ReportHandler) overview(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	report, err := h.service.Overview(c.UserContext(), actor)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to build overview report")
	}

	return utils.SendSuccess(c, "overview report", report)
}
