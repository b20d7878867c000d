package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/service"
	"github.com/credtrack/credtrack-api/internal/utils"
)

// AllocationHandler wires the teacher-student allocation endpoints.
type AllocationHandler struct {
	service service.AllocationService
	logger  zerolog.Logger
}

// NewAllocationHandler constructs the handler.
func NewAllocationHandler(service service.AllocationService, logger zerolog.Logger) *AllocationHandler {
	return &AllocationHandler{
		service: service,
		logger:  logger.With().Str("component", "allocation_handler").Logger(),
	}
}

// Register attaches the allocation endpoints to the router group.
func (h *AllocationHandler) Register(router fiber.Router) {
	router.Post("/", h.allocate)
	router.Delete("/:id", h.deallocate)
	router.Get("/teacher/:id", h.listByTeacher)
	router.Get("/student/:id", h.getForStudent)
}

func (h *AllocationHandler) allocate(c *fiber.Ctx) error {
	var payload dto.AllocationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	allocations, err := h.service.Allocate(c.UserContext(), actor, payload)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to allocate students")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "students allocated", allocations)
}

func (h *AllocationHandler) deallocate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	if err := h.service.Deallocate(c.UserContext(), actor, id); err != nil {
		return sendServiceError(c, logger, err, "failed to remove allocation")
	}

	return utils.SendSuccess(c, "allocation removed", nil)
}

func (h *AllocationHandler) listByTeacher(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	students, err := h.service.ListStudentsByTeacher(c.UserContext(), actor, id)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to list allocated students")
	}

	return utils.SendSuccess(c, "allocated students", students)
}

func (h *AllocationHandler) getForStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	actor := actorFromContext(c)
	logger := requestLogger(h.logger, c)

	allocation, err := h.service.GetForStudent(c.UserContext(), actor, id)
	if err != nil {
		return sendServiceError(c, logger, err, "failed to load allocation")
	}

	if allocation == nil {
		return utils.SendSuccess(c, "student is unallocated", nil)
	}

	return utils.SendSuccess(c, "allocation", allocation)
}
