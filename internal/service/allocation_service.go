package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/observability"
	"github.com/credtrack/credtrack-api/internal/repository"
)

// AllocationService manages the assignment of students to teachers.
type AllocationService interface {
	Allocate(ctx context.Context, actor Actor, payload dto.AllocationCreateRequest) ([]dto.AllocationResponse, error)
	Deallocate(ctx context.Context, actor Actor, allocationID uint) error
	ListStudentsByTeacher(ctx context.Context, actor Actor, teacherID uint) ([]dto.AllocatedStudentResponse, error)
	GetForStudent(ctx context.Context, actor Actor, studentID uint) (*dto.AllocationResponse, error)
}

type allocationService struct {
	allocations repository.AllocationRepository
	users       repository.UserRepository
	validator   *validator.Validate
	notifier    NotificationPublisher
	audit       AuditRecorder
	logger      zerolog.Logger
}

// NewAllocationService constructs an AllocationService instance.
func NewAllocationService(allocations repository.AllocationRepository, users repository.UserRepository, validate *validator.Validate, notifier NotificationPublisher, audit AuditRecorder, logger zerolog.Logger) AllocationService {
	return &allocationService{
		allocations: allocations,
		users:       users,
		validator:   validate,
		notifier:    notifier,
		audit:       audit,
		logger:      logger.With().Str("component", "allocation_service").Logger(),
	}
}

// Allocate creates allocations for every student not already assigned to
// the teacher. Re-allocating an existing pair is a no-op, so the call is
// idempotent and safe to retry after partial failure.
func (s *allocationService) Allocate(ctx context.Context, actor Actor, payload dto.AllocationCreateRequest) ([]dto.AllocationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	teacher, err := s.users.GetByID(ctx, payload.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	if teacher.Role != models.RoleTeacher {
		return nil, ErrTeacherNotFound
	}

	results := make([]dto.AllocationResponse, 0, len(payload.StudentIDs))
	for _, studentID := range payload.StudentIDs {
		student, err := s.users.GetByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStudentNotFound
			}
			return nil, err
		}
		if student.Role != models.RoleStudent {
			return nil, ErrStudentNotFound
		}

		existing, err := s.allocations.FindByStudent(ctx, studentID)
		if err == nil {
			if existing.TeacherID == teacher.ID {
				results = append(results, dto.NewAllocationResponse(existing))
				continue
			}
			return nil, ErrStudentAllocated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		allocation := models.Allocation{TeacherID: teacher.ID, StudentID: student.ID}
		if err := s.allocations.Create(ctx, &allocation); err != nil {
			return nil, err
		}

		created, err := s.allocations.GetByID(ctx, allocation.ID)
		if err != nil {
			return nil, err
		}

		observability.AllocationsCreatedTotal().Inc()
		s.recordAudit(ctx, actor, "allocate", created.ID, map[string]interface{}{
			"teacher_id": teacher.ID,
			"student_id": student.ID,
		})
		s.notifyAllocation(ctx, teacher, student)

		results = append(results, dto.NewAllocationResponse(created))
	}

	s.logger.Info().Uint("teacher_id", teacher.ID).Int("students", len(payload.StudentIDs)).Msg("students allocated")

	return results, nil
}

func (s *allocationService) Deallocate(ctx context.Context, actor Actor, allocationID uint) error {
	if !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	allocation, err := s.allocations.GetByID(ctx, allocationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAllocationNotFound
		}
		return err
	}

	if err := s.allocations.Delete(ctx, allocationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAllocationNotFound
		}
		return err
	}

	s.recordAudit(ctx, actor, "deallocate", allocation.ID, map[string]interface{}{
		"teacher_id": allocation.TeacherID,
		"student_id": allocation.StudentID,
	})

	s.logger.Info().Uint("allocation_id", allocation.ID).Msg("allocation removed")

	return nil
}

func (s *allocationService) ListStudentsByTeacher(ctx context.Context, actor Actor, teacherID uint) ([]dto.AllocatedStudentResponse, error) {
	if actor.IsTeacher() {
		teacherID = actor.ID
	} else if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	allocations, err := s.allocations.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	students := make([]dto.AllocatedStudentResponse, 0, len(allocations))
	for _, allocation := range allocations {
		students = append(students, dto.AllocatedStudentResponse{
			AllocationID: allocation.ID,
			AllocatedAt:  allocation.CreatedAt,
			Student:      dto.NewUserResponse(allocation.Student),
		})
	}

	return students, nil
}

// GetForStudent returns the student's active allocation, or nil when the
// student is currently unassigned.
func (s *allocationService) GetForStudent(ctx context.Context, actor Actor, studentID uint) (*dto.AllocationResponse, error) {
	if actor.IsStudent() && actor.ID != studentID {
		return nil, ErrNotAuthorized
	}

	allocation, err := s.allocations.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if actor.IsTeacher() && allocation.TeacherID != actor.ID {
		return nil, ErrNotAuthorized
	}

	response := dto.NewAllocationResponse(allocation)

	return &response, nil
}

func (s *allocationService) notifyAllocation(ctx context.Context, teacher, student models.User) {
	if s.notifier == nil {
		return
	}

	notifications := []dto.NotificationCreateRequest{
		{
			UserID:  student.ID,
			Type:    models.NotificationTypeAllocation,
			Title:   "Teacher assigned",
			Message: fmt.Sprintf("%s will review your submitted activities.", teacher.FullName),
		},
		{
			UserID:  teacher.ID,
			Type:    models.NotificationTypeAllocation,
			Title:   "Student allocated",
			Message: fmt.Sprintf("%s has been added to your review queue.", student.FullName),
		},
	}

	for _, notification := range notifications {
		if _, err := s.notifier.Publish(ctx, notification); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", notification.UserID).Msg("failed to publish allocation notification")
		}
	}
}

func (s *allocationService) recordAudit(ctx context.Context, actor Actor, action string, allocationID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "allocation",
		EntityID:   &allocationID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record audit entry")
	}
}
