package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/observability"
	"github.com/credtrack/credtrack-api/internal/repository"
)

// ActivityService orchestrates the submission and review workflow.
type ActivityService interface {
	Submit(ctx context.Context, actor Actor, payload dto.ActivitySubmitRequest) (dto.ActivityResponse, error)
	Claim(ctx context.Context, actor Actor, activityID uint) (dto.ActivityResponse, error)
	Review(ctx context.Context, actor Actor, activityID uint, payload dto.ActivityReviewRequest) (dto.ActivityResponse, error)
	ListPending(ctx context.Context, actor Actor, teacherID uint) ([]dto.ActivityResponse, error)
	List(ctx context.Context, actor Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error)
	Get(ctx context.Context, actor Actor, activityID uint) (dto.ActivityResponse, error)
}

type activityService struct {
	activities  repository.ActivityRepository
	allocations repository.AllocationRepository
	users       repository.UserRepository
	validator   *validator.Validate
	notifier    NotificationPublisher
	audit       AuditRecorder
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewActivityService constructs an ActivityService instance.
func NewActivityService(activities repository.ActivityRepository, allocations repository.AllocationRepository, users repository.UserRepository, validate *validator.Validate, notifier NotificationPublisher, audit AuditRecorder, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities:  activities,
		allocations: allocations,
		users:       users,
		validator:   validate,
		notifier:    notifier,
		audit:       audit,
		sanitizer:   bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/credtrack/credtrack-api/internal/service/activity"),
		logger:      logger.With().Str("component", "activity_service").Logger(),
		now:         time.Now,
	}
}

func (s *activityService) Submit(ctx context.Context, actor Actor, payload dto.ActivitySubmitRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	if !actor.IsStudent() {
		return dto.ActivityResponse{}, ErrNotAuthorized
	}

	student, err := requireApprovedAccount(ctx, s.users, actor)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	activity := models.Activity{
		StudentID:    student.ID,
		Title:        strings.TrimSpace(payload.Title),
		Description:  strings.TrimSpace(payload.Description),
		ActivityType: payload.ActivityType,
		Credits:      payload.Credits,
		Status:       models.ActivityStatusPending,
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	created, err := s.activities.GetByID(ctx, activity.ID)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	observability.ActivitiesSubmittedTotal().WithLabelValues(created.ActivityType).Inc()
	s.recordAudit(ctx, actor, "submit", created.ID, map[string]interface{}{
		"title":   created.Title,
		"credits": created.Credits,
	})

	s.logger.Info().Uint("activity_id", created.ID).Uint("student_id", student.ID).Msg("activity submitted")

	return dto.NewActivityResponse(created), nil
}

// Claim moves a pending activity into under_review so that a single teacher
// owns the decision. Claiming is optional; Review also accepts pending.
func (s *activityService) Claim(ctx context.Context, actor Actor, activityID uint) (dto.ActivityResponse, error) {
	if !actor.IsTeacher() && !actor.IsAdmin() {
		return dto.ActivityResponse{}, ErrNotAuthorized
	}

	if _, err := requireApprovedAccount(ctx, s.users, actor); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if err := s.authorizeReviewer(ctx, actor, activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	rows, err := s.activities.TransitionStatus(ctx, activity.ID, []string{models.ActivityStatusPending}, nil, map[string]interface{}{
		"status":      models.ActivityStatusUnderReview,
		"reviewer_id": actor.ID,
	})
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	if rows == 0 {
		return dto.ActivityResponse{}, ErrInvalidTransition
	}

	claimed, err := s.activities.GetByID(ctx, activity.ID)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	s.recordAudit(ctx, actor, "claim", claimed.ID, nil)
	s.logger.Info().Uint("activity_id", claimed.ID).Uint("reviewer_id", actor.ID).Msg("activity claimed for review")

	return dto.NewActivityResponse(claimed), nil
}

func (s *activityService) Review(ctx context.Context, actor Actor, activityID uint, payload dto.ActivityReviewRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	decision := strings.ToLower(payload.Status)
	comments := strings.TrimSpace(s.sanitizer.Sanitize(payload.Comments))

	if decision == models.ActivityStatusApproved && payload.CreditsAwarded == nil {
		return dto.ActivityResponse{}, ErrCreditsRequired
	}

	if decision == models.ActivityStatusRejected && comments == "" {
		return dto.ActivityResponse{}, ErrCommentsRequired
	}

	if !actor.IsTeacher() && !actor.IsAdmin() {
		return dto.ActivityResponse{}, ErrNotAuthorized
	}

	if _, err := requireApprovedAccount(ctx, s.users, actor); err != nil {
		return dto.ActivityResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "activities.review", trace.WithAttributes(
		attribute.Int64("activity.id", int64(activityID)),
		attribute.String("activity.decision", decision),
	))
	defer span.End()

	activity, err := s.activities.GetByID(spanCtx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	if err := s.authorizeReviewer(spanCtx, actor, activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	// A claimed activity belongs to the claiming teacher; admins may override.
	if activity.Status == models.ActivityStatusUnderReview && activity.ReviewerID != nil &&
		*activity.ReviewerID != actor.ID && !actor.IsAdmin() {
		return dto.ActivityResponse{}, ErrNotAuthorized
	}

	updates := map[string]interface{}{
		"status":      decision,
		"comments":    comments,
		"reviewer_id": actor.ID,
		"reviewed_at": s.now(),
	}
	if decision == models.ActivityStatusApproved {
		updates["credits_awarded"] = *payload.CreditsAwarded
	}

	// The predicate doubles as an optimistic lock: status must still be
	// reviewable and, for non-admins, the claim (if any) must be theirs.
	// The ownership check above ran on a row that may have been claimed
	// since it was loaded, so it cannot be trusted on its own.
	var ownGuard *uint
	if !actor.IsAdmin() {
		own := actor.ID
		ownGuard = &own
	}

	rows, err := s.activities.TransitionStatus(spanCtx, activity.ID, []string{models.ActivityStatusPending, models.ActivityStatusUnderReview}, ownGuard, updates)
	if err != nil {
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}
	if rows == 0 {
		return dto.ActivityResponse{}, s.loseReviewRace(spanCtx, actor, activity.ID)
	}

	reviewed, err := s.activities.GetByID(spanCtx, activity.ID)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	observability.ActivityReviewsTotal().WithLabelValues(decision).Inc()
	s.recordAudit(spanCtx, actor, "review", reviewed.ID, map[string]interface{}{
		"decision":        decision,
		"credits_awarded": reviewed.CreditsAwarded,
	})
	s.notifyStudent(spanCtx, reviewed)

	s.logger.Info().
		Uint("activity_id", reviewed.ID).
		Uint("reviewer_id", actor.ID).
		Str("decision", decision).
		Msg("activity reviewed")

	return dto.NewActivityResponse(reviewed), nil
}

func (s *activityService) ListPending(ctx context.Context, actor Actor, teacherID uint) ([]dto.ActivityResponse, error) {
	switch {
	case actor.IsTeacher():
		// Teachers only ever see their own queue.
		teacherID = actor.ID
	case actor.IsAdmin():
		if teacherID == 0 {
			return nil, ErrTeacherIDRequired
		}
	default:
		return nil, ErrNotAuthorized
	}

	if _, err := requireApprovedAccount(ctx, s.users, actor); err != nil {
		return nil, err
	}

	studentIDs, err := s.allocations.ListStudentIDsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	queue, err := s.activities.ListPendingForStudents(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponseSlice(queue), nil
}

func (s *activityService) List(ctx context.Context, actor Actor, filter dto.ActivityFilter) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.ActivityListResponse{}, err
	}

	if _, err := requireApprovedAccount(ctx, s.users, actor); err != nil {
		return dto.ActivityListResponse{}, err
	}

	repoFilter := repository.ActivityFilter{
		Status:       filter.Status,
		ActivityType: filter.ActivityType,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
	}

	switch {
	case actor.IsStudent():
		// Students are always scoped to their own submissions.
		own := actor.ID
		repoFilter.StudentID = &own
	case actor.IsTeacher():
		studentIDs, err := s.allocations.ListStudentIDsByTeacher(ctx, actor.ID)
		if err != nil {
			return dto.ActivityListResponse{}, err
		}
		if filter.StudentID != nil {
			if !containsID(studentIDs, *filter.StudentID) {
				return dto.ActivityListResponse{}, ErrNotAuthorized
			}
			repoFilter.StudentID = filter.StudentID
		} else {
			if studentIDs == nil {
				studentIDs = []uint{}
			}
			repoFilter.StudentIDs = studentIDs
		}
	case actor.IsAdmin():
		repoFilter.StudentID = filter.StudentID
	default:
		return dto.ActivityListResponse{}, ErrNotAuthorized
	}

	activities, total, err := s.activities.List(ctx, repoFilter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(filter.Page, 1),
		PageSize:   filter.PageSize,
		TotalItems: total,
	}
	if filter.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(filter.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.ActivityListResponse{Items: dto.NewActivityResponseSlice(activities), Pagination: pagination}, nil
}

func (s *activityService) Get(ctx context.Context, actor Actor, activityID uint) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if err := canViewActivity(ctx, s.allocations, actor, activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity), nil
}

// loseReviewRace translates a zero-row review update into the right error:
// 403 when the activity is still reviewable but claimed by someone else,
// 409 when it already reached a terminal status.
func (s *activityService) loseReviewRace(ctx context.Context, actor Actor, activityID uint) error {
	current, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return ErrInvalidTransition
	}

	if current.Status == models.ActivityStatusUnderReview && current.ReviewerID != nil && *current.ReviewerID != actor.ID {
		return ErrNotAuthorized
	}

	return ErrInvalidTransition
}

// authorizeReviewer verifies the actor may decide on the activity: admins
// always, teachers only when allocated to the submitting student.
func (s *activityService) authorizeReviewer(ctx context.Context, actor Actor, activity models.Activity) error {
	if actor.IsAdmin() {
		return nil
	}

	allocation, err := s.allocations.FindByStudent(ctx, activity.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAuthorized
		}
		return err
	}

	if allocation.TeacherID != actor.ID {
		return ErrNotAuthorized
	}

	return nil
}

func (s *activityService) notifyStudent(ctx context.Context, activity models.Activity) {
	if s.notifier == nil {
		return
	}

	title := "Activity rejected"
	message := fmt.Sprintf("Your activity %q was rejected. Reviewer feedback: %s", activity.Title, activity.Comments)
	if activity.Status == models.ActivityStatusApproved && activity.CreditsAwarded != nil {
		title = "Activity approved"
		message = fmt.Sprintf("Your activity %q was approved and awarded %.1f credits.", activity.Title, *activity.CreditsAwarded)
	}

	_, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  activity.StudentID,
		Type:    models.NotificationTypeActivityReviewed,
		Title:   title,
		Message: message,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to notify student about review decision")
	}
}

func (s *activityService) recordAudit(ctx context.Context, actor Actor, action string, activityID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "activity",
		EntityID:   &activityID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record audit entry")
	}
}

// canViewActivity enforces read visibility: the owning student, the
// allocated teacher, and admins.
func canViewActivity(ctx context.Context, allocations repository.AllocationRepository, actor Actor, activity models.Activity) error {
	if actor.IsAdmin() {
		return nil
	}

	if actor.IsStudent() {
		if activity.StudentID == actor.ID {
			return nil
		}
		return ErrNotAuthorized
	}

	if actor.IsTeacher() {
		allocation, err := allocations.FindByStudent(ctx, activity.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAuthorized
			}
			return err
		}
		if allocation.TeacherID == actor.ID {
			return nil
		}
	}

	return ErrNotAuthorized
}

func containsID(ids []uint, id uint) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
