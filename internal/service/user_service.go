package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/repository"
)

// UserService exposes the admin registration approval gate and account
// listing projections.
type UserService interface {
	List(ctx context.Context, actor Actor, req dto.UserListRequest) (dto.UserListResponse, error)
	Get(ctx context.Context, actor Actor, userID uint) (dto.UserResponse, error)
	SetStatus(ctx context.Context, actor Actor, userID uint, payload dto.UserStatusUpdateRequest) (dto.UserResponse, error)
}

type userService struct {
	users     repository.UserRepository
	validator *validator.Validate
	notifier  NotificationPublisher
	audit     AuditRecorder
	logger    zerolog.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users repository.UserRepository, validate *validator.Validate, notifier NotificationPublisher, audit AuditRecorder, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		validator: validate,
		notifier:  notifier,
		audit:     audit,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, actor Actor, req dto.UserListRequest) (dto.UserListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserListResponse{}, err
	}

	if !actor.IsAdmin() {
		return dto.UserListResponse{}, ErrNotAuthorized
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Role:     req.Role,
		Status:   req.Status,
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.UserListResponse{Items: dto.NewUserResponseSlice(users), Pagination: pagination}, nil
}

func (s *userService) Get(ctx context.Context, actor Actor, userID uint) (dto.UserResponse, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return dto.UserResponse{}, ErrNotAuthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

// SetStatus applies an admin approval decision. Re-applying the same
// decision is a no-op; no side effects cascade onto existing activities.
func (s *userService) SetStatus(ctx context.Context, actor Actor, userID uint, payload dto.UserStatusUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	if !actor.IsAdmin() {
		return dto.UserResponse{}, ErrNotAuthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if user.Status == payload.Status {
		return dto.NewUserResponse(user), nil
	}

	updated, err := s.users.UpdateStatus(ctx, userID, payload.Status)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if s.audit != nil {
		if _, err := s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "set_status",
			EntityType: "user",
			EntityID:   &updated.ID,
			Metadata:   map[string]interface{}{"status": updated.Status},
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record audit entry")
		}
	}

	s.notifyDecision(ctx, updated)

	s.logger.Info().Uint("user_id", updated.ID).Str("status", updated.Status).Msg("account status updated")

	return dto.NewUserResponse(updated), nil
}

func (s *userService) notifyDecision(ctx context.Context, user models.User) {
	if s.notifier == nil {
		return
	}

	title := "Registration rejected"
	message := "Your registration was rejected. Contact an administrator for details."
	if user.Status == models.UserStatusApproved {
		title = "Registration approved"
		message = fmt.Sprintf("Welcome %s, your account has been approved.", user.FullName)
	}

	if _, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  user.ID,
		Type:    models.NotificationTypeAccountDecision,
		Title:   title,
		Message: message,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to publish account decision notification")
	}
}
