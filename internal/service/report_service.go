package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/repository"
)

// ReportService produces aggregated credit reports. Reports are read-only
// projections and may lag the workflow by up to the cache TTL.
type ReportService interface {
	StudentSummary(ctx context.Context, actor Actor, studentID uint) (dto.StudentCreditReport, error)
	Overview(ctx context.Context, actor Actor) (dto.OverviewReport, error)
}

type reportService struct {
	activities  repository.ActivityRepository
	allocations repository.AllocationRepository
	users       repository.UserRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewReportService builds the credit report aggregator.
func NewReportService(activities repository.ActivityRepository, allocations repository.AllocationRepository, users repository.UserRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ReportService {
	return &reportService{
		activities:  activities,
		allocations: allocations,
		users:       users,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "report_service").Logger(),
	}
}

func (s *reportService) StudentSummary(ctx context.Context, actor Actor, studentID uint) (dto.StudentCreditReport, error) {
	if err := s.authorizeStudentReport(ctx, actor, studentID); err != nil {
		return dto.StudentCreditReport{}, err
	}

	cacheKey := fmt.Sprintf("report:student:%d", studentID)
	if cached, ok := s.readCache(ctx, cacheKey); ok {
		var report dto.StudentCreditReport
		if err := json.Unmarshal(cached, &report); err == nil {
			s.logger.Debug().Uint("student_id", studentID).Msg("student report cache hit")
			return report, nil
		}
	}

	counts, err := s.activities.CountByStatus(ctx, &studentID)
	if err != nil {
		return dto.StudentCreditReport{}, err
	}

	total, err := s.activities.SumCreditsAwarded(ctx, &studentID)
	if err != nil {
		return dto.StudentCreditReport{}, err
	}

	report := dto.StudentCreditReport{
		StudentID:           studentID,
		Pending:             counts[models.ActivityStatusPending],
		UnderReview:         counts[models.ActivityStatusUnderReview],
		Approved:            counts[models.ActivityStatusApproved],
		Rejected:            counts[models.ActivityStatusRejected],
		TotalCreditsAwarded: total,
	}

	s.writeCache(ctx, cacheKey, report)

	return report, nil
}

func (s *reportService) Overview(ctx context.Context, actor Actor) (dto.OverviewReport, error) {
	if !actor.IsAdmin() {
		return dto.OverviewReport{}, ErrNotAuthorized
	}

	cacheKey := "report:overview"
	if cached, ok := s.readCache(ctx, cacheKey); ok {
		var report dto.OverviewReport
		if err := json.Unmarshal(cached, &report); err == nil {
			s.logger.Debug().Msg("overview report cache hit")
			return report, nil
		}
	}

	activityCounts, err := s.activities.CountByStatus(ctx, nil)
	if err != nil {
		return dto.OverviewReport{}, err
	}

	userCounts, err := s.users.CountByStatus(ctx)
	if err != nil {
		return dto.OverviewReport{}, err
	}

	total, err := s.activities.SumCreditsAwarded(ctx, nil)
	if err != nil {
		return dto.OverviewReport{}, err
	}

	report := dto.OverviewReport{
		ActivitiesByStatus:  activityCounts,
		UsersByStatus:       userCounts,
		TotalCreditsAwarded: total,
	}

	s.writeCache(ctx, cacheKey, report)

	return report, nil
}

// authorizeStudentReport lets the student see their own summary, the
// allocated teacher their students', and admins anyone's.
func (s *reportService) authorizeStudentReport(ctx context.Context, actor Actor, studentID uint) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsStudent():
		if actor.ID == studentID {
			return nil
		}
		return ErrNotAuthorized
	case actor.IsTeacher():
		allocation, err := s.allocations.FindByStudent(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAuthorized
			}
			return err
		}
		if allocation.TeacherID == actor.ID {
			return nil
		}
		return ErrNotAuthorized
	default:
		return ErrNotAuthorized
	}
}

func (s *reportService) readCache(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
		return nil, false
	}

	return []byte(cached), true
}

func (s *reportService) writeCache(ctx context.Context, key string, report interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store report cache")
	}
}
