package service

import (
	"context"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/repository"
)

type testEnv struct {
	db            *gorm.DB
	users         repository.UserRepository
	allocations   repository.AllocationRepository
	activities    repository.ActivityRepository
	files         repository.ActivityFileRepository
	notifications NotificationService
	audit         AuditService
	activity      ActivityService
	allocation    AllocationService
	user          UserService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Allocation{},
		&models.Activity{},
		&models.ActivityFile{},
		&models.Notification{},
		&models.AuditLog{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	users := repository.NewUserRepository(db)
	allocations := repository.NewAllocationRepository(db)
	activities := repository.NewActivityRepository(db)
	files := repository.NewActivityFileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	audit := NewAuditService(auditRepo, logger)
	notifications := NewNotificationService(notificationRepo, nil, "", nil, validate, logger)

	return &testEnv{
		db:            db,
		users:         users,
		allocations:   allocations,
		activities:    activities,
		files:         files,
		notifications: notifications,
		audit:         audit,
		activity:      NewActivityService(activities, allocations, users, validate, notifications, audit, logger),
		allocation:    NewAllocationService(allocations, users, validate, notifications, audit, logger),
		user:          NewUserService(users, validate, notifications, audit, logger),
		validate:      validate,
		logger:        logger,
	}
}

func (e *testEnv) seedUser(t *testing.T, name, email, role, status string) models.User {
	t.Helper()
	user := models.User{
		FullName: name,
		Email:    email,
		Role:     role,
		Status:   status,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) seedAllocation(t *testing.T, teacherID, studentID uint) models.Allocation {
	t.Helper()
	allocation := models.Allocation{TeacherID: teacherID, StudentID: studentID}
	require.NoError(t, e.db.Create(&allocation).Error)
	return allocation
}

func (e *testEnv) actor(user models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

func (e *testEnv) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	var notifications []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("id ASC").Find(&notifications).Error)
	return notifications
}

func (e *testEnv) auditEntries(t *testing.T, entityType string) []models.AuditLog {
	t.Helper()
	var entries []models.AuditLog
	require.NoError(t, e.db.Where("entity_type = ?", entityType).Order("id ASC").Find(&entries).Error)
	return entries
}

func floatPtr(v float64) *float64 {
	return &v
}

func testContext() context.Context {
	return context.Background()
}
