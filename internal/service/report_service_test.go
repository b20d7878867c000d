package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
)

func newReportEnv(t *testing.T) (*testEnv, ReportService, *miniredis.Miniredis) {
	t.Helper()

	env := newTestEnv(t)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reports := NewReportService(env.activities, env.allocations, env.users, client, time.Minute, env.logger)

	return env, reports, server
}

func TestStudentSummaryAggregatesOutcomes(t *testing.T) {
	env, reports, _ := newReportEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	first, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Hackathon", ActivityType: models.ActivityTypeCompetition, Credits: 5,
	})
	require.NoError(t, err)
	_, err = env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Workshop", ActivityType: models.ActivityTypeWorkshop, Credits: 2,
	})
	require.NoError(t, err)

	_, err = env.activity.Review(testContext(), env.actor(teacher), first.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(4),
	})
	require.NoError(t, err)

	report, err := reports.StudentSummary(testContext(), env.actor(student), student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Pending)
	require.Equal(t, int64(1), report.Approved)
	require.Equal(t, int64(0), report.Rejected)
	require.Equal(t, float64(4), report.TotalCreditsAwarded)
}

func TestStudentSummaryServesCachedCopyUntilTTL(t *testing.T) {
	env, reports, server := newReportEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)

	first, err := reports.StudentSummary(testContext(), env.actor(student), student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), first.Pending)

	_, err = env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "New submission", ActivityType: models.ActivityTypeSeminar, Credits: 1,
	})
	require.NoError(t, err)

	// The cached projection may lag the workflow.
	cached, err := reports.StudentSummary(testContext(), env.actor(student), student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), cached.Pending)

	server.FastForward(2 * time.Minute)

	fresh, err := reports.StudentSummary(testContext(), env.actor(student), student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), fresh.Pending)
}

func TestStudentSummaryAuthorization(t *testing.T) {
	env, reports, _ := newReportEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	stranger := env.seedUser(t, "Bruno Dias", "bruno@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	unrelated := env.seedUser(t, "Dr. Lima", "lima@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	_, err := reports.StudentSummary(testContext(), env.actor(stranger), student.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = reports.StudentSummary(testContext(), env.actor(unrelated), student.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = reports.StudentSummary(testContext(), env.actor(teacher), student.ID)
	require.NoError(t, err)
}

func TestOverviewIsAdminOnly(t *testing.T) {
	env, reports, _ := newReportEnv(t)
	admin := env.seedUser(t, "Root", "root@uni.test", models.RoleAdmin, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusPending)

	_, err := reports.Overview(testContext(), env.actor(teacher))
	require.ErrorIs(t, err, ErrNotAuthorized)

	report, err := reports.Overview(testContext(), env.actor(admin))
	require.NoError(t, err)
	require.Equal(t, int64(1), report.UsersByStatus[models.UserStatusPending])
	require.Equal(t, int64(2), report.UsersByStatus[models.UserStatusApproved])
}
