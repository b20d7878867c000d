package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/repository"
)

func TestSubmitCreatesPendingActivity(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "National Robotics Hackathon",
		Description:  "48h robotics competition",
		ActivityType: models.ActivityTypeCompetition,
		Credits:      4,
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusPending, activity.Status)
	require.Equal(t, student.ID, activity.StudentID)
	require.Nil(t, activity.CreditsAwarded)

	entries := env.auditEntries(t, "activity")
	require.Len(t, entries, 1)
	require.Equal(t, "submit", entries[0].Action)
}

func TestSubmitRejectsUnapprovedStudent(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusPending)

	_, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Research seminar",
		ActivityType: models.ActivityTypeSeminar,
		Credits:      2,
	})
	require.ErrorIs(t, err, ErrAccountNotApproved)
}

func TestSubmitValidatesCreditBounds(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)

	_, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Oversized claim",
		ActivityType: models.ActivityTypeWorkshop,
		Credits:      11,
	})
	require.Error(t, err)
}

func TestReviewApproveAwardsCreditsAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Hackathon",
		ActivityType: models.ActivityTypeCompetition,
		Credits:      5,
	})
	require.NoError(t, err)

	reviewed, err := env.activity.Review(testContext(), env.actor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(3),
		Comments:       "Good work",
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.CreditsAwarded)
	require.Equal(t, float64(3), *reviewed.CreditsAwarded)
	require.NotNil(t, reviewed.ReviewerID)
	require.Equal(t, teacher.ID, *reviewed.ReviewerID)
	require.NotNil(t, reviewed.ReviewedAt)

	notifications := env.notificationsFor(t, student.ID)
	require.Len(t, notifications, 1)
	require.Equal(t, models.NotificationTypeActivityReviewed, notifications[0].Type)
}

func TestReviewTerminalActivityIsConflict(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Hackathon",
		ActivityType: models.ActivityTypeCompetition,
		Credits:      5,
	})
	require.NoError(t, err)

	_, err = env.activity.Review(testContext(), env.actor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(5),
	})
	require.NoError(t, err)

	_, err = env.activity.Review(testContext(), env.actor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:   models.ActivityStatusRejected,
		Comments: "changed my mind",
	})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewDecisionPayloadRules(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Workshop",
		ActivityType: models.ActivityTypeWorkshop,
		Credits:      2,
	})
	require.NoError(t, err)

	_, err = env.activity.Review(testContext(), env.actor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status: models.ActivityStatusApproved,
	})
	require.ErrorIs(t, err, ErrCreditsRequired)

	_, err = env.activity.Review(testContext(), env.actor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status: models.ActivityStatusRejected,
	})
	require.ErrorIs(t, err, ErrCommentsRequired)
}

func TestReviewByUnallocatedTeacherIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	other := env.seedUser(t, "Dr. Lima", "lima@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Internship report",
		ActivityType: models.ActivityTypeInternship,
		Credits:      6,
	})
	require.NoError(t, err)

	_, err = env.activity.Review(testContext(), env.actor(other), activity.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(6),
	})
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAdminCanReviewAnyActivity(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	admin := env.seedUser(t, "Root", "root@uni.test", models.RoleAdmin, models.UserStatusApproved)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Community service",
		ActivityType: models.ActivityTypeCommunityService,
		Credits:      1,
	})
	require.NoError(t, err)

	reviewed, err := env.activity.Review(testContext(), env.actor(admin), activity.ID, dto.ActivityReviewRequest{
		Status:   models.ActivityStatusRejected,
		Comments: "insufficient evidence",
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusRejected, reviewed.Status)
	require.Nil(t, reviewed.CreditsAwarded)
}

func TestClaimLocksDecisionToClaimingTeacher(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	admin := env.seedUser(t, "Root", "root@uni.test", models.RoleAdmin, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Certification exam",
		ActivityType: models.ActivityTypeCertification,
		Credits:      3,
	})
	require.NoError(t, err)

	claimed, err := env.activity.Claim(testContext(), env.actor(teacher), activity.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusUnderReview, claimed.Status)

	// Claiming an already claimed activity is a conflict.
	_, err = env.activity.Claim(testContext(), env.actor(teacher), activity.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Admins may override a claim; the claiming teacher keeps ownership
	// otherwise.
	reviewed, err := env.activity.Review(testContext(), env.actor(admin), activity.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(3),
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusApproved, reviewed.Status)
}

// claimRacingActivityRepo lands a rival claim right before the caller's
// status update, reproducing a claim that arrives after the reviewer loaded
// the activity but before their decision is written.
type claimRacingActivityRepo struct {
	repository.ActivityRepository
	rivalID uint
	raced   bool
}

func (r *claimRacingActivityRepo) TransitionStatus(ctx context.Context, id uint, fromStatuses []string, reviewerID *uint, updates map[string]interface{}) (int64, error) {
	if !r.raced {
		r.raced = true
		if _, err := r.ActivityRepository.TransitionStatus(ctx, id, []string{models.ActivityStatusPending}, nil, map[string]interface{}{
			"status":      models.ActivityStatusUnderReview,
			"reviewer_id": r.rivalID,
		}); err != nil {
			return 0, err
		}
	}
	return r.ActivityRepository.TransitionStatus(ctx, id, fromStatuses, reviewerID, updates)
}

func TestReviewRespectsClaimLandedAfterLoad(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	admin := env.seedUser(t, "Root", "root@uni.test", models.RoleAdmin, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title:        "Industry internship",
		ActivityType: models.ActivityTypeInternship,
		Credits:      5,
	})
	require.NoError(t, err)

	racing := &claimRacingActivityRepo{ActivityRepository: env.activities, rivalID: admin.ID}
	service := NewActivityService(racing, env.allocations, env.users, env.validate, env.notifications, env.audit, env.logger)

	// The teacher loads a still-pending activity; the admin's claim lands
	// before the teacher's decision. The decision must not overwrite it.
	_, err = service.Review(testContext(), env.actor(teacher), activity.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(2),
	})
	require.ErrorIs(t, err, ErrNotAuthorized)

	current, err := env.activities.GetByID(testContext(), activity.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusUnderReview, current.Status)
	require.NotNil(t, current.ReviewerID)
	require.Equal(t, admin.ID, *current.ReviewerID)

	// The claim holder still completes the review.
	reviewed, err := env.activity.Review(testContext(), env.actor(admin), activity.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(4),
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusApproved, reviewed.Status)
}

func TestListPendingIsScopedAndOrdered(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	second := env.seedUser(t, "Bruno Dias", "bruno@uni.test", models.RoleStudent, models.UserStatusApproved)
	outsider := env.seedUser(t, "Carla Melo", "carla@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	other := env.seedUser(t, "Dr. Lima", "lima@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, first.ID)
	env.seedAllocation(t, teacher.ID, second.ID)
	env.seedAllocation(t, other.ID, outsider.ID)

	a1, err := env.activity.Submit(testContext(), env.actor(first), dto.ActivitySubmitRequest{
		Title: "Oldest submission", ActivityType: models.ActivityTypeSeminar, Credits: 1,
	})
	require.NoError(t, err)
	a2, err := env.activity.Submit(testContext(), env.actor(second), dto.ActivitySubmitRequest{
		Title: "Newest submission", ActivityType: models.ActivityTypeSeminar, Credits: 1,
	})
	require.NoError(t, err)
	_, err = env.activity.Submit(testContext(), env.actor(outsider), dto.ActivitySubmitRequest{
		Title: "Outside the queue", ActivityType: models.ActivityTypeSeminar, Credits: 1,
	})
	require.NoError(t, err)

	queue, err := env.activity.ListPending(testContext(), env.actor(teacher), 0)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, a1.ID, queue[0].ID)
	require.Equal(t, a2.ID, queue[1].ID)
}

func TestListPendingRequiresTeacherIDForAdmins(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Root", "root@uni.test", models.RoleAdmin, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)

	_, err := env.activity.ListPending(testContext(), env.actor(admin), 0)
	require.ErrorIs(t, err, ErrTeacherIDRequired)

	queue, err := env.activity.ListPending(testContext(), env.actor(admin), teacher.ID)
	require.NoError(t, err)
	require.Empty(t, queue)
}

func TestListScopesStudentsToOwnSubmissions(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	other := env.seedUser(t, "Bruno Dias", "bruno@uni.test", models.RoleStudent, models.UserStatusApproved)

	_, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Mine", ActivityType: models.ActivityTypeResearch, Credits: 2,
	})
	require.NoError(t, err)
	_, err = env.activity.Submit(testContext(), env.actor(other), dto.ActivitySubmitRequest{
		Title: "Not mine", ActivityType: models.ActivityTypeResearch, Credits: 2,
	})
	require.NoError(t, err)

	// Student filters are ignored in favour of their own scope.
	otherID := other.ID
	listed, err := env.activity.List(testContext(), env.actor(student), dto.ActivityFilter{StudentID: &otherID})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, "Mine", listed.Items[0].Title)
}

func TestTeacherListRejectsForeignStudentFilter(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	foreign := env.seedUser(t, "Bruno Dias", "bruno@uni.test", models.RoleStudent, models.UserStatusApproved)
	foreignID := foreign.ID

	_, err := env.activity.List(testContext(), env.actor(teacher), dto.ActivityFilter{StudentID: &foreignID})
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestGetEnforcesVisibility(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	stranger := env.seedUser(t, "Bruno Dias", "bruno@uni.test", models.RoleStudent, models.UserStatusApproved)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Private entry", ActivityType: models.ActivityTypeOther, Credits: 1,
	})
	require.NoError(t, err)

	_, err = env.activity.Get(testContext(), env.actor(stranger), activity.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = env.activity.Get(testContext(), env.actor(student), activity.ID)
	require.NoError(t, err)
}
