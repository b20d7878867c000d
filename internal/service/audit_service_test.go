package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
)

func TestRecordMasksSensitiveMetadata(t *testing.T) {
	env := newTestEnv(t)
	activityID := uint(42)

	entry, err := env.audit.Record(testContext(), AuditEntry{
		ActorID:    1,
		ActorRole:  models.RoleAdmin,
		Action:     "Review",
		EntityType: "Activity",
		EntityID:   &activityID,
		Metadata: map[string]interface{}{
			"decision":      "approved",
			"student_email": "ana@uni.test",
			"auth_token":    "secret",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "review", entry.Action)
	require.Equal(t, "activity", entry.EntityType)
	require.Equal(t, "approved", entry.Metadata["decision"])
	require.Equal(t, "***", entry.Metadata["student_email"])
	require.Equal(t, "***", entry.Metadata["auth_token"])
}

func TestRecordRequiresActionAndEntity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.audit.Record(testContext(), AuditEntry{EntityType: "activity"})
	require.Error(t, err)

	_, err = env.audit.Record(testContext(), AuditEntry{Action: "review"})
	require.Error(t, err)
}

func TestAuditListIsAdminOnlyAndFilters(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Root", "root@uni.test", models.RoleAdmin, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)

	_, err := env.audit.Record(testContext(), AuditEntry{ActorID: admin.ID, ActorRole: models.RoleAdmin, Action: "allocate", EntityType: "allocation"})
	require.NoError(t, err)
	_, err = env.audit.Record(testContext(), AuditEntry{ActorID: teacher.ID, ActorRole: models.RoleTeacher, Action: "review", EntityType: "activity"})
	require.NoError(t, err)

	_, err = env.audit.List(testContext(), env.actor(teacher), dto.AuditListRequest{})
	require.ErrorIs(t, err, ErrNotAuthorized)

	listed, err := env.audit.List(testContext(), env.actor(admin), dto.AuditListRequest{Action: "review"})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, "review", listed.Items[0].Action)
}
