package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
)

type stubUploader struct {
	uploads int
}

func (u *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	u.uploads++
	return "https://files.test/" + name, nil
}

func newEvidenceEnv(t *testing.T) (*testEnv, EvidenceService, *stubUploader) {
	t.Helper()

	env := newTestEnv(t)
	uploader := &stubUploader{}
	evidence := NewEvidenceService(env.files, env.activities, env.allocations, uploader, env.logger)

	return env, evidence, uploader
}

func evidenceFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
}

func TestAttachStoresEvidenceOnPendingActivity(t *testing.T) {
	env, evidence, uploader := newEvidenceEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Hackathon", ActivityType: models.ActivityTypeCompetition, Credits: 4,
	})
	require.NoError(t, err)

	reference, err := evidence.Attach(testContext(), env.actor(student), activity.ID, evidenceFile(t, "certificate.pdf", pdfBytes()))
	require.NoError(t, err)
	require.Equal(t, "certificate.pdf", reference.Filename)
	require.Equal(t, "https://files.test/certificate.pdf", reference.FileURL)
	require.Equal(t, 1, uploader.uploads)

	reloaded, err := env.activity.Get(testContext(), env.actor(student), activity.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.FilesCount)
	require.Len(t, reloaded.Files, 1)
}

func TestAttachRejectsNonOwner(t *testing.T) {
	env, evidence, _ := newEvidenceEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	other := env.seedUser(t, "Bruno Dias", "bruno@uni.test", models.RoleStudent, models.UserStatusApproved)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Workshop", ActivityType: models.ActivityTypeWorkshop, Credits: 2,
	})
	require.NoError(t, err)

	_, err = evidence.Attach(testContext(), env.actor(other), activity.ID, evidenceFile(t, "certificate.pdf", pdfBytes()))
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAttachRejectsReviewedActivity(t *testing.T) {
	env, evidence, _ := newEvidenceEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	admin := env.seedUser(t, "Root", "root@uni.test", models.RoleAdmin, models.UserStatusApproved)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Seminar", ActivityType: models.ActivityTypeSeminar, Credits: 1,
	})
	require.NoError(t, err)

	_, err = env.activity.Review(testContext(), env.actor(admin), activity.ID, dto.ActivityReviewRequest{
		Status:         models.ActivityStatusApproved,
		CreditsAwarded: floatPtr(1),
	})
	require.NoError(t, err)

	_, err = evidence.Attach(testContext(), env.actor(student), activity.ID, evidenceFile(t, "late.pdf", pdfBytes()))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAttachRejectsUnsupportedFileType(t *testing.T) {
	env, evidence, _ := newEvidenceEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Research", ActivityType: models.ActivityTypeResearch, Credits: 3,
	})
	require.NoError(t, err)

	_, err = evidence.Attach(testContext(), env.actor(student), activity.ID, evidenceFile(t, "notes.txt", []byte("plain text notes")))
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestListFilesHonoursVisibility(t *testing.T) {
	env, evidence, _ := newEvidenceEnv(t)
	student := env.seedUser(t, "Ana Silva", "ana@uni.test", models.RoleStudent, models.UserStatusApproved)
	teacher := env.seedUser(t, "Dr. Costa", "costa@uni.test", models.RoleTeacher, models.UserStatusApproved)
	stranger := env.seedUser(t, "Dr. Lima", "lima@uni.test", models.RoleTeacher, models.UserStatusApproved)
	env.seedAllocation(t, teacher.ID, student.ID)

	activity, err := env.activity.Submit(testContext(), env.actor(student), dto.ActivitySubmitRequest{
		Title: "Internship", ActivityType: models.ActivityTypeInternship, Credits: 6,
	})
	require.NoError(t, err)

	_, err = evidence.Attach(testContext(), env.actor(student), activity.ID, evidenceFile(t, "report.pdf", pdfBytes()))
	require.NoError(t, err)

	files, err := evidence.ListFiles(testContext(), env.actor(teacher), activity.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = evidence.ListFiles(testContext(), env.actor(stranger), activity.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)
}
