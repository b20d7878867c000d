package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/dto"
	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/repository"
)

// FileUploader stores an evidence file with the external file storage
// collaborator and returns its URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// EvidenceService attaches supporting files to pending activities.
type EvidenceService interface {
	Attach(ctx context.Context, actor Actor, activityID uint, file *multipart.FileHeader) (dto.ActivityFileResponse, error)
	ListFiles(ctx context.Context, actor Actor, activityID uint) ([]dto.ActivityFileResponse, error)
}

type evidenceService struct {
	files       repository.ActivityFileRepository
	activities  repository.ActivityRepository
	allocations repository.AllocationRepository
	uploader    FileUploader
	logger      zerolog.Logger
}

// NewEvidenceService constructs an EvidenceService instance.
func NewEvidenceService(files repository.ActivityFileRepository, activities repository.ActivityRepository, allocations repository.AllocationRepository, uploader FileUploader, logger zerolog.Logger) EvidenceService {
	return &evidenceService{
		files:       files,
		activities:  activities,
		allocations: allocations,
		uploader:    uploader,
		logger:      logger.With().Str("component", "evidence_service").Logger(),
	}
}

func (s *evidenceService) Attach(ctx context.Context, actor Actor, activityID uint, file *multipart.FileHeader) (dto.ActivityFileResponse, error) {
	if file == nil {
		return dto.ActivityFileResponse{}, ErrFileRequired
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityFileResponse{}, ErrActivityNotFound
		}
		return dto.ActivityFileResponse{}, err
	}

	if !actor.IsStudent() || activity.StudentID != actor.ID {
		return dto.ActivityFileResponse{}, ErrNotAuthorized
	}

	// Evidence is frozen once the review starts.
	if activity.Status != models.ActivityStatusPending {
		return dto.ActivityFileResponse{}, ErrInvalidTransition
	}

	if err := validateEvidenceType(file); err != nil {
		return dto.ActivityFileResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.ActivityFileResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	uploadURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.ActivityFileResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	reference := models.ActivityFile{
		ActivityID: activity.ID,
		Filename:   file.Filename,
		FileURL:    uploadURL,
	}

	if err := s.files.Create(ctx, &reference); err != nil {
		return dto.ActivityFileResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activity.ID).Str("filename", reference.Filename).Msg("evidence file attached")

	return dto.NewActivityFileResponse(reference), nil
}

func (s *evidenceService) ListFiles(ctx context.Context, actor Actor, activityID uint) ([]dto.ActivityFileResponse, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	if err := canViewActivity(ctx, s.allocations, actor, activity); err != nil {
		return nil, err
	}

	files, err := s.files.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ActivityFileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, dto.NewActivityFileResponse(file))
	}

	return responses, nil
}

func validateEvidenceType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "image/png", "image/jpeg"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}
