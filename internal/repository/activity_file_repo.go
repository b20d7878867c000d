package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/models"
)

// ActivityFileRepository persists evidence file references.
type ActivityFileRepository interface {
	Create(ctx context.Context, file *models.ActivityFile) error
	ListByActivity(ctx context.Context, activityID uint) ([]models.ActivityFile, error)
}

type activityFileRepository struct {
	db *gorm.DB
}

// NewActivityFileRepository constructs a GORM-backed file reference repository.
func NewActivityFileRepository(db *gorm.DB) ActivityFileRepository {
	return &activityFileRepository{db: db}
}

// Create stores the file reference and bumps the owning activity's
// files_count in the same transaction.
func (r *activityFileRepository) Create(ctx context.Context, file *models.ActivityFile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}

		return tx.Model(&models.Activity{}).
			Where("id = ?", file.ActivityID).
			UpdateColumn("files_count", gorm.Expr("files_count + 1")).Error
	})
}

func (r *activityFileRepository) ListByActivity(ctx context.Context, activityID uint) ([]models.ActivityFile, error) {
	var files []models.ActivityFile
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("uploaded_at ASC").
		Find(&files).Error; err != nil {
		return nil, err
	}

	return files, nil
}
