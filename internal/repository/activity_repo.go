package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/models"
)

// ActivityFilter narrows activity listing queries. StudentIDs scopes the
// result to an allocation set and takes precedence over no scoping; a nil
// slice means unscoped, an empty slice matches nothing.
type ActivityFilter struct {
	StudentID    *uint
	StudentIDs   []uint
	Status       *string
	ActivityType *string
	Page         int
	PageSize     int
}

// ActivityRepository defines data operations for submitted activities.
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	ListPendingForStudents(ctx context.Context, studentIDs []uint) ([]models.Activity, error)
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	TransitionStatus(ctx context.Context, id uint, fromStatuses []string, reviewerID *uint, updates map[string]interface{}) (int64, error)
	CountByStatus(ctx context.Context, studentID *uint) (map[string]int64, error)
	SumCreditsAwarded(ctx context.Context, studentID *uint) (float64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs a GORM-backed activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Activity{}).
		Preload("Student").
		Preload("Files")
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := r.baseQuery(ctx)

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.StudentIDs != nil {
		query = query.Where("student_id IN ?", filter.StudentIDs)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.ActivityType != nil {
		query = query.Where("activity_type = ?", *filter.ActivityType)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var activities []models.Activity
	if err := query.Order("created_at DESC").Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

// ListPendingForStudents returns the FIFO review queue: pending activities
// belonging to the given students, oldest submission first.
func (r *activityRepository) ListPendingForStudents(ctx context.Context, studentIDs []uint) ([]models.Activity, error) {
	if len(studentIDs) == 0 {
		return []models.Activity{}, nil
	}

	var activities []models.Activity
	if err := r.baseQuery(ctx).
		Where("student_id IN ?", studentIDs).
		Where("status = ?", models.ActivityStatusPending).
		Order("created_at ASC, id ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.baseQuery(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// TransitionStatus applies updates only while the activity is still in one
// of fromStatuses. A non-nil reviewerID additionally requires the activity
// to be unclaimed or already claimed by that reviewer, so the ownership
// check happens in the same statement as the status predicate. The returned
// row count is zero when another writer got there first.
func (r *activityRepository) TransitionStatus(ctx context.Context, id uint, fromStatuses []string, reviewerID *uint, updates map[string]interface{}) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", id).
		Where("status IN ?", fromStatuses)
	if reviewerID != nil {
		query = query.Where("reviewer_id IS NULL OR reviewer_id = ?", *reviewerID)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *activityRepository) CountByStatus(ctx context.Context, studentID *uint) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	query := r.db.WithContext(ctx).Model(&models.Activity{}).
		Select("status, COUNT(*) as count").
		Group("status")
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, entry := range rows {
		counts[entry.Status] = entry.Count
	}

	return counts, nil
}

func (r *activityRepository) SumCreditsAwarded(ctx context.Context, studentID *uint) (float64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("status = ?", models.ActivityStatusApproved)
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var total *float64
	if err := query.Select("SUM(credits_awarded)").Scan(&total).Error; err != nil {
		return 0, err
	}

	if total == nil {
		return 0, nil
	}

	return *total, nil
}
