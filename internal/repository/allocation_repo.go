package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/models"
)

// AllocationRepository persists teacher-student assignments.
type AllocationRepository interface {
	GetByID(ctx context.Context, id uint) (models.Allocation, error)
	FindByStudent(ctx context.Context, studentID uint) (models.Allocation, error)
	Create(ctx context.Context, allocation *models.Allocation) error
	Delete(ctx context.Context, id uint) error
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Allocation, error)
	ListStudentIDsByTeacher(ctx context.Context, teacherID uint) ([]uint, error)
}

type allocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository constructs a GORM-backed allocation repository.
func NewAllocationRepository(db *gorm.DB) AllocationRepository {
	return &allocationRepository{db: db}
}

func (r *allocationRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Allocation{}).
		Preload("Teacher").
		Preload("Student")
}

func (r *allocationRepository) GetByID(ctx context.Context, id uint) (models.Allocation, error) {
	var allocation models.Allocation
	if err := r.baseQuery(ctx).First(&allocation, id).Error; err != nil {
		return models.Allocation{}, err
	}

	return allocation, nil
}

func (r *allocationRepository) FindByStudent(ctx context.Context, studentID uint) (models.Allocation, error) {
	var allocation models.Allocation
	if err := r.baseQuery(ctx).Where("student_id = ?", studentID).First(&allocation).Error; err != nil {
		return models.Allocation{}, err
	}

	return allocation, nil
}

func (r *allocationRepository) Create(ctx context.Context, allocation *models.Allocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

func (r *allocationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Allocation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *allocationRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Allocation, error) {
	var allocations []models.Allocation
	if err := r.baseQuery(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}

	return allocations, nil
}

func (r *allocationRepository) ListStudentIDsByTeacher(ctx context.Context, teacherID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Allocation{}).
		Where("teacher_id = ?", teacherID).
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}
