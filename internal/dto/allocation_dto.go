package dto

import (
	"time"

	"github.com/credtrack/credtrack-api/internal/models"
)

// AllocationCreateRequest assigns a batch of students to a teacher.
type AllocationCreateRequest struct {
	TeacherID  uint   `json:"teacher_id" validate:"required,gt=0"`
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,gt=0"`
}

// AllocationResponse is returned to API clients when viewing allocations.
type AllocationResponse struct {
	ID        uint          `json:"id"`
	TeacherID uint          `json:"teacher_id"`
	StudentID uint          `json:"student_id"`
	CreatedAt time.Time     `json:"created_at"`
	Teacher   *UserResponse `json:"teacher,omitempty"`
	Student   *UserResponse `json:"student,omitempty"`
}

// AllocatedStudentResponse pairs a student with their allocation row.
type AllocatedStudentResponse struct {
	AllocationID uint         `json:"allocation_id"`
	AllocatedAt  time.Time    `json:"allocated_at"`
	Student      UserResponse `json:"student"`
}

// NewAllocationResponse converts an Allocation model into a DTO.
func NewAllocationResponse(model models.Allocation) AllocationResponse {
	response := AllocationResponse{
		ID:        model.ID,
		TeacherID: model.TeacherID,
		StudentID: model.StudentID,
		CreatedAt: model.CreatedAt,
	}

	if model.Teacher.ID != 0 {
		teacher := NewUserResponse(model.Teacher)
		response.Teacher = &teacher
	}

	if model.Student.ID != 0 {
		student := NewUserResponse(model.Student)
		response.Student = &student
	}

	return response
}

// NewAllocationResponseSlice converts allocation models into DTOs.
func NewAllocationResponseSlice(allocations []models.Allocation) []AllocationResponse {
	responses := make([]AllocationResponse, 0, len(allocations))
	for _, allocation := range allocations {
		responses = append(responses, NewAllocationResponse(allocation))
	}

	return responses
}
