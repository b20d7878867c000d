package dto

import (
	"time"

	"github.com/credtrack/credtrack-api/internal/models"
)

// UserListRequest describes admin user listing filters.
type UserListRequest struct {
	Role     string `query:"role" validate:"omitempty,oneof=admin teacher student"`
	Status   string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	Search   string `query:"search"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// UserStatusUpdateRequest carries an admin approval decision.
type UserStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// UserResponse is returned to API clients when viewing accounts.
type UserResponse struct {
	ID             uint      `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	Department     string    `json:"department"`
	StudentNumber  string    `json:"student_number,omitempty"`
	EmployeeNumber string    `json:"employee_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserListResponse bundles accounts with paging metadata.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:             model.ID,
		FullName:       model.FullName,
		Email:          model.Email,
		Role:           model.Role,
		Status:         model.Status,
		Department:     model.Department,
		StudentNumber:  model.StudentNumber,
		EmployeeNumber: model.EmployeeNumber,
		CreatedAt:      model.CreatedAt,
	}
}

// NewUserResponseSlice converts user models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}

	return responses
}
