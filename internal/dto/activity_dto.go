package dto

import (
	"time"

	"github.com/credtrack/credtrack-api/internal/models"
)

// ActivitySubmitRequest describes a student activity submission.
type ActivitySubmitRequest struct {
	Title        string  `json:"title" validate:"required,min=3,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=4000"`
	ActivityType string  `json:"activity_type" validate:"required,oneof=competition workshop seminar internship certification community_service research other"`
	Credits      float64 `json:"credits" validate:"required,gt=0,lte=10"`
}

// ActivityReviewRequest carries a teacher's review decision.
type ActivityReviewRequest struct {
	Status         string   `json:"status" validate:"required,oneof=approved rejected"`
	Comments       string   `json:"comments" validate:"omitempty,max=4000"`
	CreditsAwarded *float64 `json:"credits_awarded" validate:"omitempty,gt=0,lte=10"`
}

// ActivityFilter describes query string filters for listing activities.
type ActivityFilter struct {
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=pending under_review approved rejected"`
	ActivityType *string `query:"activity_type" validate:"omitempty,oneof=competition workshop seminar internship certification community_service research other"`
	Page         int     `query:"page" validate:"omitempty,gte=1"`
	PageSize     int     `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ActivityFileResponse serializes an evidence file reference.
type ActivityFileResponse struct {
	ID         uint      `json:"id"`
	ActivityID uint      `json:"activity_id"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ActivityResponse is returned to API clients when viewing activities.
type ActivityResponse struct {
	ID             uint                   `json:"id"`
	StudentID      uint                   `json:"student_id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	ActivityType   string                 `json:"activity_type"`
	Credits        float64                `json:"credits"`
	CreditsAwarded *float64               `json:"credits_awarded"`
	Status         string                 `json:"status"`
	Comments       string                 `json:"comments"`
	ReviewerID     *uint                  `json:"reviewer_id"`
	FilesCount     int                    `json:"files_count"`
	CreatedAt      time.Time              `json:"created_at"`
	ReviewedAt     *time.Time             `json:"reviewed_at"`
	Student        StudentLite            `json:"student"`
	Files          []ActivityFileResponse `json:"files"`
}

// ActivityListResponse bundles activities with paging metadata.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityFileResponse converts an ActivityFile model into a DTO.
func NewActivityFileResponse(model models.ActivityFile) ActivityFileResponse {
	return ActivityFileResponse{
		ID:         model.ID,
		ActivityID: model.ActivityID,
		Filename:   model.Filename,
		FileURL:    model.FileURL,
		UploadedAt: model.UploadedAt,
	}
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	response := ActivityResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		Title:          model.Title,
		Description:    model.Description,
		ActivityType:   model.ActivityType,
		Credits:        model.Credits,
		CreditsAwarded: model.CreditsAwarded,
		Status:         model.Status,
		Comments:       model.Comments,
		ReviewerID:     model.ReviewerID,
		FilesCount:     model.FilesCount,
		CreatedAt:      model.CreatedAt,
		ReviewedAt:     model.ReviewedAt,
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:       model.Student.ID,
			FullName: model.Student.FullName,
			Email:    model.Student.Email,
		}
	}

	if len(model.Files) > 0 {
		files := make([]ActivityFileResponse, 0, len(model.Files))
		for _, file := range model.Files {
			files = append(files, NewActivityFileResponse(file))
		}
		response.Files = files
	}

	return response
}

// NewActivityResponseSlice converts activity models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}

	return responses
}
