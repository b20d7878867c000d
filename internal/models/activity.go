package models

import "time"

// Activity review lifecycle states. Pending activities may be claimed into
// under_review by a teacher; approved and rejected are terminal.
const (
	ActivityStatusPending     = "pending"
	ActivityStatusUnderReview = "under_review"
	ActivityStatusApproved    = "approved"
	ActivityStatusRejected    = "rejected"
)

// MaxCreditsAwarded is the business ceiling for a single review decision.
const MaxCreditsAwarded = 10

// Activity categories students can submit under.
const (
	ActivityTypeCompetition      = "competition"
	ActivityTypeWorkshop         = "workshop"
	ActivityTypeSeminar          = "seminar"
	ActivityTypeInternship       = "internship"
	ActivityTypeCertification    = "certification"
	ActivityTypeCommunityService = "community_service"
	ActivityTypeResearch         = "research"
	ActivityTypeOther            = "other"
)

// Activity represents a student-submitted activity awaiting teacher review.
// CreditsAwarded stays nil until the activity is approved.
type Activity struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	StudentID      uint           `gorm:"not null;index" json:"student_id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	ActivityType   string         `gorm:"size:64;not null" json:"activity_type"`
	Credits        float64        `gorm:"not null" json:"credits"`
	CreditsAwarded *float64       `json:"credits_awarded"`
	Status         string         `gorm:"size:32;not null;default:pending;index" json:"status"`
	Comments       string         `gorm:"type:text" json:"comments"`
	ReviewerID     *uint          `json:"reviewer_id"`
	FilesCount     int            `gorm:"not null;default:0" json:"files_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ReviewedAt     *time.Time     `json:"reviewed_at"`
	Student        User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Files          []ActivityFile `json:"files"`
}

// IsTerminal reports whether the review decision has already been made.
func (a Activity) IsTerminal() bool {
	return a.Status == ActivityStatusApproved || a.Status == ActivityStatusRejected
}

// IsReviewable reports whether a review decision may still be applied.
func (a Activity) IsReviewable() bool {
	return a.Status == ActivityStatusPending || a.Status == ActivityStatusUnderReview
}

// ActivityFile references an evidence file stored by the external file
// storage collaborator. Only the URL and filename are kept locally.
type ActivityFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"not null;index" json:"activity_id"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	FileURL    string    `gorm:"size:512" json:"file_url"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// ValidActivityType reports whether the given type is a known category.
func ValidActivityType(activityType string) bool {
	switch activityType {
	case ActivityTypeCompetition, ActivityTypeWorkshop, ActivityTypeSeminar,
		ActivityTypeInternship, ActivityTypeCertification,
		ActivityTypeCommunityService, ActivityTypeResearch, ActivityTypeOther:
		return true
	}
	return false
}
