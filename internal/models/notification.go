package models

import "time"

// Notification event types emitted by the workflow services.
const (
	NotificationTypeActivityReviewed = "activity_reviewed"
	NotificationTypeAccountDecision  = "account_decision"
	NotificationTypeAllocation       = "allocation"
	NotificationTypeGeneric          = "generic"
)

// Notification represents an in-app message targeted to a specific user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:64" json:"type"`
	Title     string    `gorm:"size:255" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
