package models

import "time"

// Roles recognised by the portal.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Account statuses assigned by the admin approval gate.
const (
	UserStatusPending  = "pending"
	UserStatusApproved = "approved"
	UserStatusRejected = "rejected"
)

// User represents a registered portal account. Accounts start pending and
// only gain access to role-specific operations once an admin approves them.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FullName       string    `gorm:"size:255;not null" json:"full_name"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role           string    `gorm:"size:32;not null;index" json:"role"`
	Status         string    `gorm:"size:32;not null;default:pending;index" json:"status"`
	Department     string    `gorm:"size:255" json:"department"`
	StudentNumber  string    `gorm:"size:64" json:"student_number,omitempty"`
	EmployeeNumber string    `gorm:"size:64" json:"employee_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsApproved reports whether the account passed the admin approval gate.
func (u User) IsApproved() bool {
	return u.Status == UserStatusApproved
}
