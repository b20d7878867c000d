package models

import "time"

// Allocation assigns a student to the teacher responsible for reviewing
// their activities. A student has at most one active allocation, enforced
// by the unique index on student_id.
type Allocation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	StudentID uint      `gorm:"not null;uniqueIndex" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	Teacher   User      `gorm:"foreignKey:TeacherID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Student   User      `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}
