package model

import "time"

// Course is owned by the course subsystem; the streaming core only reads the
// ownership link when deciding access.
type Course struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"not null;index"` // academy / content-creator user
	Title     string    `json:"title" gorm:"not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Lesson struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	CourseID      string    `json:"course_id" gorm:"not null;index"`
	Title         string    `json:"title" gorm:"not null"`
	Order         int       `json:"order" gorm:"default:0"`
	IsFreePreview bool      `json:"is_free_preview" gorm:"default:false"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	ViewsCount    int64     `json:"views_count" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

// Enrollment records a learner's membership in a course. Only rows with
// Status == "active" grant streaming access; enrollment can lapse, which is
// why access is re-checked on every token mint.
type Enrollment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;index:idx_enrollment_user_course"`
	CourseID  string    `json:"course_id" gorm:"not null;index:idx_enrollment_user_course"`
	Status    string    `json:"status" gorm:"default:active;size:20"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
