package model

import "time"

// Video is immutable once uploaded except for soft delete and view counters.
// StoragePath is the object key in origin storage; the streaming core
// resolves it to a local file through the storage service.
type Video struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	LessonID    string     `json:"lesson_id" gorm:"not null;index"`
	Title       string     `json:"title"`
	StoragePath string     `json:"-" gorm:"not null"`
	FileSize    int64      `json:"file_size" gorm:"default:0"`
	MimeType    string     `json:"mime_type" gorm:"default:video/mp4;size:100"`
	Duration    int        `json:"duration" gorm:"default:0"` // seconds
	Status      bool       `json:"status" gorm:"default:true"`
	ViewsCount  int64      `json:"views_count" gorm:"default:0"`
	DeletedAt   *time.Time `json:"-" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID"`
}

// IsActive reports whether the video is streamable (not soft-deleted and
// still enabled).
func (v *Video) IsActive() bool {
	return v.DeletedAt == nil && v.Status
}

// VideoViewLog is the best-effort analytics row written by the view
// recorder. Losing one of these must never abort a stream.
type VideoViewLog struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	VideoID   string    `json:"video_id" gorm:"not null;index"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	ClientIP  string    `json:"client_ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"size:512"`
	Reason    string    `json:"reason" gorm:"size:32"` // access decision that admitted the view
	CreatedAt time.Time `json:"created_at"`
}
