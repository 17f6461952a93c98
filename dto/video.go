package dto

import "time"

// ==================== VIDEO ACCESS DTOs ====================

type VideoAccessTokenResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	StreamURL   string `json:"stream_url" example:"/api/v1/videos/vid_123/stream?token=..."`
	ExpiresIn   int64  `json:"expires_in" example:"7200"`
	Reason      string `json:"reason" example:"ENROLLED"`
}

type VideoInfoResponse struct {
	VideoID           string `json:"video_id"`
	Title             string `json:"title"`
	LessonID          string `json:"lesson_id"`
	Duration          int    `json:"duration"`
	DurationFormatted string `json:"duration_formatted"`
	FileSize          int64  `json:"file_size"`
	MimeType          string `json:"mime_type"`
	ViewsCount        int64  `json:"views_count"`
	CanAccess         bool   `json:"can_access"`
	AccessReason      string `json:"access_reason"`
}

type VideoUploadResponse struct {
	VideoID  string `json:"video_id"`
	LessonID string `json:"lesson_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// ==================== CLIENT / RATE LIMIT DTOs ====================

// ClientInfo is the network/browser context a video token is bound to.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type RateLimitInfo struct {
	Allowed    bool       `json:"allowed"`
	Remaining  int        `json:"remaining"`
	Suspicious bool       `json:"suspicious"`
	ResetTime  *time.Time `json:"reset_time,omitempty"`
}

type StreamLimitStats struct {
	TrackedViewers int            `json:"tracked_viewers"`
	NormalLimit    int            `json:"normal_limit"`
	NormalWindow   string         `json:"normal_window"`
	StrictLimit    int            `json:"strict_limit"`
	StrictWindow   string         `json:"strict_window"`
	BlockedRanges  []string       `json:"blocked_ranges"`
	Timestamp      time.Time      `json:"timestamp"`
	Extra          map[string]int `json:"extra,omitempty"`
}
