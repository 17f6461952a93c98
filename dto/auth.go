package dto

import "time"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum" example:"johndoe"`
	Password string `json:"password" validate:"required,strong_password" example:"SecurePass123!"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=learner academy" example:"learner"`
}

func (r RegisterRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required" example:"user@example.com"`
	Password        string `json:"password" validate:"required" example:"SecurePass123!"`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

type RegisterResponse struct {
	UserID  string `json:"user_id" example:"usr_123456789"`
	Message string `json:"message" example:"Registration successful"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn   int64    `json:"expires_in" example:"86400"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID        string    `json:"id" example:"usr_123456789"`
	Username  string    `json:"username" example:"johndoe"`
	Email     string    `json:"email" example:"user@example.com"`
	Role      string    `json:"role" example:"learner"`
	CreatedAt time.Time `json:"created_at" example:"2023-01-01T00:00:00Z"`
}

type TokenPair struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn   int64  `json:"expires_in" example:"86400"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}
