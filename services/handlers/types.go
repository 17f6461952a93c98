package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sayan-academy/sayan_api/dto"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	RequiredAuth() fiber.Handler
	RequireRole(role string) fiber.Handler
}

type VideoServiceInterface interface {
	CreateAccessToken(viewerID, videoID string, client dto.ClientInfo) (*dto.VideoAccessTokenResponse, error)
	Stream(c *fiber.Ctx, videoID, token string) error
	GetVideoInfo(viewerID, videoID string) (*dto.VideoInfoResponse, error)
	UploadLessonVideo(c *fiber.Ctx, uploaderID, uploaderRole, lessonID string) (*dto.VideoUploadResponse, error)
	LimiterStats() dto.StreamLimitStats
}
