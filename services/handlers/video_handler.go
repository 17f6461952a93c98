package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sayan-academy/sayan_api/dto"
	"github.com/sayan-academy/sayan_api/shared"
)

type VideoHandler struct {
	videoSvc VideoServiceInterface
}

func NewVideoHandler(videoSvc VideoServiceInterface) *VideoHandler {
	return &VideoHandler{videoSvc: videoSvc}
}

// @Summary Mint a video access token
// @Description Re-checks access and issues a short-lived stream token bound to the caller's session
// @Tags videos
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param videoId path string true "Video ID"
// @Success 200 {object} shared.Response{data=dto.VideoAccessTokenResponse}
// @Router /api/v1/videos/{videoId}/access-token [post]
func (h *VideoHandler) CreateAccessToken(c *fiber.Ctx) error {
	viewerID := c.Locals(shared.UserID).(string)
	videoID := c.Params("videoId")

	client := dto.ClientInfo{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	resp, err := h.videoSvc.CreateAccessToken(viewerID, videoID, client)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Access token issued", resp)
}

// @Summary Stream a video
// @Description Serves video bytes with HTTP Range support. Requires a valid stream token.
// @Tags videos
// @Produce octet-stream
// @Param videoId path string true "Video ID"
// @Param token query string true "Stream token"
// @Param Range header string false "Byte range"
// @Success 206
// @Success 200
// @Router /api/v1/videos/{videoId}/stream [get]
func (h *VideoHandler) Stream(c *fiber.Ctx) error {
	videoID := c.Params("videoId")

	token := c.Query("token")
	if token == "" {
		return shared.NewUnauthorizedError(shared.CodeInvalidToken, "Stream token is required")
	}

	return h.videoSvc.Stream(c, videoID, token)
}

// @Summary Get video metadata
// @Description Returns video details plus the caller's current access decision
// @Tags videos
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param videoId path string true "Video ID"
// @Success 200 {object} shared.Response{data=dto.VideoInfoResponse}
// @Router /api/v1/videos/{videoId}/info [get]
func (h *VideoHandler) GetVideoInfo(c *fiber.Ctx) error {
	viewerID := c.Locals(shared.UserID).(string)
	videoID := c.Params("videoId")

	resp, err := h.videoSvc.GetVideoInfo(viewerID, videoID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
