package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sayan-academy/sayan_api/shared"
)

type AdminHandler struct {
	videoSvc VideoServiceInterface
}

func NewAdminHandler(videoSvc VideoServiceInterface) *AdminHandler {
	return &AdminHandler{videoSvc: videoSvc}
}

// @Summary Upload a lesson video
// @Description Pushes the video to origin storage and attaches it to the lesson
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param lessonId path string true "Lesson ID"
// @Param file formData file true "Video file"
// @Success 201 {object} shared.Response{data=dto.VideoUploadResponse}
// @Router /api/v1/admin/lessons/{lessonId}/video [post]
func (h *AdminHandler) UploadLessonVideo(c *fiber.Ctx) error {
	uploaderID := c.Locals(shared.UserID).(string)
	uploaderRole, _ := c.Locals(shared.UserRole).(string)
	lessonID := c.Params("lessonId")

	resp, err := h.videoSvc.UploadLessonVideo(c, uploaderID, uploaderRole, lessonID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Video uploaded successfully", resp)
}

// @Summary Stream limiter stats
// @Description Point-in-time snapshot of the stream rate limiter
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.StreamLimitStats}
// @Router /api/v1/admin/stream/limits [get]
func (h *AdminHandler) GetStreamLimits(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, "Success", h.videoSvc.LimiterStats())
}
