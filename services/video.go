package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sayan-academy/sayan_api/dto"
	"github.com/sayan-academy/sayan_api/model"
	"github.com/sayan-academy/sayan_api/shared"
)

// VideoService is the delivery pipeline: it ties access decisions, token
// minting, abuse checks, rate limiting and range serving together. Handlers
// stay thin; everything order-sensitive happens here.
type VideoService struct {
	appContext.DefaultService

	sqlSvc     *PostgresService
	redisSvc   *RedisService
	accessSvc  *VideoAccessService
	tokenSvc   *VideoTokenService
	guardSvc   *StreamGuardService
	limitSvc   *StreamLimitService
	streamSvc  *StreamService
	storageSvc *VideoStorageService
	viewLogSvc *ViewLogService
	minioSvc   *MinIOService
	monitorSvc *MonitoringService
}

const VIDEO_SVC = "video_svc"

// Upload constraints.
const maxUploadSize = 2 << 30

var allowedUploadExts = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".mkv": true,
}

func (svc VideoService) Id() string {
	return VIDEO_SVC
}

func (svc *VideoService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.accessSvc = svc.Service(VIDEO_ACCESS_SVC).(*VideoAccessService)
	svc.tokenSvc = svc.Service(VIDEO_TOKEN_SVC).(*VideoTokenService)
	svc.guardSvc = svc.Service(STREAM_GUARD_SVC).(*StreamGuardService)
	svc.limitSvc = svc.Service(STREAM_LIMIT_SVC).(*StreamLimitService)
	svc.streamSvc = svc.Service(STREAM_SVC).(*StreamService)
	svc.storageSvc = svc.Service(VIDEO_STORAGE_SVC).(*VideoStorageService)
	svc.viewLogSvc = svc.Service(VIEW_LOG_SVC).(*ViewLogService)
	svc.minioSvc = svc.Service(MINIO_SVC).(*MinIOService)
	svc.monitorSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

// CreateAccessToken re-checks access and mints a stream token bound to the
// caller's session.
func (svc *VideoService) CreateAccessToken(viewerID, videoID string, client dto.ClientInfo) (*dto.VideoAccessTokenResponse, error) {
	_, reason, err := svc.accessSvc.CheckAccess(viewerID, videoID)
	if err != nil {
		return nil, err
	}

	token, expiresIn, err := svc.tokenSvc.Mint(videoID, viewerID, client, 0)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue access token")
	}

	return &dto.VideoAccessTokenResponse{
		AccessToken: token,
		StreamURL:   fmt.Sprintf("/api/v1/videos/%s/stream?token=%s", videoID, token),
		ExpiresIn:   expiresIn,
		Reason:      reason,
	}, nil
}

// Stream runs the full admission pipeline and, when every gate passes, hands
// the byte stream to the client.
func (svc *VideoService) Stream(c *fiber.Ctx, videoID, token string) error {
	client := dto.ClientInfo{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}

	grant, err := svc.tokenSvc.Verify(token, client)
	if err != nil {
		return err
	}

	if grant.VideoID != videoID {
		return shared.NewUnauthorizedError(shared.CodeTokenVideoMismatch, "Token was issued for a different video")
	}

	profile := RequestProfile{
		UserAgent:  client.UserAgent,
		Referer:    c.Get(fiber.HeaderReferer),
		Accept:     c.Get(fiber.HeaderAccept),
		Range:      c.Get(fiber.HeaderRange),
		IfRange:    c.Get(fiber.HeaderIfRange),
		Connection: c.Get(fiber.HeaderConnection),
	}

	verdict := svc.guardSvc.Inspect(profile)
	if verdict.Blocked {
		svc.monitorSvc.RecordStreamBlocked(verdict.BlockReason)
		log.WithFields(log.Fields{
			"viewer_id": grant.ViewerID,
			"video_id":  videoID,
			"trigger":   verdict.BlockReason,
			"ip":        client.IP,
		}).Warn("Stream request blocked")
		// Vague on purpose; the trigger stays in the logs.
		return shared.NewForbiddenError(shared.CodeSuspiciousActivity, "Request refused")
	}

	allowed, info := svc.limitSvc.Allow(grant.ViewerID, verdict.Score)
	if !allowed {
		svc.monitorSvc.RecordStreamLimited()
		retryAfter := 5
		if info.ResetTime != nil {
			if secs := int(time.Until(*info.ResetTime).Seconds()) + 1; secs > 0 {
				retryAfter = secs
			}
		}
		msg := "Too many requests, slow down"
		if info.Suspicious {
			msg = "Suspicious activity detected, please wait"
		}
		return shared.NewTooManyRequestsError(msg, retryAfter)
	}

	video, err := svc.loadVideo(c.Context(), videoID)
	if err != nil {
		return err
	}

	path, size, err := svc.storageSvc.Resolve(c.Context(), video)
	if err != nil {
		return err
	}

	mime := video.MimeType
	if mime == "" {
		mime = svc.storageSvc.MimeFor(path)
	}

	// A view is a playback start, not every chunk fetch.
	if start, _, ok := svc.streamSvc.ParseRange(profile.Range, size); !ok || start == 0 {
		svc.viewLogSvc.Record(videoID, grant.ViewerID, client.IP, client.UserAgent, shared.ReasonTokenGrant)
	}

	svc.monitorSvc.StreamStarted()
	return svc.streamSvc.ServeFile(c, path, size, mime, profile.Range, func(sent int64) {
		svc.monitorSvc.RecordStreamBytes(sent)
		svc.monitorSvc.StreamFinished()
	})
}

// loadVideo reads through a short-lived redis cache: the stream endpoint is
// hit once per chunk, and the row barely changes between chunks. Cache
// failures fall straight through to the database.
func (svc *VideoService) loadVideo(ctx context.Context, videoID string) (*model.Video, error) {
	key := "video:meta:" + videoID

	if cached, err := svc.redisSvc.Get(ctx, key); err == nil && cached != "" {
		var video model.Video
		if sonic.UnmarshalString(cached, &video) == nil && video.ID == videoID {
			return &video, nil
		}
	}

	video, err := svc.sqlSvc.GetActiveVideo(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(shared.CodeVideoNotFound, "Video not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load video")
	}

	if encoded, err := sonic.MarshalString(video); err == nil {
		_ = svc.redisSvc.Set(ctx, key, encoded, 5*time.Minute)
	}

	return video, nil
}

// GetVideoInfo returns metadata plus the caller's current access decision.
func (svc *VideoService) GetVideoInfo(viewerID, videoID string) (*dto.VideoInfoResponse, error) {
	video, reason, err := svc.accessSvc.CheckAccess(viewerID, videoID)
	if err != nil {
		appErr, ok := shared.GetAppError(err)
		if !ok || appErr.Code != shared.CodeAccessDenied {
			return nil, err
		}

		// Denied viewers still see the listing entry, minus stream access.
		video, loadErr := svc.sqlSvc.GetActiveVideo(videoID)
		if loadErr != nil {
			return nil, shared.NewNotFoundError(shared.CodeVideoNotFound, "Video not found")
		}
		resp := videoInfoOf(video)
		resp.CanAccess = false
		resp.AccessReason = shared.CodeAccessDenied
		return resp, nil
	}

	resp := videoInfoOf(video)
	resp.CanAccess = true
	resp.AccessReason = reason
	return resp, nil
}

func videoInfoOf(video *model.Video) *dto.VideoInfoResponse {
	return &dto.VideoInfoResponse{
		VideoID:           video.ID,
		Title:             video.Title,
		LessonID:          video.LessonID,
		Duration:          video.Duration,
		DurationFormatted: formatDuration(video.Duration),
		FileSize:          video.FileSize,
		MimeType:          video.MimeType,
		ViewsCount:        video.ViewsCount,
	}
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "00:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// UploadLessonVideo pushes the file to origin storage and records the video
// row. Only the owning academy (or an admin) may attach a video.
func (svc *VideoService) UploadLessonVideo(c *fiber.Ctx, uploaderID, uploaderRole, lessonID string) (*dto.VideoUploadResponse, error) {
	lesson, err := svc.sqlSvc.GetLesson(lessonID)
	if err != nil {
		return nil, shared.NewNotFoundError(shared.CodeNotFound, "Lesson not found")
	}

	course, err := svc.sqlSvc.GetCourse(lesson.CourseID)
	if err != nil {
		return nil, shared.NewNotFoundError(shared.CodeNotFound, "Lesson not found")
	}

	if course.OwnerID != uploaderID && uploaderRole != shared.RoleAdmin {
		return nil, shared.NewForbiddenError(shared.CodeForbidden, "You do not own this course")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Missing video file")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedUploadExts[ext] {
		return nil, shared.NewBadRequestError(fmt.Errorf("extension %q", ext), "Unsupported video format")
	}
	if fileHeader.Size > maxUploadSize {
		return nil, shared.NewBadRequestError(fmt.Errorf("size %d", fileHeader.Size), "Video file is too large")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to read upload")
	}
	defer func(src io.ReadCloser) { _ = src.Close() }(src)

	videoUUID, _ := uuid.NewV7()
	videoID := videoUUID.String()
	objectName := fmt.Sprintf("lessons/%s/%s%s", lessonID, videoID, ext)

	mime := svc.storageSvc.MimeFor(fileHeader.Filename)
	if _, err := svc.minioSvc.UploadFile(c.Context(), objectName, src, fileHeader.Size, mime); err != nil {
		return nil, shared.NewInternalError(err, "Failed to store video")
	}

	video := &model.Video{
		ID:          videoID,
		LessonID:    lessonID,
		Title:       strings.TrimSuffix(fileHeader.Filename, ext),
		StoragePath: objectName,
		FileSize:    fileHeader.Size,
		MimeType:    mime,
		Status:      true,
	}

	if _, err := svc.sqlSvc.CreateVideo(video); err != nil {
		return nil, shared.NewInternalError(err, "Failed to record video")
	}

	log.WithFields(log.Fields{
		"video_id":  videoID,
		"lesson_id": lessonID,
		"size":      fileHeader.Size,
	}).Info("Lesson video uploaded")

	return &dto.VideoUploadResponse{
		VideoID:  videoID,
		LessonID: lessonID,
		FileName: fileHeader.Filename,
		FileSize: fileHeader.Size,
		MimeType: mime,
	}, nil
}

// LimiterStats augments the limiter snapshot with the guard's deny-list for
// the admin view.
func (svc *VideoService) LimiterStats() dto.StreamLimitStats {
	stats := svc.limitSvc.Stats()
	stats.BlockedRanges = svc.guardSvc.BlockedRanges()
	return stats
}
