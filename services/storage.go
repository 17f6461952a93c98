package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/sayan-academy/sayan_api/model"
	"github.com/sayan-academy/sayan_api/shared"
)

// VideoStorageService resolves a video row to a local, seekable file. Videos
// whose storage path points at the object store are pulled into the local
// cache directory on first access and served from there afterwards.
type VideoStorageService struct {
	appContext.DefaultService

	minioSvc *MinIOService

	cacheDir string
}

// Anything below this is a truncated or failed upload, not a playable video.
const minPlayableSize = 1000

const VIDEO_STORAGE_SVC = "video_storage_svc"

func (svc VideoStorageService) Id() string {
	return VIDEO_STORAGE_SVC
}

func (svc *VideoStorageService) Configure(ctx *appContext.Context) error {
	svc.cacheDir = os.Getenv("VIDEO_STORAGE_PATH")
	if svc.cacheDir == "" {
		svc.cacheDir = "./data/videos"
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *VideoStorageService) Start() error {
	svc.minioSvc = svc.Service(MINIO_SVC).(*MinIOService)

	if err := os.MkdirAll(svc.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create video cache dir: %v", err)
	}
	return nil
}

// Resolve returns the local path and on-disk size for a video, filling the
// cache from the object store when needed.
func (svc *VideoStorageService) Resolve(ctx context.Context, video *model.Video) (string, int64, error) {
	path := video.StoragePath

	if !filepath.IsAbs(path) {
		path = filepath.Join(svc.cacheDir, filepath.Base(video.StoragePath))
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		log.WithFields(log.Fields{"video_id": video.ID, "object": video.StoragePath}).
			Info("Filling stream cache from object store")

		if err := svc.minioSvc.FetchToFile(ctx, video.StoragePath, path); err != nil {
			return "", 0, shared.NewNotFoundError(shared.CodeVideoNotFound, "Video file is not available")
		}
		info, err = os.Stat(path)
	}
	if err != nil {
		return "", 0, shared.NewInternalError(err, "Failed to stat video file")
	}

	if info.Size() < minPlayableSize {
		return "", 0, shared.NewUnprocessableError(shared.CodeCorruptFile, "Video file is corrupt or incomplete")
	}

	return path, info.Size(), nil
}

// MimeFor maps a stored file name to a streamable content type.
func (svc *VideoStorageService) MimeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "video/mp4"
	}
}
