package services

import (
	"errors"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sayan-academy/sayan_api/model"
	"github.com/sayan-academy/sayan_api/shared"
)

// VideoAccessService decides whether a viewer may watch a video right now.
// The decision is re-evaluated on every token mint; a previously issued token
// never substitutes for an enrollment check, since enrollment can lapse.
type VideoAccessService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const VIDEO_ACCESS_SVC = "video_access_svc"

func (svc VideoAccessService) Id() string {
	return VIDEO_ACCESS_SVC
}

func (svc *VideoAccessService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// CheckAccess loads the video and its catalog context, then applies the
// access rules. Returns the video and the reason code that admitted the
// viewer, or an AppError describing the denial.
func (svc *VideoAccessService) CheckAccess(viewerID, videoID string) (*model.Video, string, error) {
	video, err := svc.sqlSvc.GetActiveVideo(videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", shared.NewNotFoundError(shared.CodeVideoNotFound, "Video not found")
		}
		return nil, "", shared.NewInternalError(err, "Failed to load video")
	}

	lesson, err := svc.sqlSvc.GetLesson(video.LessonID)
	if err != nil {
		return nil, "", shared.NewNotFoundError(shared.CodeVideoNotFound, "Video not found")
	}

	course, err := svc.sqlSvc.GetCourse(lesson.CourseID)
	if err != nil {
		return nil, "", shared.NewNotFoundError(shared.CodeVideoNotFound, "Video not found")
	}

	enrollment, err := svc.sqlSvc.GetActiveEnrollment(viewerID, course.ID)
	if err != nil {
		return nil, "", shared.NewInternalError(err, "Failed to check enrollment")
	}

	reason, allowed := decideAccess(video, lesson, course, enrollment, viewerID)
	if !allowed {
		log.WithFields(log.Fields{
			"viewer_id": viewerID,
			"video_id":  videoID,
			"reason":    reason,
		}).Info("Video access denied")

		if reason == shared.CodeVideoNotFound {
			return nil, "", shared.NewNotFoundError(shared.CodeVideoNotFound, "Video not found")
		}
		return nil, "", shared.NewForbiddenError(shared.CodeAccessDenied, "You do not have access to this video")
	}

	return video, reason, nil
}

// decideAccess applies the access rules in order, first match wins:
// inactive content, course ownership, free preview, active enrollment, deny.
func decideAccess(video *model.Video, lesson *model.Lesson, course *model.Course, enrollment *model.Enrollment, viewerID string) (string, bool) {
	if video == nil || !video.IsActive() || lesson == nil || !lesson.IsActive || course == nil || !course.IsActive {
		return shared.CodeVideoNotFound, false
	}

	if course.OwnerID == viewerID {
		return shared.ReasonOwnerAccess, true
	}

	if lesson.IsFreePreview {
		return shared.ReasonFreePreview, true
	}

	if enrollment != nil && enrollment.Status == shared.EnrollmentActive {
		return shared.ReasonEnrolled, true
	}

	return shared.CodeAccessDenied, false
}
