package services

import (
	"testing"
	"time"

	"github.com/sayan-academy/sayan_api/model"
	"github.com/sayan-academy/sayan_api/shared"
)

func activeVideo() *model.Video {
	return &model.Video{ID: "vid_1", LessonID: "les_1", Status: true}
}

func activeLesson() *model.Lesson {
	return &model.Lesson{ID: "les_1", CourseID: "crs_1", IsActive: true}
}

func activeCourse() *model.Course {
	return &model.Course{ID: "crs_1", OwnerID: "owner_1", IsActive: true}
}

func TestDecideAccessOwner(t *testing.T) {
	reason, allowed := decideAccess(activeVideo(), activeLesson(), activeCourse(), nil, "owner_1")
	if !allowed || reason != shared.ReasonOwnerAccess {
		t.Errorf("got (%s, %v), want (OWNER_ACCESS, true)", reason, allowed)
	}
}

func TestDecideAccessFreePreview(t *testing.T) {
	lesson := activeLesson()
	lesson.IsFreePreview = true

	reason, allowed := decideAccess(activeVideo(), lesson, activeCourse(), nil, "stranger")
	if !allowed || reason != shared.ReasonFreePreview {
		t.Errorf("got (%s, %v), want (FREE_PREVIEW, true)", reason, allowed)
	}
}

func TestDecideAccessEnrolled(t *testing.T) {
	enrollment := &model.Enrollment{UserID: "learner_1", CourseID: "crs_1", Status: shared.EnrollmentActive}

	reason, allowed := decideAccess(activeVideo(), activeLesson(), activeCourse(), enrollment, "learner_1")
	if !allowed || reason != shared.ReasonEnrolled {
		t.Errorf("got (%s, %v), want (ENROLLED, true)", reason, allowed)
	}
}

func TestDecideAccessDenied(t *testing.T) {
	reason, allowed := decideAccess(activeVideo(), activeLesson(), activeCourse(), nil, "stranger")
	if allowed || reason != shared.CodeAccessDenied {
		t.Errorf("got (%s, %v), want (ACCESS_DENIED, false)", reason, allowed)
	}

	// Lapsed enrollment does not grant access.
	lapsed := &model.Enrollment{UserID: "learner_1", CourseID: "crs_1", Status: "cancelled"}
	reason, allowed = decideAccess(activeVideo(), activeLesson(), activeCourse(), lapsed, "learner_1")
	if allowed || reason != shared.CodeAccessDenied {
		t.Errorf("lapsed enrollment: got (%s, %v), want (ACCESS_DENIED, false)", reason, allowed)
	}
}

func TestDecideAccessInactiveContent(t *testing.T) {
	now := time.Now()

	deleted := activeVideo()
	deleted.DeletedAt = &now

	disabled := activeVideo()
	disabled.Status = false

	hiddenLesson := activeLesson()
	hiddenLesson.IsActive = false

	closedCourse := activeCourse()
	closedCourse.IsActive = false

	cases := []struct {
		name   string
		video  *model.Video
		lesson *model.Lesson
		course *model.Course
	}{
		{"soft deleted video", deleted, activeLesson(), activeCourse()},
		{"disabled video", disabled, activeLesson(), activeCourse()},
		{"inactive lesson", activeVideo(), hiddenLesson, activeCourse()},
		{"inactive course", activeVideo(), activeLesson(), closedCourse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Even the course owner is denied on inactive content.
			reason, allowed := decideAccess(tc.video, tc.lesson, tc.course, nil, "owner_1")
			if allowed || reason != shared.CodeVideoNotFound {
				t.Errorf("got (%s, %v), want (VIDEO_NOT_FOUND, false)", reason, allowed)
			}
		})
	}
}

// Ownership outranks free preview so the reason code reflects the strongest
// grant the viewer holds.
func TestDecideAccessRuleOrder(t *testing.T) {
	lesson := activeLesson()
	lesson.IsFreePreview = true
	enrollment := &model.Enrollment{UserID: "owner_1", CourseID: "crs_1", Status: shared.EnrollmentActive}

	reason, _ := decideAccess(activeVideo(), lesson, activeCourse(), enrollment, "owner_1")
	if reason != shared.ReasonOwnerAccess {
		t.Errorf("expected OWNER_ACCESS to win, got %s", reason)
	}
}
