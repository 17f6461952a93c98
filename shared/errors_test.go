package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGetAppErrorUnwrapsChain(t *testing.T) {
	inner := NewNotFoundError(CodeVideoNotFound, "Video not found")
	wrapped := fmt.Errorf("loading video: %w", inner)

	appErr, ok := GetAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != CodeVideoNotFound || appErr.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected error: %+v", appErr)
	}
}

func TestGetAppErrorPlainError(t *testing.T) {
	if _, ok := GetAppError(errors.New("boom")); ok {
		t.Error("plain error should not yield an AppError")
	}
}

func TestTooManyRequestsCarriesRetryAfter(t *testing.T) {
	err := NewTooManyRequestsError("slow down", 12)
	if err.StatusCode != http.StatusTooManyRequests || err.Code != CodeRateLimited {
		t.Errorf("unexpected error: %+v", err)
	}

	data, ok := err.Data.(map[string]interface{})
	if !ok || data["retry_after"] != 12 {
		t.Errorf("expected retry_after 12, got %v", err.Data)
	}
}

func TestAppErrorMessageNeverLeaksWrappedError(t *testing.T) {
	err := NewInternalError(errors.New("pq: connection refused"), "Failed to load video")
	if err.Message != "Failed to load video" {
		t.Errorf("user-facing message changed: %q", err.Message)
	}
	if !errors.Is(err, err.Err) {
		t.Error("wrapped error should be reachable via errors.Is")
	}
}
