package services

import (
	"testing"
	"time"

	"github.com/sayan-academy/sayan_api/dto"
	"github.com/sayan-academy/sayan_api/shared"
)

func newTestTokenService() *VideoTokenService {
	return &VideoTokenService{
		TokenDuration: 2 * time.Hour,
		secret:        "test-video-secret",
	}
}

func TestVideoTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	client := dto.ClientInfo{IP: "203.0.113.10", UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Chrome/126.0"}

	token, expiresIn, err := svc.Mint("vid_1", "user_1", client, 0)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if expiresIn != int64((2 * time.Hour).Seconds()) {
		t.Errorf("expected default ttl 7200s, got %d", expiresIn)
	}

	grant, err := svc.Verify(token, client)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if grant.VideoID != "vid_1" || grant.ViewerID != "user_1" {
		t.Errorf("grant mismatch: %+v", grant)
	}
}

func TestVideoTokenExpired(t *testing.T) {
	svc := newTestTokenService()
	client := dto.ClientInfo{IP: "203.0.113.10", UserAgent: "Mozilla/5.0 Chrome/126.0"}

	token, _, err := svc.Mint("vid_1", "user_1", client, -time.Second)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	_, err = svc.Verify(token, client)
	assertErrorCode(t, err, shared.CodeTokenExpired)
}

func TestVideoTokenSessionMismatch(t *testing.T) {
	svc := newTestTokenService()
	clientA := dto.ClientInfo{IP: "203.0.113.10", UserAgent: "Mozilla/5.0 Chrome/126.0"}
	clientB := dto.ClientInfo{IP: "198.51.100.7", UserAgent: "Mozilla/5.0 Chrome/126.0"}

	token, _, err := svc.Mint("vid_1", "user_1", clientA, 0)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	_, err = svc.Verify(token, clientB)
	assertErrorCode(t, err, shared.CodeSessionMismatch)

	// Same IP, different browser fails too.
	clientC := dto.ClientInfo{IP: "203.0.113.10", UserAgent: "Mozilla/5.0 Firefox/128.0"}
	_, err = svc.Verify(token, clientC)
	assertErrorCode(t, err, shared.CodeSessionMismatch)
}

func TestVideoTokenRejectsLoginToken(t *testing.T) {
	jwtSvc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "test-video-secret"}
	loginToken, err := jwtSvc.ToJWT("user_1", shared.RoleLearner)
	if err != nil {
		t.Fatalf("ToJWT failed: %v", err)
	}

	svc := newTestTokenService()
	client := dto.ClientInfo{IP: "203.0.113.10", UserAgent: "Mozilla/5.0 Chrome/126.0"}

	// Even signed with the same secret, a session token lacks the
	// video_access kind and must be rejected.
	_, err = svc.Verify(loginToken, client)
	assertErrorCode(t, err, shared.CodeInvalidToken)
}

func TestVideoTokenTamperedSignature(t *testing.T) {
	svc := newTestTokenService()
	client := dto.ClientInfo{IP: "203.0.113.10", UserAgent: "Mozilla/5.0 Chrome/126.0"}

	token, _, err := svc.Mint("vid_1", "user_1", client, 0)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	other := &VideoTokenService{TokenDuration: 2 * time.Hour, secret: "different-secret"}
	_, err = other.Verify(token, client)
	assertErrorCode(t, err, shared.CodeInvalidToken)
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != code {
		t.Errorf("expected code %s, got %s", code, appErr.Code)
	}
}
