package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sayan-academy/sayan_api/dto"
	"github.com/sayan-academy/sayan_api/shared"
)

// VideoTokenService mints and verifies short-lived stream tokens. A token is
// bound to one video, one viewer and the client session that requested it:
// presenting it from another device or browser fails verification.
type VideoTokenService struct {
	context.DefaultService

	TokenDuration time.Duration
	secret        string
}

type videoClaims struct {
	Kind     string `json:"kind"`
	VideoID  string `json:"video_id"`
	ViewerID string `json:"viewer_id"`
	Session  string `json:"session"`
	Checksum string `json:"checksum"`
	jwt.RegisteredClaims
}

const tokenKindVideoAccess = "video_access"

// AccessGrant is the verified identity carried by a valid stream token.
type AccessGrant struct {
	VideoID  string
	ViewerID string
}

const VIDEO_TOKEN_SVC = "video_token_svc"

func (svc VideoTokenService) Id() string {
	return VIDEO_TOKEN_SVC
}

func (svc *VideoTokenService) Configure(ctx *context.Context) error {
	svc.secret = os.Getenv("VIDEO_TOKEN_SECRET")

	svc.TokenDuration = 2 * time.Hour
	if ttlStr := os.Getenv("VIDEO_TOKEN_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil && ttl > 0 {
			svc.TokenDuration = ttl
		}
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *VideoTokenService) Start() error {
	if svc.secret == "" {
		return errors.New("VIDEO_TOKEN_SECRET is not configured")
	}
	return nil
}

// Mint issues a stream token for videoID bound to the viewer's current
// client session. A zero ttl uses the configured default.
func (svc *VideoTokenService) Mint(videoID, viewerID string, client dto.ClientInfo, ttl time.Duration) (string, int64, error) {
	if ttl == 0 {
		ttl = svc.TokenDuration
	}

	session := svc.sessionFingerprint(client)
	now := time.Now()

	claims := &videoClaims{
		Kind:     tokenKindVideoAccess,
		VideoID:  videoID,
		ViewerID: viewerID,
		Session:  session,
		Checksum: svc.integrityTag(videoID, viewerID, session),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "sayan-academy",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(svc.secret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign video token: %v", err)
	}

	return signed, int64(ttl.Seconds()), nil
}

// Verify checks the token signature, kind, expiry and session binding, in
// that order, and returns the grant it carries.
func (svc *VideoTokenService) Verify(tokenStr string, client dto.ClientInfo) (*AccessGrant, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &videoClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(svc.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.NewUnauthorizedError(shared.CodeTokenExpired, "Access token has expired")
		}
		return nil, shared.NewUnauthorizedError(shared.CodeInvalidToken, "Invalid access token")
	}

	claims, ok := token.Claims.(*videoClaims)
	if !ok || !token.Valid {
		return nil, shared.NewUnauthorizedError(shared.CodeInvalidToken, "Invalid access token")
	}

	if claims.Kind != tokenKindVideoAccess {
		return nil, shared.NewUnauthorizedError(shared.CodeInvalidToken, "Invalid access token")
	}

	session := svc.sessionFingerprint(client)
	if !hmac.Equal([]byte(claims.Session), []byte(session)) {
		return nil, shared.NewUnauthorizedError(shared.CodeSessionMismatch, "Token was issued to a different session")
	}

	expectedTag := svc.integrityTag(claims.VideoID, claims.ViewerID, claims.Session)
	if !hmac.Equal([]byte(claims.Checksum), []byte(expectedTag)) {
		return nil, shared.NewUnauthorizedError(shared.CodeInvalidToken, "Invalid access token")
	}

	return &AccessGrant{VideoID: claims.VideoID, ViewerID: claims.ViewerID}, nil
}

func (svc *VideoTokenService) sessionFingerprint(client dto.ClientInfo) string {
	sum := sha256.Sum256([]byte(client.UserAgent + "|" + client.IP + "|" + svc.secret))
	return hex.EncodeToString(sum[:])
}

func (svc *VideoTokenService) integrityTag(videoID, viewerID, session string) string {
	sum := sha256.Sum256([]byte(videoID + ":" + viewerID + ":" + session + ":" + svc.secret))
	return hex.EncodeToString(sum[:])[:16]
}
