package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sayan-academy/sayan_api/dto"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alphabatem/common/context"
)

// JWTService issues and verifies login-session tokens. Video-access tokens
// are a separate system (VideoTokenService) with its own secret and claims
// so a login token can never be replayed against the stream endpoint.
type JWTService struct {
	context.DefaultService

	AccessTokenDuration time.Duration
	jwtSecretKey        string
}

type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

const JWT_SVC = "jwt_svc"

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *context.Context) error {
	svc.AccessTokenDuration = 24 * time.Hour
	svc.jwtSecretKey = os.Getenv("JWT_SECRET")
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	if svc.jwtSecretKey == "" {
		return errors.New("JWT_SECRET is not configured")
	}
	return nil
}

// VerifySessionToken returns the user ID and role carried by a valid login
// token.
func (svc *JWTService) VerifySessionToken(jwtToken string) (string, string, error) {
	token, err := jwt.ParseWithClaims(jwtToken, &SessionClaims{}, svc.getJWTKey)
	if err != nil || !token.Valid {
		return "", "", errors.New("unsupported JWT format")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.UserID == "" {
		return "", "", errors.New("invalid session claims")
	}

	return claims.UserID, claims.Role, nil
}

func (svc *JWTService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

func (svc *JWTService) GenerateTokenPair(userID, role string) (*dto.TokenPair, error) {
	accessToken, err := svc.ToJWT(userID, role)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken: accessToken,
		ExpiresIn:   int64(svc.AccessTokenDuration.Seconds()),
	}, nil
}

func (svc *JWTService) ToJWT(userID, role string) (string, error) {
	expTime := time.Now().Add(svc.AccessTokenDuration)

	claims := &SessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sayan-academy",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	return authHeader[7:], nil
}
