package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sayan-academy/sayan_api/dto"
	"github.com/sayan-academy/sayan_api/model"
	"github.com/sayan-academy/sayan_api/shared"
)

type AuthService struct {
	context.DefaultService

	sqlSvc *PostgresService
	jwtSvc *JWTService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	return nil
}

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if _, err := svc.sqlSvc.GetUserByEmailOrUsername(req.Email); err == nil {
		return nil, shared.NewBadRequestError(fmt.Errorf("email taken"), "Email is already registered")
	}
	if _, err := svc.sqlSvc.GetUserByEmailOrUsername(req.Username); err == nil {
		return nil, shared.NewBadRequestError(fmt.Errorf("username taken"), "Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to process password")
	}

	role := req.Role
	if role == "" {
		role = shared.RoleLearner
	}

	id, _ := uuid.NewV7()
	user := &model.User{
		ID:       id.String(),
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashed),
		Role:     role,
	}

	if _, err := svc.sqlSvc.CreateUser(user); err != nil {
		return nil, shared.NewInternalError(err, "Failed to create user")
	}

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Message: "Registration successful",
	}, nil
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.GetUserByEmailOrUsername(req.EmailOrUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnauthorizedError(shared.CodeUnauthorized, "Invalid credentials")
		}
		return nil, shared.NewInternalError(err, "Failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(shared.CodeUnauthorized, "Invalid credentials")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	_ = svc.sqlSvc.UpdateUserLastLogin(user.ID, time.Now())

	return &dto.LoginResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
		User: dto.UserInfo{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}

// RequiredAuth gates endpoints behind a valid login-session token and stores
// the viewer identity in request locals.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, role, err := svc.jwtSvc.VerifySessionToken(token)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		c.Locals(shared.UserID, userID)
		c.Locals(shared.UserRole, role)
		return c.Next()
	}
}

func (svc *AuthService) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals(shared.UserRole).(string)
		if current != role && current != shared.RoleAdmin {
			return shared.ResponseJSON(c, http.StatusForbidden, "Forbidden", nil)
		}
		return c.Next()
	}
}
