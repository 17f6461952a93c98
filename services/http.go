package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	docs "github.com/sayan-academy/sayan_api/docs"
	"github.com/sayan-academy/sayan_api/services/handlers"
	"github.com/sayan-academy/sayan_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc    *AuthService
	videoSvc   *VideoService
	monitorSvc *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.videoSvc = svc.Service(VIDEO_SVC).(*VideoService)
	svc.monitorSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	docs.SwaggerInfo.BasePath = ""

	app := fiber.New(fiber.Config{
		ErrorHandler:          svc.handleError,
		DisableStartupMessage: os.Getenv("LOG_LEVEL") == "INFO",
		BodyLimit:             maxUploadSize,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Range",
	}))
	app.Use(MonitoringMiddleware(svc.monitorSvc))

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	authHandler := handlers.NewAuthHandler(svc.authSvc)
	videoHandler := handlers.NewVideoHandler(svc.videoSvc)
	adminHandler := handlers.NewAdminHandler(svc.videoSvc)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/register", authHandler.Register)
	v1.Post("/login", authHandler.Login)

	videos := v1.Group("/videos")
	videos.Post("/:videoId/access-token", svc.authSvc.RequiredAuth(), videoHandler.CreateAccessToken)
	videos.Get("/:videoId/info", svc.authSvc.RequiredAuth(), videoHandler.GetVideoInfo)
	// Stream auth travels in the token itself; video players cannot set an
	// Authorization header on media element requests.
	videos.Get("/:videoId/stream", videoHandler.Stream)

	admin := v1.Group("/admin", svc.authSvc.RequiredAuth())
	admin.Post("/lessons/:lessonId/video", svc.authSvc.RequireRole(shared.RoleAcademy), adminHandler.UploadLessonVideo)
	admin.Get("/stream/limits", svc.authSvc.RequireRole(shared.RoleAdmin), adminHandler.GetStreamLimits)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(shared.CodeNotFound, "Page not found")
	})

	svc.server = app

	log.Printf("HTTP server listening on :%v", svc.port)
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.Err != nil {
			log.WithError(appErr.Err).WithField("code", appErr.Code).Error("Request failed")
		}

		body := fiber.Map{"error_code": appErr.Code}
		if data, ok := appErr.Data.(map[string]interface{}); ok {
			for k, v := range data {
				body[k] = v
			}
			if retryAfter, ok := data["retry_after"].(int); ok {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			}
		}

		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).Error("Unhandled request error")
	return shared.ResponseJSON(c, http.StatusInternalServerError, "Internal Server Error", nil)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}
