package main

import (
	"github.com/sayan-academy/sayan_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading .env file")
	}

	ctx, err := context.NewCtx(
		&services.PostgresService{},
		&services.RedisService{},
		&services.MinIOService{},
		&services.MonitoringService{},

		&services.JWTService{},
		&services.AuthService{},

		&services.VideoTokenService{},
		&services.StreamGuardService{},
		&services.StreamLimitService{},
		&services.StreamService{},
		&services.VideoStorageService{},
		&services.ViewLogService{},
		&services.VideoAccessService{},
		&services.VideoService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
