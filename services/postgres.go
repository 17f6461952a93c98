package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sayan-academy/sayan_api/model"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "sayan_api"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			host, user, password, dbname, port, sslmode)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil && sqlDB.Ping() == nil {
				log.Println("Successfully connected to database")
				break
			}
		}

		if attempt == maxRetries {
			return fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		time.Sleep(retryDelay)
		retryDelay *= 2
	}

	models := []interface{}{
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.Video{},
		&model.VideoViewLog{},
	}

	if err = ds.db.AutoMigrate(models...); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Shutdown() {
	if ds.db != nil {
		if sqlDB, err := ds.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest
		errorType = "FOREIGN_KEY_VIOLATION"
	default:
		if strings.Contains(err.Error(), "duplicate key value") {
			statusCode = http.StatusConflict
			errorType = "UNIQUE_CONSTRAINT"
		} else {
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

// ==================== USER QUERIES ====================

func (ds *PostgresService) GetUser(id string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByEmailOrUsername(emailOrUsername string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("email = ? OR username = ?", emailOrUsername, emailOrUsername).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) CreateUser(user *model.User) (*model.User, error) {
	if err := ds.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ds *PostgresService) UpdateUserLastLogin(userID string, at time.Time) error {
	return ds.db.Model(&model.User{}).Where("id = ?", userID).Update("last_login", at).Error
}

// ==================== CATALOG QUERIES ====================

func (ds *PostgresService) GetLesson(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := ds.db.Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (ds *PostgresService) GetCourse(id string) (*model.Course, error) {
	var course model.Course
	if err := ds.db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// GetActiveEnrollment returns nil (no error) when the viewer has no active
// enrollment for the course.
func (ds *PostgresService) GetActiveEnrollment(userID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := ds.db.Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, "active").
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ==================== VIDEO QUERIES ====================

// GetActiveVideo loads a streamable video; soft-deleted or disabled rows are
// treated as not found.
func (ds *PostgresService) GetActiveVideo(id string) (*model.Video, error) {
	var video model.Video
	err := ds.db.Where("id = ? AND status = ? AND deleted_at IS NULL", id, true).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (ds *PostgresService) CreateVideo(video *model.Video) (*model.Video, error) {
	if err := ds.db.Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

func (ds *PostgresService) IncrementVideoViews(videoID string) error {
	if err := ds.db.Model(&model.Video{}).Where("id = ?", videoID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
		return err
	}

	return ds.db.Model(&model.Lesson{}).
		Where("id = (?)", ds.db.Model(&model.Video{}).Select("lesson_id").Where("id = ?", videoID)).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

func (ds *PostgresService) CreateViewLog(entry *model.VideoViewLog) error {
	return ds.db.Create(entry).Error
}
