package services

import (
	"context"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sayan-academy/sayan_api/model"
)

// ViewLogService records views off the request path. Record never blocks the
// stream handler: when the buffer is full the event is dropped and counted in
// the logs instead.
type ViewLogService struct {
	appContext.DefaultService

	sqlSvc   *PostgresService
	redisSvc *RedisService

	events chan viewEvent
	done   sync.WaitGroup
}

type viewEvent struct {
	VideoID   string
	ViewerID  string
	ClientIP  string
	UserAgent string
	Reason    string
	At        time.Time
}

const viewLogBuffer = 256

const VIEW_LOG_SVC = "view_log_svc"

func (svc ViewLogService) Id() string {
	return VIEW_LOG_SVC
}

func (svc *ViewLogService) Configure(ctx *appContext.Context) error {
	svc.events = make(chan viewEvent, viewLogBuffer)
	return svc.DefaultService.Configure(ctx)
}

func (svc *ViewLogService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)

	svc.done.Add(1)
	go svc.worker()
	return nil
}

// Shutdown stops intake and drains whatever is already buffered.
func (svc *ViewLogService) Shutdown() {
	close(svc.events)
	svc.done.Wait()
}

// Record queues a view for persistence. Non-blocking by contract.
func (svc *ViewLogService) Record(videoID, viewerID, clientIP, userAgent, reason string) {
	ev := viewEvent{
		VideoID:   videoID,
		ViewerID:  viewerID,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		Reason:    reason,
		At:        time.Now(),
	}

	select {
	case svc.events <- ev:
	default:
		log.WithField("video_id", videoID).Warn("View log buffer full, dropping event")
	}
}

func (svc *ViewLogService) worker() {
	defer svc.done.Done()

	for ev := range svc.events {
		svc.persist(ev)
	}
}

func (svc *ViewLogService) persist(ev viewEvent) {
	id, _ := uuid.NewV7()
	entry := &model.VideoViewLog{
		ID:        id.String(),
		VideoID:   ev.VideoID,
		UserID:    ev.ViewerID,
		ClientIP:  ev.ClientIP,
		UserAgent: ev.UserAgent,
		Reason:    ev.Reason,
		CreatedAt: ev.At,
	}

	if err := svc.sqlSvc.CreateViewLog(entry); err != nil {
		log.WithError(err).Warn("Failed to persist view log entry")
		return
	}

	if err := svc.sqlSvc.IncrementVideoViews(ev.VideoID); err != nil {
		log.WithError(err).Warn("Failed to bump view counters")
	}

	// Daily counter in redis is best-effort; the database row is the record.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := "views:" + ev.VideoID + ":" + ev.At.Format("2006-01-02")
	if _, err := svc.redisSvc.Increment(ctx, key); err == nil {
		_ = svc.redisSvc.Expire(ctx, key, 48*time.Hour)
	}
}
