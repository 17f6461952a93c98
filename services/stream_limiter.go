package services

import (
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/sayan-academy/sayan_api/dto"
)

// StreamLimitService is a sliding-window rate limiter over stream requests,
// keyed by viewer. Viewers flagged as suspicious by the guard get a stricter
// window. State is per-instance and in memory; a restart resets all windows,
// which is acceptable for an abuse throttle.
type StreamLimitService struct {
	context.DefaultService

	mu      sync.Mutex
	viewers map[string]*viewerWindow

	normalWindow time.Duration
	normalLimit  int
	strictWindow time.Duration
	strictLimit  int

	idleEvict time.Duration
	stopSweep chan struct{}
}

type viewerWindow struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// Guard scores at or above this use the strict window.
const suspiciousScoreThreshold = 2

const STREAM_LIMIT_SVC = "stream_limit_svc"

func (svc StreamLimitService) Id() string {
	return STREAM_LIMIT_SVC
}

func (svc *StreamLimitService) Configure(ctx *context.Context) error {
	svc.viewers = make(map[string]*viewerWindow)
	svc.normalWindow = 5 * time.Second
	svc.normalLimit = 8
	svc.strictWindow = 15 * time.Second
	svc.strictLimit = 2
	svc.idleEvict = 10 * time.Minute
	svc.stopSweep = make(chan struct{})
	return svc.DefaultService.Configure(ctx)
}

func (svc *StreamLimitService) Start() error {
	go svc.sweepLoop()
	return nil
}

func (svc *StreamLimitService) Shutdown() {
	close(svc.stopSweep)
}

// Allow records one stream request for viewerID and reports whether it is
// within the window. score comes from the guard's assessment of the request.
func (svc *StreamLimitService) Allow(viewerID string, score int) (bool, dto.RateLimitInfo) {
	window, limit := svc.normalWindow, svc.normalLimit
	suspicious := score >= suspiciousScoreThreshold
	if suspicious {
		window, limit = svc.strictWindow, svc.strictLimit
	}

	now := time.Now()
	cutoff := now.Add(-window)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	vw, ok := svc.viewers[viewerID]
	if !ok {
		vw = &viewerWindow{}
		svc.viewers[viewerID] = vw
	}
	vw.lastSeen = now

	// Drop timestamps that fell out of the window.
	kept := vw.timestamps[:0]
	for _, ts := range vw.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	vw.timestamps = kept

	if len(vw.timestamps) >= limit {
		reset := vw.timestamps[0].Add(window)
		log.WithFields(log.Fields{
			"viewer_id":  viewerID,
			"suspicious": suspicious,
			"requests":   len(vw.timestamps),
		}).Warn("Stream request rate limited")
		return false, dto.RateLimitInfo{Suspicious: suspicious, ResetTime: &reset}
	}

	vw.timestamps = append(vw.timestamps, now)
	if len(vw.timestamps) > 20 {
		vw.timestamps = vw.timestamps[len(vw.timestamps)-20:]
	}

	return true, dto.RateLimitInfo{
		Allowed:    true,
		Remaining:  limit - len(vw.timestamps),
		Suspicious: suspicious,
	}
}

// Stats is a point-in-time snapshot for the admin endpoint.
func (svc *StreamLimitService) Stats() dto.StreamLimitStats {
	svc.mu.Lock()
	tracked := len(svc.viewers)
	svc.mu.Unlock()

	return dto.StreamLimitStats{
		TrackedViewers: tracked,
		NormalLimit:    svc.normalLimit,
		NormalWindow:   svc.normalWindow.String(),
		StrictLimit:    svc.strictLimit,
		StrictWindow:   svc.strictWindow.String(),
		Timestamp:      time.Now(),
	}
}

func (svc *StreamLimitService) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			svc.evictIdle()
		case <-svc.stopSweep:
			return
		}
	}
}

func (svc *StreamLimitService) evictIdle() {
	cutoff := time.Now().Add(-svc.idleEvict)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	for id, vw := range svc.viewers {
		if vw.lastSeen.Before(cutoff) {
			delete(svc.viewers, id)
		}
	}
}
