package services

import (
	"testing"
	"time"
)

func newTestLimiter() *StreamLimitService {
	return &StreamLimitService{
		viewers:      make(map[string]*viewerWindow),
		normalWindow: 5 * time.Second,
		normalLimit:  8,
		strictWindow: 15 * time.Second,
		strictLimit:  2,
		idleEvict:    10 * time.Minute,
	}
}

func TestLimiterNormalWindow(t *testing.T) {
	svc := newTestLimiter()

	for i := 1; i <= 8; i++ {
		allowed, _ := svc.Allow("viewer_1", 0)
		if !allowed {
			t.Fatalf("request %d should be admitted", i)
		}
	}

	allowed, info := svc.Allow("viewer_1", 0)
	if allowed {
		t.Fatal("9th request within the window should be rejected")
	}
	if info.Suspicious {
		t.Error("normal traffic should not be flagged suspicious")
	}
	if info.ResetTime == nil {
		t.Error("rejection should carry a reset time")
	}
}

func TestLimiterStrictWindowForSuspicious(t *testing.T) {
	svc := newTestLimiter()

	for i := 1; i <= 2; i++ {
		allowed, _ := svc.Allow("viewer_1", 3)
		if !allowed {
			t.Fatalf("request %d should be admitted", i)
		}
	}

	allowed, info := svc.Allow("viewer_1", 3)
	if allowed {
		t.Fatal("3rd suspicious request should be rejected")
	}
	if !info.Suspicious {
		t.Error("strict-path rejection should be flagged suspicious")
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	svc := newTestLimiter()

	// Fill the window with aged timestamps, as if the burst happened earlier.
	old := time.Now().Add(-6 * time.Second)
	vw := &viewerWindow{lastSeen: old}
	for i := 0; i < 8; i++ {
		vw.timestamps = append(vw.timestamps, old)
	}
	svc.viewers["viewer_1"] = vw

	allowed, _ := svc.Allow("viewer_1", 0)
	if !allowed {
		t.Fatal("request after the window elapsed should be admitted")
	}
}

func TestLimiterIsolatesViewers(t *testing.T) {
	svc := newTestLimiter()

	for i := 0; i < 8; i++ {
		svc.Allow("viewer_1", 0)
	}

	allowed, _ := svc.Allow("viewer_2", 0)
	if !allowed {
		t.Fatal("an unrelated viewer must not inherit another viewer's window")
	}
}

func TestLimiterEvictsIdleViewers(t *testing.T) {
	svc := newTestLimiter()

	svc.viewers["stale"] = &viewerWindow{lastSeen: time.Now().Add(-11 * time.Minute)}
	svc.viewers["fresh"] = &viewerWindow{lastSeen: time.Now()}

	svc.evictIdle()

	if _, ok := svc.viewers["stale"]; ok {
		t.Error("idle viewer should have been evicted")
	}
	if _, ok := svc.viewers["fresh"]; !ok {
		t.Error("active viewer should have been kept")
	}
}

func TestLimiterStats(t *testing.T) {
	svc := newTestLimiter()
	svc.Allow("viewer_1", 0)

	stats := svc.Stats()
	if stats.TrackedViewers != 1 {
		t.Errorf("expected 1 tracked viewer, got %d", stats.TrackedViewers)
	}
	if stats.NormalLimit != 8 || stats.StrictLimit != 2 {
		t.Errorf("unexpected limits: %+v", stats)
	}
}
