package services

import "testing"

func newTestGuard() *StreamGuardService {
	return &StreamGuardService{
		maxBlindOffset: 100_000,
		blockedRanges: map[string]bool{
			"bytes=0-262143": true,
			"bytes=0-524287": true,
		},
	}
}

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36"

func TestGuardBlocksDownloadTools(t *testing.T) {
	svc := newTestGuard()

	blocked := []string{
		"Wget/1.21",
		"curl/8.4.0",
		"aria2/1.36.0",
		"python-requests/2.31",
		"yt-dlp/2024.04.09",
		"Mozilla/5.0 compatible; IDM/6.41",
		"",
		"SomeRandomBot/1.0", // no browser token
	}

	for _, ua := range blocked {
		verdict := svc.Inspect(RequestProfile{UserAgent: ua, Referer: "https://app.example.com/watch"})
		if !verdict.Blocked {
			t.Errorf("expected UA %q to be blocked", ua)
		}
	}
}

func TestGuardAllowsBrowsers(t *testing.T) {
	svc := newTestGuard()

	verdict := svc.Inspect(RequestProfile{
		UserAgent: browserUA,
		Referer:   "https://app.example.com/watch",
		Accept:    "video/mp4",
	})
	if verdict.Blocked {
		t.Fatalf("browser request blocked: %s", verdict.BlockReason)
	}
	if verdict.Score != 0 {
		t.Errorf("expected score 0, got %d", verdict.Score)
	}
}

func TestGuardSuspicionScoring(t *testing.T) {
	svc := newTestGuard()

	// Range with no Referer: +2.
	verdict := svc.Inspect(RequestProfile{UserAgent: browserUA, Range: "bytes=0-1023"})
	if verdict.Blocked {
		t.Fatalf("unexpected block: %s", verdict.BlockReason)
	}
	if verdict.Score != 2 {
		t.Errorf("expected score 2, got %d", verdict.Score)
	}

	// Plus wildcard Accept with Range: +1.
	verdict = svc.Inspect(RequestProfile{UserAgent: browserUA, Range: "bytes=0-1023", Accept: "*/*"})
	if verdict.Score != 3 {
		t.Errorf("expected score 3, got %d", verdict.Score)
	}

	// Short UA that still carries a browser token: +1.
	verdict = svc.Inspect(RequestProfile{UserAgent: "chrome", Referer: "https://app.example.com"})
	if verdict.Blocked {
		t.Fatalf("unexpected block: %s", verdict.BlockReason)
	}
	if verdict.Score != 1 {
		t.Errorf("expected score 1, got %d", verdict.Score)
	}
}

func TestGuardBlocksAcceleratorRanges(t *testing.T) {
	svc := newTestGuard()

	verdict := svc.Inspect(RequestProfile{
		UserAgent: browserUA,
		Referer:   "https://app.example.com/watch",
		Range:     "bytes=0-262143",
	})
	if !verdict.Blocked {
		t.Error("expected accelerator chunk range to be blocked")
	}

	// The player's first 1 MiB chunk is not on the deny-list.
	verdict = svc.Inspect(RequestProfile{
		UserAgent: browserUA,
		Referer:   "https://app.example.com/watch",
		Range:     "bytes=0-1048575",
	})
	if verdict.Blocked {
		t.Errorf("1 MiB chunk blocked: %s", verdict.BlockReason)
	}
}

func TestGuardBlocksDeepSeekWithoutContext(t *testing.T) {
	svc := newTestGuard()

	verdict := svc.Inspect(RequestProfile{UserAgent: browserUA, Range: "bytes=500000-"})
	if !verdict.Blocked {
		t.Error("expected blind deep seek to be blocked")
	}

	// With page context the same seek is a normal scrub.
	verdict = svc.Inspect(RequestProfile{
		UserAgent: browserUA,
		Referer:   "https://app.example.com/watch",
		Range:     "bytes=500000-",
	})
	if verdict.Blocked {
		t.Errorf("contextual seek blocked: %s", verdict.BlockReason)
	}
}

func TestParseRangeStart(t *testing.T) {
	cases := []struct {
		header string
		start  int64
		ok     bool
	}{
		{"bytes=100000-", 100000, true},
		{"bytes=0-1023", 0, true},
		{"bytes=-500", 0, false},
		{"chunks=0-100", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		start, ok := parseRangeStart(tc.header)
		if ok != tc.ok || start != tc.start {
			t.Errorf("parseRangeStart(%q) = (%d, %v), want (%d, %v)", tc.header, start, ok, tc.start, tc.ok)
		}
	}
}
