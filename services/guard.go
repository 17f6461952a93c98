package services

import (
	"os"
	"strconv"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// StreamGuardService inspects stream requests for download-tool signatures
// and scraping patterns before any bytes leave the server. It is stateless;
// repeated-offender throttling lives in StreamLimitService.
type StreamGuardService struct {
	context.DefaultService

	maxBlindOffset int64
	blockedRanges  map[string]bool
}

// RequestProfile is the subset of request headers the guard looks at.
type RequestProfile struct {
	UserAgent  string
	Referer    string
	Accept     string
	Range      string
	IfRange    string
	Connection string
}

// Assessment is the guard's verdict. Blocked requests are refused outright;
// the score feeds the adaptive rate limiter.
type Assessment struct {
	Blocked     bool
	BlockReason string
	Score       int
}

// Substrings that identify known download tools. Matched case-insensitively
// against the whole User-Agent.
var downloadToolSignatures = []string{
	"wget", "curl", "aria2", "axel", "httpie", "python-requests",
	"youtube-dl", "yt-dlp", "jdownloader", "eagleget", "flashget",
	"idm", "fdm", "downloader", "download manager", "go-http-client",
}

var browserSignatures = []string{
	"mozilla", "chrome", "safari", "firefox", "edge", "opera",
}

const STREAM_GUARD_SVC = "stream_guard_svc"

func (svc StreamGuardService) Id() string {
	return STREAM_GUARD_SVC
}

func (svc *StreamGuardService) Configure(ctx *context.Context) error {
	svc.maxBlindOffset = 100_000
	if v := os.Getenv("STREAM_MAX_BLIND_OFFSET"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			svc.maxBlindOffset = n
		}
	}

	svc.blockedRanges = map[string]bool{
		"bytes=0-262143": true,
		"bytes=0-524287": true,
	}
	if v := os.Getenv("STREAM_BLOCKED_RANGES"); v != "" {
		svc.blockedRanges = map[string]bool{}
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				svc.blockedRanges[r] = true
			}
		}
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *StreamGuardService) Start() error {
	return nil
}

// Inspect evaluates a stream request. Verdict order: hard user-agent blocks
// first, then range-pattern blocks, then soft scoring.
func (svc *StreamGuardService) Inspect(req RequestProfile) Assessment {
	ua := strings.ToLower(strings.TrimSpace(req.UserAgent))

	if ua == "" {
		return Assessment{Blocked: true, BlockReason: "empty user agent"}
	}

	for _, sig := range downloadToolSignatures {
		if strings.Contains(ua, sig) {
			return Assessment{Blocked: true, BlockReason: "download tool detected: " + sig}
		}
	}

	if !svc.looksLikeBrowser(ua) {
		return Assessment{Blocked: true, BlockReason: "unrecognized client"}
	}

	if req.Range != "" {
		if svc.blockedRanges[strings.ToLower(strings.ReplaceAll(req.Range, " ", ""))] {
			return Assessment{Blocked: true, BlockReason: "sequential chunk download pattern"}
		}

		if start, ok := parseRangeStart(req.Range); ok && start > svc.maxBlindOffset && req.Referer == "" {
			return Assessment{Blocked: true, BlockReason: "deep seek without page context"}
		}
	}

	score := 0
	if req.Range != "" && req.Referer == "" {
		score += 2
	}
	if len(req.UserAgent) < 10 {
		score++
	}
	if req.Accept == "*/*" && req.Range != "" {
		score++
	}

	if req.IfRange != "" || strings.EqualFold(req.Connection, "keep-alive") {
		log.WithFields(log.Fields{
			"if_range":   req.IfRange,
			"connection": req.Connection,
		}).Debug("Resumable fetch headers on stream request")
	}

	return Assessment{Score: score}
}

func (svc *StreamGuardService) looksLikeBrowser(lowerUA string) bool {
	for _, sig := range browserSignatures {
		if strings.Contains(lowerUA, sig) {
			return true
		}
	}
	return false
}

func (svc *StreamGuardService) BlockedRanges() []string {
	out := make([]string, 0, len(svc.blockedRanges))
	for r := range svc.blockedRanges {
		out = append(out, r)
	}
	return out
}

// parseRangeStart extracts the first-range start offset from a Range header,
// e.g. "bytes=100000-" -> 100000. Suffix ranges ("bytes=-500") report ok=false.
func parseRangeStart(header string) (int64, bool) {
	spec, found := strings.CutPrefix(strings.ToLower(strings.TrimSpace(header)), "bytes=")
	if !found {
		return 0, false
	}

	first := strings.Split(spec, ",")[0]
	startStr, _, ok := strings.Cut(strings.TrimSpace(first), "-")
	if !ok || startStr == "" {
		return 0, false
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, false
	}
	return start, true
}
