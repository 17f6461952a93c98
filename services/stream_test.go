package services

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestParseRange(t *testing.T) {
	svc := &StreamService{}

	cases := []struct {
		name   string
		header string
		size   int64
		start  int64
		end    int64
		ok     bool
	}{
		{"bounded", "bytes=200-299", 1000, 200, 299, true},
		{"open ended", "bytes=900-", 1000, 900, 999, true},
		{"suffix", "bytes=-100", 1000, 900, 999, true},
		{"end clamped", "bytes=0-5000", 1000, 0, 999, true},
		{"multi range uses first", "bytes=0-99,500-599", 1000, 0, 99, true},
		{"missing header", "", 1000, 0, 0, false},
		{"start past eof", "bytes=1000-", 1000, 0, 0, false},
		{"inverted", "bytes=500-200", 1000, 0, 0, false},
		{"not bytes", "items=0-10", 1000, 0, 0, false},
		{"garbage", "bytes=abc-def", 1000, 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, ok := svc.ParseRange(tc.header, tc.size)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && (start != tc.start || end != tc.end) {
				t.Errorf("got [%d, %d], want [%d, %d]", start, end, tc.start, tc.end)
			}
		})
	}
}

// writeTestVideo creates a file whose content is a deterministic byte pattern
// so slices can be checked for exact position.
func writeTestVideo(t *testing.T, size int) (string, []byte) {
	t.Helper()

	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}

	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write test video: %v", err)
	}
	return path, content
}

func newStreamTestApp(path string, size int64) *fiber.App {
	svc := &StreamService{}
	app := fiber.New()
	app.Get("/v", func(c *fiber.Ctx) error {
		return svc.ServeFile(c, path, size, "video/mp4", c.Get(fiber.HeaderRange), nil)
	})
	return app
}

func fetchRange(t *testing.T, app *fiber.App, rangeHeader string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/v", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestServeFileBoundedRange(t *testing.T) {
	path, content := writeTestVideo(t, 1000)
	app := newStreamTestApp(path, 1000)

	resp := fetchRange(t, app, "bytes=200-299")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", resp.StatusCode)
	}
	if cr := resp.Header.Get("Content-Range"); cr != "bytes 200-299/1000" {
		t.Errorf("Content-Range = %q", cr)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "100" {
		t.Errorf("Content-Length = %q", cl)
	}

	body, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(body, content[200:300]) {
		t.Error("body does not match file[200:300]")
	}
}

func TestServeFileOpenEndedRange(t *testing.T) {
	path, content := writeTestVideo(t, 1000)
	app := newStreamTestApp(path, 1000)

	resp := fetchRange(t, app, "bytes=900-")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", resp.StatusCode)
	}
	if cr := resp.Header.Get("Content-Range"); cr != "bytes 900-999/1000" {
		t.Errorf("Content-Range = %q", cr)
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) != 100 || !bytes.Equal(body, content[900:]) {
		t.Error("body does not match file[900:1000]")
	}
}

func TestServeFileNoRange(t *testing.T) {
	path, content := writeTestVideo(t, 1000)
	app := newStreamTestApp(path, 1000)

	resp := fetchRange(t, app, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		t.Errorf("unexpected Content-Range %q on full response", cr)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "1000" {
		t.Errorf("Content-Length = %q", cl)
	}

	body, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(body, content) {
		t.Error("full body does not match file")
	}
}

func TestServeFileMalformedRangeFallsBack(t *testing.T) {
	path, _ := writeTestVideo(t, 1000)
	app := newStreamTestApp(path, 1000)

	resp := fetchRange(t, app, "bytes=oops")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 fallback", resp.StatusCode)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "1000" {
		t.Errorf("Content-Length = %q", cl)
	}
}

func TestServeFileSecurityHeaders(t *testing.T) {
	path, _ := writeTestVideo(t, 1000)
	app := newStreamTestApp(path, 1000)

	resp := fetchRange(t, app, "bytes=0-99")
	defer resp.Body.Close()

	checks := map[string]string{
		"Accept-Ranges":          "bytes",
		"Cache-Control":          "private, no-cache",
		"Content-Disposition":    "inline",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "SAMEORIGIN",
		"Content-Type":           "video/mp4",
	}
	for header, want := range checks {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestServeFileChunkWalk(t *testing.T) {
	const size = 2*1024*1024 + 512*1024
	path, content := writeTestVideo(t, size)
	app := newStreamTestApp(path, size)

	var assembled []byte
	for offset := 0; offset < size; offset += streamChunkSize {
		end := offset + streamChunkSize - 1
		if end >= size {
			end = size - 1
		}

		resp := fetchRange(t, app, fmt.Sprintf("bytes=%d-%d", offset, end))
		if resp.StatusCode != http.StatusPartialContent {
			t.Fatalf("chunk at %d: status %d", offset, resp.StatusCode)
		}

		wantCR := fmt.Sprintf("bytes %d-%d/%d", offset, end, size)
		if cr := resp.Header.Get("Content-Range"); cr != wantCR {
			t.Fatalf("chunk at %d: Content-Range %q, want %q", offset, cr, wantCR)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("chunk at %d: read body: %v", offset, err)
		}
		if len(body) != end-offset+1 {
			t.Fatalf("chunk at %d: got %d bytes, want %d", offset, len(body), end-offset+1)
		}
		assembled = append(assembled, body...)
	}

	if !bytes.Equal(assembled, content) {
		t.Fatal("reassembled chunks do not equal the original file")
	}
}
