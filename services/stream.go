package services

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/sayan-academy/sayan_api/shared"
)

// StreamService writes video bytes to the client with HTTP Range support.
// Only the first range of a multi-range request is honored; malformed Range
// headers fall back to a full 200 response, matching browser expectations.
type StreamService struct {
	context.DefaultService
}

// Bytes handed to the client per read. Keeps memory bounded on large files.
const streamChunkSize = 1 << 20

const STREAM_SVC = "stream_svc"

func (svc StreamService) Id() string {
	return STREAM_SVC
}

func (svc *StreamService) Start() error {
	return nil
}

// ParseRange resolves a Range header against fileSize into an inclusive
// [start, end] byte span. ok is false when the header is absent, malformed,
// or unsatisfiable, in which case the caller serves the whole file.
func (svc *StreamService) ParseRange(header string, fileSize int64) (start, end int64, ok bool) {
	if header == "" || fileSize <= 0 {
		return 0, 0, false
	}

	spec, found := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !found {
		return 0, 0, false
	}

	// Multi-range requests collapse to their first range.
	first := strings.TrimSpace(strings.Split(spec, ",")[0])
	startStr, endStr, found := strings.Cut(first, "-")
	if !found {
		return 0, 0, false
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		// Suffix range: last N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > fileSize {
			n = fileSize
		}
		return fileSize - n, fileSize - 1, true
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= fileSize {
		return 0, 0, false
	}

	end = fileSize - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= fileSize {
			end = fileSize - 1
		}
	}

	return start, end, true
}

// ServeFile streams path to the client, honoring rangeHeader. The file is
// opened here and closed by the transport when the body stream is drained.
// onDone, if non-nil, fires with the byte count once the stream is closed.
func (svc *StreamService) ServeFile(c *fiber.Ctx, path string, fileSize int64, mimeType, rangeHeader string, onDone func(sent int64)) error {
	start, end, partial := svc.ParseRange(rangeHeader, fileSize)
	if !partial {
		start, end = 0, fileSize-1
	}
	contentLength := end - start + 1

	f, err := os.Open(path)
	if err != nil {
		return shared.NewInternalError(err, "Failed to open video file")
	}

	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			_ = f.Close()
			return shared.NewInternalError(err, "Failed to seek video file")
		}
	}

	c.Set(fiber.HeaderContentType, mimeType)
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(contentLength, 10))
	c.Set(fiber.HeaderCacheControl, "private, no-cache")
	c.Set(fiber.HeaderContentDisposition, "inline")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "SAMEORIGIN")

	if partial {
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
		c.Status(http.StatusPartialContent)
	} else {
		c.Status(http.StatusOK)
	}

	c.Response().SetBodyStream(&chunkedReader{src: f, remaining: contentLength, onDone: onDone}, int(contentLength))
	return nil
}

// chunkedReader caps each Read at streamChunkSize and stops after the byte
// span it was created for, so an open-ended seek never over-reads the file.
type chunkedReader struct {
	src       *os.File
	remaining int64
	sent      int64
	onDone    func(sent int64)
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}

	limit := int64(len(p))
	if limit > streamChunkSize {
		limit = streamChunkSize
	}
	if limit > r.remaining {
		limit = r.remaining
	}

	n, err := r.src.Read(p[:limit])
	r.remaining -= int64(n)
	r.sent += int64(n)
	if err == nil && r.remaining == 0 {
		err = io.EOF
	}
	return n, err
}

func (r *chunkedReader) Close() error {
	if r.onDone != nil {
		r.onDone(r.sent)
	}
	return r.src.Close()
}
