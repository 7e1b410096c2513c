package middleware

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit returns middleware that limits the maximum request body size.
// The request bodies this API accepts are small JSON documents, so a tight
// limit bounds memory per request.
//
// The limit is a human-readable string: "1M" for 1 megabyte, "64K" for 64
// kilobytes. Supported suffixes are K, M, and G. A bare number is treated
// as bytes. When the limit is exceeded, the middleware returns HTTP 413.
func BodyLimit(limit string) echo.MiddlewareFunc {
	limitBytes := parseLimit(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Body == nil || c.Request().Body == http.NoBody {
				return next(c)
			}

			// Check Content-Length header first for early rejection
			if c.Request().ContentLength > limitBytes {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
			}

			// Wrap the body with a limiting reader to enforce the limit
			// even when Content-Length is missing or incorrect.
			c.Request().Body = &limitedReadCloser{
				reader: c.Request().Body,
				limit:  limitBytes,
			}

			err := next(c)
			if err == errBodyTooLarge {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
			}
			return err
		}
	}
}

// errBodyTooLarge is the sentinel surfaced by limitedReadCloser when the
// body exceeds the configured limit mid-read.
var errBodyTooLarge = echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")

// limitedReadCloser restricts how many bytes can be read from the body.
type limitedReadCloser struct {
	reader io.ReadCloser
	limit  int64
	read   int64
}

func (l *limitedReadCloser) Read(p []byte) (int, error) {
	n, err := l.reader.Read(p)
	l.read += int64(n)
	if l.read > l.limit {
		return n, errBodyTooLarge
	}
	return n, err
}

func (l *limitedReadCloser) Close() error {
	return l.reader.Close()
}

// parseLimit converts a human-readable size string to bytes. Invalid input
// falls back to 1 megabyte.
func parseLimit(limit string) int64 {
	const fallback = 1 << 20

	s := strings.TrimSpace(strings.ToUpper(limit))
	if s == "" {
		return fallback
	}

	multiplier := int64(1)
	switch s[len(s)-1] {
	case 'K':
		multiplier = 1 << 10
		s = s[:len(s)-1]
	case 'M':
		multiplier = 1 << 20
		s = s[:len(s)-1]
	case 'G':
		multiplier = 1 << 30
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n * multiplier
}
