package middleware

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// CacheConfig holds HTTP cache and ETag configuration.
type CacheConfig struct {
	MaxAge       int      // Cache max-age in seconds
	ETagEnabled  bool     // Enable ETag generation and conditional requests
	ExcludePaths []string // Path prefixes to skip, e.g. "/health"
}

// DefaultCacheConfig returns cache settings for public reference data:
// responses are identical for every caller and change only on dataset
// reload, so shared caches may keep them for five minutes.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:      300,
		ETagEnabled: true,
		ExcludePaths: []string{
			"/health",
		},
	}
}

// Cache returns middleware that sets Cache-Control on GET responses and
// answers If-None-Match revalidations with 304 when the body is unchanged.
// Non-GET requests pass through untouched.
func Cache(cfg CacheConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			for _, prefix := range cfg.ExcludePaths {
				if len(c.Request().URL.Path) >= len(prefix) && c.Request().URL.Path[:len(prefix)] == prefix {
					return next(c)
				}
			}

			if !cfg.ETagEnabled {
				c.Response().Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(cfg.MaxAge))
				return next(c)
			}

			// Buffer the response so the ETag can be computed over the
			// full body before anything is written to the client.
			rec := &bufferingWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}

			header := c.Response().Header()
			if rec.status == http.StatusOK {
				etag := fmt.Sprintf(`"%x"`, md5.Sum(rec.body.Bytes()))
				header.Set("ETag", etag)
				header.Set("Cache-Control", "public, max-age="+strconv.Itoa(cfg.MaxAge))

				if c.Request().Header.Get("If-None-Match") == etag {
					rec.ResponseWriter.WriteHeader(http.StatusNotModified)
					return nil
				}
			}

			rec.ResponseWriter.WriteHeader(rec.status)
			_, err := rec.ResponseWriter.Write(rec.body.Bytes())
			return err
		}
	}
}

// bufferingWriter captures the response status and body without writing to
// the underlying connection.
type bufferingWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *bufferingWriter) WriteHeader(status int) {
	w.status = status
}

func (w *bufferingWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}
