package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
)

// DefaultBodyLimit applies when BODY_LIMIT is empty or malformed.
const DefaultBodyLimit = "1M"

// BodyLimit rejects request bodies larger than limit with 413. Limits use
// the "1M", "512K", "2G" notation; a bare number is bytes. Oversized
// Content-Length is refused up front and chunked bodies are cut off while
// being read.
func BodyLimit(limit string) echo.MiddlewareFunc {
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: normalizeLimit(limit),
	})
}

func normalizeLimit(limit string) string {
	n, err := bytes.Parse(limit)
	if err != nil || n <= 0 {
		return DefaultBodyLimit
	}
	return limit
}
