package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig controls the transport-dependent headers.
type SecurityHeadersConfig struct {
	// HSTS adds Strict-Transport-Security. Only set it when the server, or
	// the proxy in front of it, terminates TLS.
	HSTS bool
}

const hstsValue = "max-age=31536000; includeSubDomains"

// Headers for a JSON API whose responses carry patient data: no sniffing, no
// framing, no caching and no resource loading.
var apiHeaders = []struct{ name, value string }{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "0"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	{"Cache-Control", "no-store"},
}

// SecurityHeaders sets the API response headers before the handler runs, so
// error responses carry them too.
func SecurityHeaders(cfg SecurityHeadersConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, kv := range apiHeaders {
				h.Set(kv.name, kv.value)
			}
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			return next(c)
		}
	}
}
