package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the admin UI origins, e.g.
	// ["https://admin.example.vn", "http://localhost:5173"]. "*" allows any
	// origin and is meant for local development only.
	AllowedOrigins []string

	// AllowCredentials lets the admin UI send its gateway cookie.
	AllowCredentials bool
}

// Preflight answers are fixed, so their header values are built once.
var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsAllowHeaders  = strings.Join([]string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID}, ", ")
	corsExposeHeaders = strings.Join([]string{echo.HeaderXRequestID, echo.HeaderRetryAfter}, ", ")
)

// corsPolicy is a CORSConfig resolved for lookups.
type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(cfg.AllowedOrigins)), credentials: cfg.AllowCredentials}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	// A wildcard origin must never be combined with credentials.
	if p.anyOrigin && p.credentials {
		slog.Warn("CORS allows any origin, dropping credentials support")
		p.credentials = false
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS returns middleware for the admin UI, which is a single-page app on
// its own origin. Requests from unknown origins pass through without CORS
// headers and are blocked by the browser.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	policy := newCORSPolicy(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" || !policy.allows(origin) {
				return next(c)
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			if policy.credentials {
				h.Set(echo.HeaderAccessControlAllowCredentials, "true")
			}

			if req.Method != http.MethodOptions {
				h.Set(echo.HeaderAccessControlExposeHeaders, corsExposeHeaders)
				return next(c)
			}

			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			h.Set(echo.HeaderAccessControlMaxAge, "3600")
			return c.NoContent(http.StatusNoContent)
		}
	}
}
