package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/placekit/internal/plugins/audit"
	"github.com/keyxmakerx/placekit/internal/plugins/places"
)

// healthTimeout bounds each dependency ping of /healthz.
const healthTimeout = 2 * time.Second

// RegisterRoutes sets up all application routes.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", a.healthz)

	// --- Plugin Routes ---

	var bulkLimit echo.MiddlewareFunc
	if a.bulkLimiter != nil {
		bulkLimit = a.bulkLimiter.Middleware()
	}
	places.RegisterRoutes(e, places.NewHandler(a.Places), bulkLimit)
	audit.RegisterRoutes(e, audit.NewHandler(a.Audit))
}

// healthz pings every dependency and reports 503 if any is down.
func (a *App) healthz(c echo.Context) error {
	status := http.StatusOK
	deps := make(map[string]string, len(a.checks))

	for _, check := range a.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		err := check.ping(ctx)
		cancel()

		if err != nil {
			deps[check.name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[check.name] = "ok"
	}

	return c.JSON(status, places.Envelope{
		Success: status == http.StatusOK,
		Data:    deps,
	})
}
