// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance) and wires the place and audit plugins into it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/placekit/internal/apperror"
	"github.com/keyxmakerx/placekit/internal/config"
	"github.com/keyxmakerx/placekit/internal/middleware"
	"github.com/keyxmakerx/placekit/internal/plugins/audit"
	"github.com/keyxmakerx/placekit/internal/plugins/places"
	"github.com/keyxmakerx/placekit/internal/tagging"
	"github.com/keyxmakerx/placekit/internal/validation"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool.
	DB *sql.DB

	// Redis is the Redis client backing the stats cache.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Places is the place catalogue service.
	Places places.PlaceService

	// Audit records catalogue changes and serves the activity feed.
	Audit audit.AuditService

	// Retagger is the scheduled re-tag job, nil when disabled.
	Retagger *places.Retagger

	bulkLimiter *middleware.RateLimiter
	checks      []healthCheck
}

// healthCheck is one dependency probed by /healthz.
type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// New creates a new App, configures the Echo server with global middleware
// and error handling, and builds the place plugin over rules.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client, rules *tagging.RuleTable) (*App, error) {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. The bulk rate limiter keys on it.
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	e.Validator = validation.New()

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
		checks: []healthCheck{
			{name: "mariadb", ping: db.PingContext},
			{name: "redis", ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler

	app.Audit = audit.NewAuditService(audit.NewAuditRepository(db))
	app.Places = places.NewPlaceService(
		places.NewPlaceRepository(db),
		tagging.NewClassifier(rules),
		places.NewRedisStatsCache(rdb, cfg.Tagging.StatsCacheTTL),
		app.Audit,
		places.Limits{Default: cfg.Query.DefaultLimit, Max: cfg.Query.MaxLimit},
		cfg.Bulk.MaxIDs,
	)
	app.bulkLimiter = middleware.NewRateLimiter(cfg.Bulk.RatePerSecond, cfg.Bulk.Burst)

	if cfg.Tagging.RetagEnabled {
		retagger, err := places.NewRetagger(app.Places, cfg.Tagging.RetagSchedule, cfg.Tagging.RetagBatchSize)
		if err != nil {
			app.bulkLimiter.Stop()
			return nil, err
		}
		app.Retagger = retagger
	}

	return app, nil
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: the request ID is assigned first so every later log line
// can carry it, and recovery wraps everything below it.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.RequestID())

	// Panic recovery -- must wrap all other middleware to catch their panics.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- nosniff, frame denial, no caching of API responses.
	a.Echo.Use(middleware.SecurityHeaders())

	// CORS -- the admin UI is served from its own origin.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))
}

// errorResponse is the error form of the response envelope.
type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Type    string            `json:"type,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) and Echo's own HTTP errors to the JSON response envelope.
// Internal causes are logged, never sent.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	resp := errorResponse{Message: defaultErrorMessage(http.StatusInternalServerError)}
	code := http.StatusInternalServerError

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		resp.Message = appErr.Message
		resp.Type = appErr.Type
		resp.Fields = appErr.Fields

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.GetRequestID(c)),
			)
		}

	case errors.As(err, &echoErr):
		// Echo's built-in HTTP errors, e.g. 404 and 405 from the router.
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			resp.Message = msg
		} else {
			resp.Message = defaultErrorMessage(code)
		}

	default:
		// Truly unexpected error -- log it.
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.GetRequestID(c)),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, resp)
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusNotFound:
		return "The requested resource does not exist."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusConflict:
		return "This action conflicts with the current state."
	case http.StatusUnprocessableEntity:
		return "The submitted data could not be processed."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "Something went wrong on our end. Please try again."
	}
}

// Start begins listening for HTTP requests on the configured port and starts
// the re-tag scheduler.
func (a *App) Start() error {
	if a.Retagger != nil {
		a.Retagger.Start()
	}

	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Placekit server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// Shutdown drains in-flight requests, then stops background work.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if a.Retagger != nil {
		a.Retagger.Stop(ctx)
	}
	if a.bulkLimiter != nil {
		a.bulkLimiter.Stop()
	}
	return err
}
