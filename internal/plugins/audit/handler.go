package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/placekit/internal/plugins/places"
)

// Handler handles HTTP requests for audit log operations. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service AuditService
}

// NewHandler creates a new audit handler.
func NewHandler(service AuditService) *Handler {
	return &Handler{service: service}
}

// activityResponse is the data of the activity feed endpoint.
type activityResponse struct {
	*ActivityPage
	Stats *ActivityStats `json:"stats"`
}

// Activity returns the activity feed together with the log statistics
// (GET /api/v1/admin/activity?page=N).
func (h *Handler) Activity(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))

	ctx := c.Request().Context()
	feed, err := h.service.Recent(ctx, page)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, places.Envelope{
		Success: true,
		Data:    activityResponse{ActivityPage: feed, Stats: stats},
	})
}

// PlaceHistory returns the change history of one place
// (GET /api/v1/admin/places/:id/history).
func (h *Handler) PlaceHistory(c echo.Context) error {
	entries, err := h.service.PlaceHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, places.Envelope{Success: true, Data: entries})
}
