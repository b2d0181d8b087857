package audit

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the activity log routes on the given Echo instance.
// Like the place API, authentication is enforced by the gateway.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/api/v1/admin/activity", h.Activity)
	e.GET("/api/v1/admin/places/:id/history", h.PlaceHistory)
}
