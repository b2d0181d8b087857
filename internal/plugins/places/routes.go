package places

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes adds the place admin API to the Echo instance. The bulk
// endpoint gets bulkLimit in front of it; pass nil to leave it unlimited.
// Authentication is enforced by the gateway in front of this service.
func RegisterRoutes(e *echo.Echo, h *Handler, bulkLimit echo.MiddlewareFunc) {
	g := e.Group("/api/v1/admin/places")

	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/tag-options", h.TagOptions)
	g.GET("/districts", h.Districts)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	var bulkMW []echo.MiddlewareFunc
	if bulkLimit != nil {
		bulkMW = append(bulkMW, bulkLimit)
	}
	g.POST("/bulk", h.Bulk, bulkMW...)
	g.POST("/import", h.Import)
	g.POST("/:id/enrich", h.Enrich)

	g.PUT("/:id/ai-tags", h.ReplaceAITags)
	g.POST("/:id/ai-tags/:category", h.AddAITag)
	g.DELETE("/:id/ai-tags/:category/:tag", h.RemoveAITag)
}
