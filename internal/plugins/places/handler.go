package places

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/placekit/internal/apperror"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

// Envelope is the response body of every admin endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handler handles HTTP requests for the place admin API. Handlers are thin:
// bind, validate, call service, respond. Errors are returned to the echo
// error handler, which renders them in the same envelope.
type Handler struct {
	service PlaceService
}

// NewHandler creates a new place handler.
func NewHandler(service PlaceService) *Handler {
	return &Handler{service: service}
}

// List runs a facet query.
// GET /api/v1/admin/places
func (h *Handler) List(c echo.Context) error {
	result, err := h.service.List(c.Request().Context(), FacetQueryFromValues(c.QueryParams()))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, result, "")
}

// Get returns a single place.
// GET /api/v1/admin/places/:id
func (h *Handler) Get(c echo.Context) error {
	place, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, place, "")
}

// Stats returns catalogue statistics.
// GET /api/v1/admin/places/stats
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, stats, "")
}

// TagOptions returns the pickable tags per category.
// GET /api/v1/admin/places/tag-options
func (h *Handler) TagOptions(c echo.Context) error {
	return ok(c, http.StatusOK, h.service.TagOptions(), "")
}

// Districts returns the district list.
// GET /api/v1/admin/places/districts
func (h *Handler) Districts(c echo.Context) error {
	return ok(c, http.StatusOK, h.service.Districts(), "")
}

// Bulk applies one operation to many places. Per-record failures are part
// of the 200 response.
// POST /api/v1/admin/places/bulk
func (h *Handler) Bulk(c echo.Context) error {
	var body BulkRequestBody
	if err := c.Bind(&body); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	report, err := h.service.Bulk(c.Request().Context(), BulkRequest{
		IDs:       body.PlaceIDs,
		Operation: BulkOperation(body.Operation),
		Status:    body.UpdateData.Status,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, report, bulkMessage(report))
}

// Import creates a place.
// POST /api/v1/admin/places/import
func (h *Handler) Import(c echo.Context) error {
	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	place, err := h.service.Import(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, place, "place imported")
}

// Update edits a place.
// PUT /api/v1/admin/places/:id
func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	place, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, place, "place updated")
}

// Delete removes a place.
// DELETE /api/v1/admin/places/:id
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "place deleted")
}

// Enrich re-classifies a place from a provider payload body.
// POST /api/v1/admin/places/:id/enrich
func (h *Handler) Enrich(c echo.Context) error {
	var payload ProviderPayload
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return apperror.NewBadRequest("invalid provider data")
	}

	place, err := h.service.Enrich(c.Request().Context(), c.Param("id"), &payload)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, place, "place enriched")
}

// ReplaceAITags overwrites the tag set.
// PUT /api/v1/admin/places/:id/ai-tags
func (h *Handler) ReplaceAITags(c echo.Context) error {
	var tags tagging.TagSet
	if err := json.NewDecoder(c.Request().Body).Decode(&tags); err != nil {
		return apperror.NewBadRequest("invalid tag set: " + err.Error())
	}

	place, err := h.service.ReplaceAITags(c.Request().Context(), c.Param("id"), tags)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, place, "tags updated")
}

// AddAITag adds one tag to a category.
// POST /api/v1/admin/places/:id/ai-tags/:category
func (h *Handler) AddAITag(c echo.Context) error {
	var req AddTagRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	place, err := h.service.AddAITag(c.Request().Context(), c.Param("id"), c.Param("category"), req.Tag)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, place, "tag added")
}

// RemoveAITag removes one tag from a category.
// DELETE /api/v1/admin/places/:id/ai-tags/:category/:tag
func (h *Handler) RemoveAITag(c echo.Context) error {
	// echo leaves params escaped when the request carried a raw path.
	tag, err := url.PathUnescape(c.Param("tag"))
	if err != nil {
		return apperror.NewBadRequest("invalid tag")
	}

	place, err := h.service.RemoveAITag(c.Request().Context(), c.Param("id"), c.Param("category"), tag)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, place, "tag removed")
}

func ok(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func bulkMessage(r *BulkReport) string {
	switch {
	case len(r.Failed) == 0 && len(r.Skipped) == 0:
		return "all places updated"
	case len(r.Succeeded) == 0:
		return "no places updated"
	default:
		return "some places were not updated"
	}
}
