package places

import (
	"context"
	"log/slog"
)

// Activity actions follow the "resource.verb" pattern.
const (
	ActionPlaceImported    = "place.imported"
	ActionPlaceUpdated     = "place.updated"
	ActionPlaceDeleted     = "place.deleted"
	ActionPlaceEnriched    = "place.enriched"
	ActionPlaceTagsUpdated = "place.tags_updated"
	ActionPlacesBulk       = "places.bulk"
	ActionPlacesRetagged   = "places.retagged"
)

// Activity describes one catalogue change. PlaceID is empty for changes
// that span several places.
type Activity struct {
	Action    string
	PlaceID   string
	PlaceName string
	Details   map[string]any
}

// ActivityLog receives catalogue changes after they are persisted.
type ActivityLog interface {
	Record(ctx context.Context, a Activity) error
}

// record hands a to the activity log. A failed write never fails the
// change that caused it.
func (s *placeService) record(ctx context.Context, a Activity) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, a); err != nil {
		slog.Warn("activity log write failed",
			slog.String("action", a.Action),
			slog.String("place_id", a.PlaceID),
			slog.Any("error", err),
		)
	}
}
