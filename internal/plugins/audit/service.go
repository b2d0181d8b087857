package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/keyxmakerx/placekit/internal/apperror"
	"github.com/keyxmakerx/placekit/internal/plugins/places"
)

// perPage is the number of audit entries shown per page in the activity feed.
const perPage = 50

// maxPage bounds the page number so the offset cannot overflow.
const maxPage = math.MaxInt32 / perPage

// maxPlaceHistoryEntries caps the history returned for a single place.
const maxPlaceHistoryEntries = 100

// AuditService handles business logic for the audit log. It validates inputs,
// enforces limits, and delegates persistence to the repository.
type AuditService interface {
	places.ActivityLog

	// Log records an audit entry.
	Log(ctx context.Context, entry *AuditEntry) error

	// Recent returns one page of the activity feed. Pages are 1-indexed.
	Recent(ctx context.Context, page int) (*ActivityPage, error)

	// PlaceHistory returns the recent change history of a single place.
	PlaceHistory(ctx context.Context, placeID string) ([]AuditEntry, error)

	Stats(ctx context.Context) (*ActivityStats, error)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Record stores a catalogue change reported by the places plugin.
func (s *auditService) Record(ctx context.Context, a places.Activity) error {
	return s.Log(ctx, &AuditEntry{
		Action:    a.Action,
		PlaceID:   a.PlaceID,
		PlaceName: a.PlaceName,
		Details:   a.Details,
	})
}

// Log validates and persists an audit entry. Write failures are logged
// here so callers can treat the log as fire-and-forget.
func (s *auditService) Log(ctx context.Context, entry *AuditEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("action", entry.Action),
			slog.String("place_id", entry.PlaceID),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}

	return nil
}

// Recent returns the paginated activity feed. Page numbers are clamped to
// [1, maxPage].
func (s *auditService) Recent(ctx context.Context, page int) (*ActivityPage, error) {
	page = max(1, min(page, maxPage))

	offset := (page - 1) * perPage
	entries, total, err := s.repo.List(ctx, perPage, offset)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing activity: %w", err))
	}

	return &ActivityPage{Entries: entries, Total: total, Page: page, PerPage: perPage}, nil
}

// PlaceHistory returns the change history of one place, limited to
// maxPlaceHistoryEntries.
func (s *auditService) PlaceHistory(ctx context.Context, placeID string) ([]AuditEntry, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, apperror.NewBadRequest("place ID is required")
	}

	entries, err := s.repo.ListByPlace(ctx, placeID, maxPlaceHistoryEntries)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing place history: %w", err))
	}

	return entries, nil
}

// Stats returns aggregate statistics over the log.
func (s *auditService) Stats(ctx context.Context) (*ActivityStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("getting activity stats: %w", err))
	}

	return stats, nil
}
