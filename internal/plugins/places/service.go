package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/placekit/internal/apperror"
	"github.com/keyxmakerx/placekit/internal/hours"
	"github.com/keyxmakerx/placekit/internal/sanitize"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

// PlaceService handles business logic for the place catalogue.
type PlaceService interface {
	List(ctx context.Context, req FacetQuery) (*ListResult, error)
	GetByID(ctx context.Context, id string) (*Place, error)
	Bulk(ctx context.Context, req BulkRequest) (*BulkReport, error)

	// Import creates a place, tagging it and normalizing its hours from the
	// provider payload when one is given.
	Import(ctx context.Context, req ImportRequest) (*Place, error)

	// Update edits the fields set in req. Tags are not touched.
	Update(ctx context.Context, id string, req UpdateRequest) (*Place, error)
	Delete(ctx context.Context, id string) error

	// Enrich re-classifies an existing place from a provider payload. The
	// classified tags are merged into the stored ones, so manual tags are
	// never lost.
	Enrich(ctx context.Context, id string, payload *ProviderPayload) (*Place, error)

	ReplaceAITags(ctx context.Context, id string, tags tagging.TagSet) (*Place, error)
	AddAITag(ctx context.Context, id, category, tag string) (*Place, error)
	RemoveAITag(ctx context.Context, id, category, tag string) (*Place, error)

	Stats(ctx context.Context) (*Stats, error)
	TagOptions() tagging.TagSet
	Districts() []string

	// RetagPending enriches up to limit places whose stored provider data
	// was never classified.
	RetagPending(ctx context.Context, limit int) (RetagResult, error)
}

// placeService implements PlaceService.
type placeService struct {
	repo       PlaceRepository
	classifier *tagging.Classifier
	cache      StatsCache
	bulk       *BulkExecutor
	limits     Limits
	activity   ActivityLog
}

// NewPlaceService creates a new place service. cache may be nil, in which
// case stats are always computed from the database. activity may be nil to
// skip the activity log.
func NewPlaceService(repo PlaceRepository, classifier *tagging.Classifier, cache StatsCache, activity ActivityLog, limits Limits, maxBulkIDs int) PlaceService {
	if classifier == nil {
		classifier = tagging.NewClassifier(nil)
	}
	return &placeService{
		repo:       repo,
		classifier: classifier,
		cache:      cache,
		bulk:       NewBulkExecutor(repo, maxBulkIDs),
		limits:     limits.normalized(),
		activity:   activity,
	}
}

// List runs a facet query and returns one page with its pagination.
func (s *placeService) List(ctx context.Context, req FacetQuery) (*ListResult, error) {
	q := BuildQuery(req, s.limits)

	total, err := s.repo.Count(ctx, q.Filter)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("counting places: %w", err))
	}

	places := []Place{}
	// Pages past the end are answered without a second round trip.
	if q.Skip < total {
		places, err = s.repo.List(ctx, q)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("listing places: %w", err))
		}
	}

	return &ListResult{Places: places, Pagination: BuildPagination(total, q)}, nil
}

// GetByID retrieves a place by its ID.
func (s *placeService) GetByID(ctx context.Context, id string) (*Place, error) {
	return s.find(ctx, id)
}

// Bulk applies a bulk mutation and drops the cached stats if anything
// changed.
func (s *placeService) Bulk(ctx context.Context, req BulkRequest) (*BulkReport, error) {
	report, err := s.bulk.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(report.Succeeded) > 0 {
		s.invalidateStats(ctx)
		s.record(ctx, Activity{
			Action: ActionPlacesBulk,
			Details: map[string]any{
				"operation": string(req.Operation),
				"placeIds":  report.Succeeded,
				"failed":    len(report.Failed),
				"skipped":   len(report.Skipped),
			},
		})
	}

	slog.Info("bulk mutation applied",
		slog.String("operation", string(req.Operation)),
		slog.Int("succeeded", len(report.Succeeded)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// Import creates a place from editor input and an optional provider payload.
func (s *placeService) Import(ctx context.Context, req ImportRequest) (*Place, error) {
	name := sanitize.Line(req.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("place name is required")
	}
	address := sanitize.Line(req.Address)
	if address == "" {
		return nil, apperror.NewBadRequest("place address is required")
	}

	status := NormalizeStatus(req.Status)
	if !ValidStatus(status) {
		return nil, apperror.NewBadRequest(fmt.Sprintf("unknown status %q", req.Status))
	}
	if req.PriceMax > 0 && req.PriceMax < req.PriceMin {
		return nil, apperror.NewBadRequest("maximum price must not be below minimum price")
	}
	if req.OperatingHours != nil {
		if err := checkSchedule(*req.OperatingHours); err != nil {
			return nil, err
		}
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = SourceManual
	}

	ts := now()
	place := &Place{
		ID:          uuid.New().String(),
		Name:        name,
		Address:     address,
		District:    sanitize.Line(req.District),
		Category:    sanitize.Line(req.Category),
		Description: sanitize.Text(req.Description),
		PriceMin:    req.PriceMin,
		PriceMax:    req.PriceMax,
		Status:      status,
		IsActive:    true,
		Featured:    req.Featured,
		Source:      source,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	var manual tagging.TagSet
	if req.AITags != nil {
		manual = tagging.Merge(nil, *req.AITags)
	}
	place.AITags = manual

	if !req.Payload.Empty() {
		enrichment, err := s.enrichment(&manual, req.Payload, ts)
		if err != nil {
			return nil, err
		}
		place.AITags = enrichment.Tags
		place.AITagsMeta = &enrichment.Meta
		if enrichment.Hours != nil {
			place.OperatingHours = *enrichment.Hours
		}
		place.SourceData = enrichment.SourceData
		place.EnrichedAt = &ts

		if place.Category == "" {
			place.Category = sanitize.Line(req.Payload.label())
		}
		place.AverageRating = req.Payload.Rating
		place.TotalReviews = req.Payload.ReviewsCount
	}
	if req.OperatingHours != nil {
		place.OperatingHours = *req.OperatingHours
	}

	if err := s.repo.Create(ctx, place); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating place: %w", err))
	}
	s.invalidateStats(ctx)
	s.record(ctx, Activity{
		Action:    ActionPlaceImported,
		PlaceID:   place.ID,
		PlaceName: place.Name,
		Details:   map[string]any{"source": place.Source, "aiTags": place.AITags.Total()},
	})

	slog.Info("place imported",
		slog.String("place_id", place.ID),
		slog.String("source", place.Source),
		slog.Int("ai_tags", place.AITags.Total()),
	)
	return place, nil
}

// Update applies the set fields of req to a place. Name and address may not
// be cleared, and the price range and schedule are checked after merging
// with the stored values.
func (s *placeService) Update(ctx context.Context, id string, req UpdateRequest) (*Place, error) {
	place, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	setText := func(field string, dst *string, src *string, clean func(string) string) {
		if src == nil {
			return
		}
		if v := clean(*src); v != *dst {
			*dst = v
			changed = append(changed, field)
		}
	}
	setText("name", &place.Name, req.Name, sanitize.Line)
	setText("address", &place.Address, req.Address, sanitize.Line)
	setText("district", &place.District, req.District, sanitize.Line)
	setText("category", &place.Category, req.Category, sanitize.Line)
	setText("description", &place.Description, req.Description, sanitize.Text)

	if place.Name == "" {
		return nil, apperror.NewBadRequest("place name is required")
	}
	if place.Address == "" {
		return nil, apperror.NewBadRequest("place address is required")
	}

	if req.Status != nil {
		status := NormalizeStatus(*req.Status)
		if !ValidStatus(status) {
			return nil, apperror.NewBadRequest(fmt.Sprintf("unknown status %q", *req.Status))
		}
		if status != place.Status {
			place.Status = status
			changed = append(changed, "status")
		}
	}

	if req.PriceMin != nil && *req.PriceMin != place.PriceMin {
		place.PriceMin = *req.PriceMin
		changed = append(changed, "priceMin")
	}
	if req.PriceMax != nil && *req.PriceMax != place.PriceMax {
		place.PriceMax = *req.PriceMax
		changed = append(changed, "priceMax")
	}
	if place.PriceMax > 0 && place.PriceMax < place.PriceMin {
		return nil, apperror.NewBadRequest("maximum price must not be below minimum price")
	}

	if req.IsActive != nil && *req.IsActive != place.IsActive {
		place.IsActive = *req.IsActive
		changed = append(changed, "isActive")
	}
	if req.Featured != nil && *req.Featured != place.Featured {
		place.Featured = *req.Featured
		changed = append(changed, "featured")
	}

	if req.OperatingHours != nil {
		if err := checkSchedule(*req.OperatingHours); err != nil {
			return nil, err
		}
		if *req.OperatingHours != place.OperatingHours {
			place.OperatingHours = *req.OperatingHours
			changed = append(changed, "operatingHours")
		}
	}

	if len(changed) == 0 {
		return place, nil
	}

	place.UpdatedAt = now()
	if err := s.repo.Update(ctx, place); err != nil {
		return nil, wrapRepoError("updating place", err)
	}
	s.invalidateStats(ctx)
	s.record(ctx, Activity{
		Action:    ActionPlaceUpdated,
		PlaceID:   place.ID,
		PlaceName: place.Name,
		Details:   map[string]any{"fields": changed},
	})
	return place, nil
}

// Delete removes a single place.
func (s *placeService) Delete(ctx context.Context, id string) error {
	place, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepoError("deleting place", err)
	}
	s.invalidateStats(ctx)
	s.record(ctx, Activity{Action: ActionPlaceDeleted, PlaceID: place.ID, PlaceName: place.Name})

	slog.Info("place deleted", slog.String("place_id", place.ID))
	return nil
}

// Enrich re-classifies an existing place from payload.
func (s *placeService) Enrich(ctx context.Context, id string, payload *ProviderPayload) (*Place, error) {
	if payload.Empty() {
		return nil, apperror.NewBadRequest("provider data is required")
	}

	place, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, place, payload); err != nil {
		return nil, err
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, Activity{
		Action:    ActionPlaceEnriched,
		PlaceID:   updated.ID,
		PlaceName: updated.Name,
		Details:   map[string]any{"aiTags": updated.AITags.Total()},
	})
	return updated, nil
}

// ReplaceAITags overwrites the whole tag set. Blank and repeated tags are
// dropped.
func (s *placeService) ReplaceAITags(ctx context.Context, id string, tags tagging.TagSet) (*Place, error) {
	place, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	clean := tagging.Merge(nil, tags)
	if err := s.repo.UpdateAITags(ctx, id, clean, nil); err != nil {
		return nil, wrapRepoError("replacing place tags", err)
	}
	place.AITags = clean
	s.recordTagEdit(ctx, place, "replace", map[string]any{"aiTags": clean.Total()})
	return place, nil
}

// AddAITag adds one tag to a category. Adding a tag that is already there
// is a no-op.
func (s *placeService) AddAITag(ctx context.Context, id, category, tag string) (*Place, error) {
	cat, tag, err := parseTagTarget(category, tag)
	if err != nil {
		return nil, err
	}

	place, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !place.AITags.Add(cat, tag) {
		return place, nil
	}

	if err := s.repo.UpdateAITags(ctx, id, place.AITags, nil); err != nil {
		return nil, wrapRepoError("adding place tag", err)
	}
	s.recordTagEdit(ctx, place, "add", map[string]any{"category": cat.String(), "tag": tag})
	return place, nil
}

// RemoveAITag removes one tag from a category. Removing an absent tag is a
// no-op.
func (s *placeService) RemoveAITag(ctx context.Context, id, category, tag string) (*Place, error) {
	cat, tag, err := parseTagTarget(category, tag)
	if err != nil {
		return nil, err
	}

	place, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !place.AITags.Remove(cat, tag) {
		return place, nil
	}

	if err := s.repo.UpdateAITags(ctx, id, place.AITags, nil); err != nil {
		return nil, wrapRepoError("removing place tag", err)
	}
	s.recordTagEdit(ctx, place, "remove", map[string]any{"category": cat.String(), "tag": tag})
	return place, nil
}

// Stats returns catalogue statistics, served from the cache when possible.
// Cache failures are logged and fall through to the database.
func (s *placeService) Stats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			slog.Warn("stats cache read failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("computing place stats: %w", err))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats); err != nil {
			slog.Warn("stats cache write failed", slog.Any("error", err))
		}
	}
	return stats, nil
}

// TagOptions returns every tag an editor may pick: the built-in vocabulary
// plus anything the active rule table can produce.
func (s *placeService) TagOptions() tagging.TagSet {
	vocab := tagging.Vocabulary()
	return tagging.Merge(&vocab, s.classifier.Table().Tags())
}

func (s *placeService) Districts() []string {
	return Districts()
}

// RetagPending enriches one batch of places from their stored payloads.
// A place whose payload cannot be decoded is still stamped as enriched so
// it does not block later batches.
func (s *placeService) RetagPending(ctx context.Context, limit int) (RetagResult, error) {
	var result RetagResult

	pending, err := s.repo.ListPendingEnrichment(ctx, limit)
	if err != nil {
		return result, apperror.NewInternal(fmt.Errorf("listing places pending enrichment: %w", err))
	}

	for i := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		place := &pending[i]

		payload := &ProviderPayload{}
		malformed := false
		if err := json.Unmarshal(place.SourceData, payload); err != nil {
			slog.Warn("stored provider data is malformed",
				slog.String("place_id", place.ID),
				slog.Any("error", err),
			)
			payload = &ProviderPayload{}
			malformed = true
		}

		if err := s.enrich(ctx, place, payload); err != nil {
			slog.Error("retag failed for place",
				slog.String("place_id", place.ID),
				slog.Any("error", err),
			)
			result.Failed++
			continue
		}
		if malformed {
			result.Failed++
			continue
		}
		result.Processed++
	}

	if result.Processed+result.Failed > 0 {
		s.record(ctx, Activity{
			Action:  ActionPlacesRetagged,
			Details: map[string]any{"processed": result.Processed, "failed": result.Failed},
		})
	}
	return result, nil
}

// enrich classifies payload against place and persists the result.
func (s *placeService) enrich(ctx context.Context, place *Place, payload *ProviderPayload) error {
	ts := now()
	enrichment, err := s.enrichment(&place.AITags, payload, ts)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateEnrichment(ctx, place.ID, enrichment); err != nil {
		return wrapRepoError("storing place enrichment", err)
	}

	slog.Debug("place enriched",
		slog.String("place_id", place.ID),
		slog.Int("ai_tags", enrichment.Tags.Total()),
	)
	return nil
}

// enrichment merges the classified tags of payload into existing and
// normalizes its opening hours. Hours stay nil when the payload has none.
func (s *placeService) enrichment(existing *tagging.TagSet, payload *ProviderPayload, ts time.Time) (Enrichment, error) {
	src := payload.TagSource()
	tags := tagging.Merge(existing, s.classifier.Classify(src))

	e := Enrichment{
		Tags:       tags,
		Meta:       s.classifier.Describe(src, tags, ts),
		EnrichedAt: ts,
	}

	if entries := payload.HourEntries(); len(entries) > 0 {
		schedule := hours.Normalize(entries)
		e.Hours = &schedule
	}

	if !payload.Empty() {
		raw, err := payload.Raw()
		if err != nil {
			return Enrichment{}, apperror.NewInternal(fmt.Errorf("encoding provider data: %w", err))
		}
		e.SourceData = raw
	}
	return e, nil
}

func (s *placeService) find(ctx context.Context, id string) (*Place, error) {
	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError("finding place", err)
	}
	return place, nil
}

func (s *placeService) recordTagEdit(ctx context.Context, place *Place, op string, details map[string]any) {
	details["op"] = op
	s.record(ctx, Activity{
		Action:    ActionPlaceTagsUpdated,
		PlaceID:   place.ID,
		PlaceName: place.Name,
		Details:   details,
	})
}

func (s *placeService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("stats cache invalidation failed", slog.Any("error", err))
	}
}

// checkSchedule rejects hand-written hours that the normalizer would never
// produce.
func checkSchedule(schedule hours.WeeklySchedule) error {
	if day, bad := schedule.Invalid(); bad {
		return apperror.NewFieldValidation("invalid operating hours", map[string]string{
			"operatingHours." + day.String(): "must be closed or two HH:mm times",
		})
	}
	return nil
}

// parseTagTarget validates the category key and tag of a single-tag edit.
func parseTagTarget(category, tag string) (tagging.Category, string, error) {
	cat, ok := tagging.ParseCategory(category)
	if !ok {
		return 0, "", apperror.NewBadRequest(fmt.Sprintf("unknown tag category %q", category))
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return 0, "", apperror.NewBadRequest("tag is required")
	}
	return cat, tag, nil
}

// wrapRepoError passes AppErrors through and wraps anything else as an
// internal error.
func wrapRepoError(action string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", action, err))
}
