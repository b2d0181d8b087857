package places

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/keyxmakerx/placekit/internal/apperror"
	"github.com/keyxmakerx/placekit/internal/hours"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

// --- Mock Repository ---

// mockPlaceRepo implements PlaceRepository for testing.
type mockPlaceRepo struct {
	createFn           func(ctx context.Context, p *Place) error
	updateFn           func(ctx context.Context, p *Place) error
	findByIDFn         func(ctx context.Context, id string) (*Place, error)
	listFn             func(ctx context.Context, q Query) ([]Place, error)
	countFn            func(ctx context.Context, f Filter) (int, error)
	updateStatusFn     func(ctx context.Context, id, status string) error
	setActiveFn        func(ctx context.Context, id string, active bool) error
	deleteFn           func(ctx context.Context, id string) error
	updateAITagsFn     func(ctx context.Context, id string, tags tagging.TagSet, meta *tagging.Meta) error
	updateEnrichmentFn func(ctx context.Context, id string, e Enrichment) error
	listPendingFn      func(ctx context.Context, limit int) ([]Place, error)
	statsFn            func(ctx context.Context) (*Stats, error)
}

func (m *mockPlaceRepo) Create(ctx context.Context, p *Place) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockPlaceRepo) Update(ctx context.Context, p *Place) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockPlaceRepo) FindByID(ctx context.Context, id string) (*Place, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("place not found")
}

func (m *mockPlaceRepo) List(ctx context.Context, q Query) ([]Place, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return []Place{}, nil
}

func (m *mockPlaceRepo) Count(ctx context.Context, f Filter) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, f)
	}
	return 0, nil
}

func (m *mockPlaceRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockPlaceRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockPlaceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPlaceRepo) UpdateAITags(ctx context.Context, id string, tags tagging.TagSet, meta *tagging.Meta) error {
	if m.updateAITagsFn != nil {
		return m.updateAITagsFn(ctx, id, tags, meta)
	}
	return nil
}

func (m *mockPlaceRepo) UpdateEnrichment(ctx context.Context, id string, e Enrichment) error {
	if m.updateEnrichmentFn != nil {
		return m.updateEnrichmentFn(ctx, id, e)
	}
	return nil
}

func (m *mockPlaceRepo) ListPendingEnrichment(ctx context.Context, limit int) ([]Place, error) {
	if m.listPendingFn != nil {
		return m.listPendingFn(ctx, limit)
	}
	return []Place{}, nil
}

func (m *mockPlaceRepo) Stats(ctx context.Context) (*Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &Stats{}, nil
}

// mockStatsCache is an in-memory StatsCache that counts calls.
type mockStatsCache struct {
	stats       *Stats
	getErr      error
	gets        int
	sets        int
	invalidates int
}

func (m *mockStatsCache) Get(_ context.Context) (*Stats, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.stats, nil
}

func (m *mockStatsCache) Set(_ context.Context, s *Stats) error {
	m.sets++
	m.stats = s
	return nil
}

func (m *mockStatsCache) Invalidate(_ context.Context) error {
	m.invalidates++
	m.stats = nil
	return nil
}

// --- Test Helpers ---

func newTestService(repo *mockPlaceRepo, cache StatsCache) PlaceService {
	return NewPlaceService(repo, nil, cache, nil, DefaultLimits(), 0)
}

// assertAppError checks that err is an AppError with the expected HTTP code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status code %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func cafePayload() *ProviderPayload {
	return &ProviderPayload{
		AdditionalInfo: map[string]any{
			"Amenities": []any{map[string]any{"Wi-Fi": true}},
		},
		Reviews:  []tagging.Review{{Text: "Quán rất yên tĩnh, view đẹp"}},
		Category: "Quán cà phê",
		OpeningHours: []hours.RawHourEntry{
			{Day: "Monday", Hours: "7:00 to 22:00"},
			{Day: "Sunday", Hours: "Closed"},
		},
		Rating:       4.6,
		ReviewsCount: 120,
	}
}

// --- List Tests ---

func TestList_ReturnsPageAndPagination(t *testing.T) {
	var gotQuery Query
	repo := &mockPlaceRepo{
		countFn: func(_ context.Context, f Filter) (int, error) {
			if len(f.Clauses) != 1 {
				t.Errorf("expected 1 clause, got %v", f.Clauses)
			}
			return 45, nil
		},
		listFn: func(_ context.Context, q Query) ([]Place, error) {
			gotQuery = q
			return []Place{{ID: "p1"}, {ID: "p2"}}, nil
		},
	}
	svc := newTestService(repo, nil)

	result, err := svc.List(context.Background(), FacetQuery{District: "Đống Đa", Page: "2", Limit: "20"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Skip != 20 || gotQuery.Limit != 20 {
		t.Errorf("unexpected paging: skip=%d limit=%d", gotQuery.Skip, gotQuery.Limit)
	}
	if len(result.Places) != 2 {
		t.Errorf("expected 2 places, got %d", len(result.Places))
	}
	p := result.Pagination
	if p.TotalPages != 3 || !p.HasNextPage || !p.HasPrevPage {
		t.Errorf("unexpected pagination: %+v", p)
	}
}

func TestList_PastTheEndSkipsRead(t *testing.T) {
	repo := &mockPlaceRepo{
		countFn: func(_ context.Context, _ Filter) (int, error) { return 5, nil },
		listFn: func(_ context.Context, _ Query) ([]Place, error) {
			t.Error("List should not be called past the last page")
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	result, err := svc.List(context.Background(), FacetQuery{Page: "4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Places == nil || len(result.Places) != 0 {
		t.Errorf("expected empty non-nil page, got %v", result.Places)
	}
}

func TestList_CountErrorIsInternal(t *testing.T) {
	repo := &mockPlaceRepo{
		countFn: func(_ context.Context, _ Filter) (int, error) { return 0, errors.New("db down") },
	}
	_, err := newTestService(repo, nil).List(context.Background(), FacetQuery{})
	assertAppError(t, err, http.StatusInternalServerError)
}

// --- GetByID Tests ---

func TestGetByID_NotFound(t *testing.T) {
	_, err := newTestService(&mockPlaceRepo{}, nil).GetByID(context.Background(), "nope")
	assertAppError(t, err, http.StatusNotFound)
}

func TestGetByID_RepoErrorIsInternal(t *testing.T) {
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, _ string) (*Place, error) { return nil, errors.New("timeout") },
	}
	_, err := newTestService(repo, nil).GetByID(context.Background(), "p1")
	assertAppError(t, err, http.StatusInternalServerError)
}

// --- Bulk Tests ---

func TestBulk_InvalidatesStatsOnChange(t *testing.T) {
	cache := &mockStatsCache{stats: &Stats{Total: 3}}
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, id string) (*Place, error) {
			return &Place{ID: id, Status: StatusDraft}, nil
		},
	}
	svc := newTestService(repo, cache)

	report, err := svc.Bulk(context.Background(), BulkRequest{
		IDs: []string{"a"}, Operation: OpUpdateStatus, Status: StatusPublished,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Succeeded) != 1 {
		t.Errorf("expected 1 succeeded, got %+v", report)
	}
	if cache.invalidates != 1 {
		t.Errorf("expected cache invalidated once, got %d", cache.invalidates)
	}
}

func TestBulk_NoChangeKeepsStats(t *testing.T) {
	cache := &mockStatsCache{stats: &Stats{Total: 3}}
	svc := newTestService(&mockPlaceRepo{}, cache)

	// The default mock finds nothing, so every record fails.
	report, err := svc.Bulk(context.Background(), BulkRequest{IDs: []string{"a"}, Operation: OpToggleActive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Failed) != 1 {
		t.Errorf("expected 1 failed, got %+v", report)
	}
	if cache.invalidates != 0 {
		t.Error("expected no invalidation when every record failed")
	}
}

func TestBulk_PreconditionError(t *testing.T) {
	_, err := newTestService(&mockPlaceRepo{}, nil).Bulk(context.Background(), BulkRequest{Operation: OpDelete})
	assertAppError(t, err, http.StatusBadRequest)
}

// --- Import Tests ---

func TestImport_Manual(t *testing.T) {
	var created *Place
	repo := &mockPlaceRepo{
		createFn: func(_ context.Context, p *Place) error {
			created = p
			return nil
		},
	}
	cache := &mockStatsCache{stats: &Stats{}}
	svc := newTestService(repo, cache)

	manual := tagging.TagSet{}
	manual.Add(tagging.Mood, "lãng mạn")

	place, err := svc.Import(context.Background(), ImportRequest{
		Name:        "  Cộng   Cà Phê ",
		Address:     "1 Tràng Tiền",
		District:    "Hoàn Kiếm",
		Description: "<script>alert(1)</script>Quán <b>đẹp</b>",
		Status:      "published",
		AITags:      &manual,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.ID != place.ID || place.ID == "" {
		t.Fatal("expected place to be created with an ID")
	}
	if place.Name != "Cộng Cà Phê" {
		t.Errorf("expected collapsed name, got %q", place.Name)
	}
	if place.Description != "Quán đẹp" {
		t.Errorf("expected sanitized description, got %q", place.Description)
	}
	if place.Status != StatusPublished || place.Source != SourceManual || !place.IsActive {
		t.Errorf("unexpected defaults: status=%s source=%s active=%v", place.Status, place.Source, place.IsActive)
	}
	if !place.AITags.Has(tagging.Mood, "lãng mạn") || place.AITags.Total() != 1 {
		t.Errorf("expected only the manual tag, got %v", place.AITags)
	}
	if place.AITagsMeta != nil || place.EnrichedAt != nil {
		t.Error("manual import should not carry enrichment data")
	}
	if cache.invalidates != 1 {
		t.Error("expected stats invalidated after import")
	}
}

func TestImport_WithPayload(t *testing.T) {
	manual := tagging.TagSet{}
	manual.Add(tagging.Suitability, "làm việc")

	place, err := newTestService(&mockPlaceRepo{}, nil).Import(context.Background(), ImportRequest{
		Name:     "Tranquil",
		Address:  "5 Nguyễn Quang Bích",
		District: "Hoàn Kiếm",
		Source:   SourceGoogle,
		AITags:   &manual,
		Payload:  cafePayload(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !place.AITags.Has(tagging.Suitability, "làm việc") {
		t.Error("manual tag lost")
	}
	if !place.AITags.Has(tagging.Suitability, "học bài") || !place.AITags.Has(tagging.Mood, "thư giãn") {
		t.Errorf("expected cafe heuristics applied, got %v", place.AITags)
	}
	if place.AITagsMeta == nil || place.AITagsMeta.TotalTags != place.AITags.Total() {
		t.Errorf("expected meta describing the tags, got %+v", place.AITagsMeta)
	}
	if place.EnrichedAt == nil {
		t.Error("expected EnrichedAt set")
	}
	if got := place.OperatingHours.Day(hours.Monday); got != (hours.DayHours{Open: "07:00", Close: "22:00"}) {
		t.Errorf("unexpected Monday hours %+v", got)
	}
	if !place.OperatingHours.Day(hours.Sunday).Closed() {
		t.Error("expected Sunday closed")
	}
	if place.Category != "Quán cà phê" {
		t.Errorf("expected category from payload, got %q", place.Category)
	}
	if place.AverageRating != 4.6 || place.TotalReviews != 120 {
		t.Errorf("unexpected rating %v / %d", place.AverageRating, place.TotalReviews)
	}
	if len(place.SourceData) == 0 {
		t.Error("expected source data stored")
	}
}

func TestImport_KeepsRawPayload(t *testing.T) {
	var req ImportRequest
	body := `{"name":"A","address":"B","district":"C",
		"providerData":{"categoryName":"Bar","placeId":"ChIJ123","reviews":[{"text":"nhạc sống"}]}}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decoding request: %v", err)
	}

	place, err := newTestService(&mockPlaceRepo{}, nil).Import(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored map[string]any
	if err := json.Unmarshal(place.SourceData, &stored); err != nil {
		t.Fatalf("stored source data is not JSON: %v", err)
	}
	if stored["placeId"] != "ChIJ123" {
		t.Errorf("expected unknown provider fields preserved, got %v", stored)
	}
}

func TestImport_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  ImportRequest
	}{
		{"name only markup", ImportRequest{Name: "<b></b>", Address: "x", District: "y"}},
		{"blank address", ImportRequest{Name: "x", Address: "   ", District: "y"}},
		{"unknown status", ImportRequest{Name: "x", Address: "y", District: "z", Status: "Hidden"}},
		{"inverted prices", ImportRequest{Name: "x", Address: "y", District: "z", PriceMin: 100, PriceMax: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockPlaceRepo{
				createFn: func(_ context.Context, _ *Place) error {
					t.Error("Create should not be called")
					return nil
				},
			}
			_, err := newTestService(repo, nil).Import(context.Background(), tt.req)
			assertAppError(t, err, http.StatusBadRequest)
		})
	}
}

func TestImport_CreateErrorIsInternal(t *testing.T) {
	repo := &mockPlaceRepo{
		createFn: func(_ context.Context, _ *Place) error { return errors.New("duplicate") },
	}
	_, err := newTestService(repo, nil).Import(context.Background(), ImportRequest{Name: "x", Address: "y", District: "z"})
	assertAppError(t, err, http.StatusInternalServerError)
}

// --- Enrich Tests ---

func TestEnrich_MergesWithExistingTags(t *testing.T) {
	existing := tagging.TagSet{}
	existing.Add(tagging.Parking, "ô tô")

	stored := &Place{ID: "p1", AITags: existing}
	var got Enrichment
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, _ string) (*Place, error) {
			cp := *stored
			cp.AITags = stored.AITags.Clone()
			return &cp, nil
		},
		updateEnrichmentFn: func(_ context.Context, id string, e Enrichment) error {
			if id != "p1" {
				t.Errorf("unexpected id %s", id)
			}
			got = e
			stored.AITags = e.Tags
			return nil
		},
	}

	place, err := newTestService(repo, nil).Enrich(context.Background(), "p1", cafePayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Tags.Has(tagging.Parking, "ô tô") {
		t.Error("existing tag lost during enrichment")
	}
	if !place.AITags.Has(tagging.Suitability, "một mình") {
		t.Errorf("expected classified tags in result, got %v", place.AITags)
	}
	if got.Hours == nil {
		t.Error("expected normalized hours")
	}
	if got.EnrichedAt.IsZero() || got.Meta.GeneratedAt.IsZero() {
		t.Error("expected timestamps set")
	}
}

func TestEnrich_IsIdempotent(t *testing.T) {
	stored := &Place{ID: "p1"}
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, _ string) (*Place, error) {
			cp := *stored
			return &cp, nil
		},
		updateEnrichmentFn: func(_ context.Context, _ string, e Enrichment) error {
			stored.AITags = e.Tags
			return nil
		},
	}
	svc := newTestService(repo, nil)

	first, err := svc.Enrich(context.Background(), "p1", cafePayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Enrich(context.Background(), "p1", cafePayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.AITags, second.AITags) {
		t.Errorf("second enrichment changed tags: %v vs %v", first.AITags, second.AITags)
	}
}

func TestEnrich_WithoutHoursKeepsSchedule(t *testing.T) {
	var got Enrichment
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, id string) (*Place, error) { return &Place{ID: id}, nil },
		updateEnrichmentFn: func(_ context.Context, _ string, e Enrichment) error {
			got = e
			return nil
		},
	}

	_, err := newTestService(repo, nil).Enrich(context.Background(), "p1", &ProviderPayload{Category: "Nhà hàng"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hours != nil {
		t.Error("expected nil hours when payload has none")
	}
}

func TestEnrich_EmptyPayload(t *testing.T) {
	_, err := newTestService(&mockPlaceRepo{}, nil).Enrich(context.Background(), "p1", &ProviderPayload{})
	assertAppError(t, err, http.StatusBadRequest)

	_, err = newTestService(&mockPlaceRepo{}, nil).Enrich(context.Background(), "p1", nil)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestEnrich_NotFound(t *testing.T) {
	_, err := newTestService(&mockPlaceRepo{}, nil).Enrich(context.Background(), "nope", cafePayload())
	assertAppError(t, err, http.StatusNotFound)
}

// --- Tag Curation Tests ---

func TestAddAITag(t *testing.T) {
	updates := 0
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, id string) (*Place, error) {
			tags := tagging.TagSet{}
			tags.Add(tagging.Music, "acoustic")
			return &Place{ID: id, AITags: tags}, nil
		},
		updateAITagsFn: func(_ context.Context, _ string, tags tagging.TagSet, meta *tagging.Meta) error {
			updates++
			if meta != nil {
				t.Error("manual edits must keep the stored meta")
			}
			if !tags.Has(tagging.Music, "nhạc sống") {
				t.Errorf("expected new tag persisted, got %v", tags)
			}
			return nil
		},
	}
	svc := newTestService(repo, nil)

	place, err := svc.AddAITag(context.Background(), "p1", "music", "  nhạc sống ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := place.AITags.Get(tagging.Music); len(got) != 2 {
		t.Errorf("expected 2 music tags, got %v", got)
	}

	// Adding an existing tag does not write.
	if _, err := svc.AddAITag(context.Background(), "p1", "music", "acoustic"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updates != 1 {
		t.Errorf("expected 1 update, got %d", updates)
	}
}

func TestAddAITag_Rejections(t *testing.T) {
	svc := newTestService(&mockPlaceRepo{}, nil)

	_, err := svc.AddAITag(context.Background(), "p1", "flavour", "ngọt")
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.AddAITag(context.Background(), "p1", "mood", "   ")
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.AddAITag(context.Background(), "missing", "mood", "chill")
	assertAppError(t, err, http.StatusNotFound)
}

func TestRemoveAITag(t *testing.T) {
	updates := 0
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, id string) (*Place, error) {
			tags := tagging.TagSet{}
			tags.Add(tagging.CrowdLevel, "đông đúc")
			return &Place{ID: id, AITags: tags}, nil
		},
		updateAITagsFn: func(_ context.Context, _ string, tags tagging.TagSet, _ *tagging.Meta) error {
			updates++
			if tags.Total() != 0 {
				t.Errorf("expected empty tag set, got %v", tags)
			}
			return nil
		},
	}
	svc := newTestService(repo, nil)

	place, err := svc.RemoveAITag(context.Background(), "p1", "crowdLevel", "đông đúc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.AITags.Total() != 0 {
		t.Errorf("expected tag removed, got %v", place.AITags)
	}

	// Removing an absent tag is a no-op.
	if _, err := svc.RemoveAITag(context.Background(), "p1", "crowdLevel", "vắng"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updates != 1 {
		t.Errorf("expected 1 update, got %d", updates)
	}
}

func TestReplaceAITags(t *testing.T) {
	var persisted tagging.TagSet
	repo := &mockPlaceRepo{
		findByIDFn: func(_ context.Context, id string) (*Place, error) { return &Place{ID: id}, nil },
		updateAITagsFn: func(_ context.Context, _ string, tags tagging.TagSet, _ *tagging.Meta) error {
			persisted = tags
			return nil
		},
	}

	incoming := tagging.TagSet{}
	incoming[tagging.Space] = []string{"rooftop", " rooftop ", "", "sân vườn"}

	place, err := newTestService(repo, nil).ReplaceAITags(context.Background(), "p1", incoming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"rooftop", "sân vườn"}
	if got := persisted.Get(tagging.Space); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected cleaned tags %v, got %v", want, got)
	}
	if place.AITags.Total() != 2 {
		t.Errorf("expected 2 tags on result, got %d", place.AITags.Total())
	}
}

// --- Stats Tests ---

func TestStats_CachesResult(t *testing.T) {
	calls := 0
	repo := &mockPlaceRepo{
		statsFn: func(_ context.Context) (*Stats, error) {
			calls++
			return &Stats{Total: 7, Published: 4}, nil
		},
	}
	cache := &mockStatsCache{}
	svc := newTestService(repo, cache)

	for range 3 {
		s, err := svc.Stats(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Total != 7 {
			t.Errorf("expected total 7, got %d", s.Total)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repo call, got %d", calls)
	}
	if cache.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.sets)
	}
}

func TestStats_CacheFailureFallsThrough(t *testing.T) {
	repo := &mockPlaceRepo{
		statsFn: func(_ context.Context) (*Stats, error) { return &Stats{Total: 2}, nil },
	}
	cache := &mockStatsCache{getErr: errors.New("redis down")}

	s, err := newTestService(repo, cache).Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Total != 2 {
		t.Errorf("expected total 2, got %d", s.Total)
	}
}

func TestStats_WithoutCache(t *testing.T) {
	calls := 0
	repo := &mockPlaceRepo{
		statsFn: func(_ context.Context) (*Stats, error) {
			calls++
			return &Stats{}, nil
		},
	}
	svc := newTestService(repo, nil)
	_, _ = svc.Stats(context.Background())
	_, _ = svc.Stats(context.Background())
	if calls != 2 {
		t.Errorf("expected every call to hit the repo, got %d", calls)
	}
}

// --- Options Tests ---

func TestTagOptions_IncludesVocabularyAndRuleTags(t *testing.T) {
	svc := newTestService(&mockPlaceRepo{}, nil)
	options := svc.TagOptions()

	vocab := tagging.Vocabulary()
	for _, c := range tagging.Categories {
		for _, tag := range vocab.Get(c) {
			if !options.Has(c, tag) {
				t.Errorf("vocabulary tag %s/%s missing", c, tag)
			}
		}
	}
	rules := tagging.DefaultRuleTable().Tags()
	for _, c := range tagging.Categories {
		for _, tag := range rules.Get(c) {
			if !options.Has(c, tag) {
				t.Errorf("rule tag %s/%s missing", c, tag)
			}
		}
	}
}

func TestDistricts(t *testing.T) {
	if got := newTestService(&mockPlaceRepo{}, nil).Districts(); len(got) != 12 {
		t.Errorf("expected 12 districts, got %d", len(got))
	}
}

// --- Retag Tests ---

func TestRetagPending(t *testing.T) {
	good, _ := json.Marshal(cafePayload())
	enriched := map[string]Enrichment{}
	repo := &mockPlaceRepo{
		listPendingFn: func(_ context.Context, limit int) ([]Place, error) {
			if limit != 10 {
				t.Errorf("expected limit 10, got %d", limit)
			}
			return []Place{
				{ID: "good", SourceData: good},
				{ID: "broken", SourceData: json.RawMessage(`{"reviews": "not a list"`)},
				{ID: "failing", SourceData: good},
			}, nil
		},
		updateEnrichmentFn: func(_ context.Context, id string, e Enrichment) error {
			if id == "failing" {
				return errors.New("deadlock")
			}
			enriched[id] = e
			return nil
		},
	}

	result, err := newTestService(repo, nil).RetagPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 || result.Failed != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if enriched["good"].Tags.Total() == 0 {
		t.Error("expected tags for the good payload")
	}
	// Malformed payloads are stamped so they leave the queue.
	broken, ok := enriched["broken"]
	if !ok || broken.EnrichedAt.IsZero() {
		t.Error("expected malformed payload stamped as enriched")
	}
	if broken.SourceData != nil {
		t.Error("malformed payload must not be overwritten")
	}
}

func TestRetagPending_ListErrorIsInternal(t *testing.T) {
	repo := &mockPlaceRepo{
		listPendingFn: func(_ context.Context, _ int) ([]Place, error) { return nil, errors.New("db down") },
	}
	_, err := newTestService(repo, nil).RetagPending(context.Background(), 5)
	assertAppError(t, err, http.StatusInternalServerError)
}
