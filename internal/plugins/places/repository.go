package places

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keyxmakerx/placekit/internal/apperror"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

// PlaceRepository defines the data access contract for places.
type PlaceRepository interface {
	Create(ctx context.Context, p *Place) error
	// Update writes the editor-owned columns of p.
	Update(ctx context.Context, p *Place) error
	FindByID(ctx context.Context, id string) (*Place, error)

	// List returns one page of places matching q.
	List(ctx context.Context, q Query) ([]Place, error)

	// Count returns the number of places matching f.
	Count(ctx context.Context, f Filter) (int, error)

	UpdateStatus(ctx context.Context, id, status string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	// UpdateAITags replaces the tag set. A nil meta keeps the stored meta.
	UpdateAITags(ctx context.Context, id string, tags tagging.TagSet, meta *tagging.Meta) error

	// UpdateEnrichment stores the result of classifying a provider payload.
	UpdateEnrichment(ctx context.Context, id string, e Enrichment) error

	// ListPendingEnrichment returns places with stored provider data that
	// were never enriched, oldest first.
	ListPendingEnrichment(ctx context.Context, limit int) ([]Place, error)

	Stats(ctx context.Context) (*Stats, error)
}

// placeRepository is the MariaDB implementation of PlaceRepository.
type placeRepository struct {
	db *sql.DB
}

// NewPlaceRepository creates a new MariaDB-backed place repository.
func NewPlaceRepository(db *sql.DB) PlaceRepository {
	return &placeRepository{db: db}
}

// placeColumns is the SELECT column list for place queries.
const placeColumns = `p.id, p.name, p.address, p.district, p.category, p.description,
	p.price_min, p.price_max, p.status, p.is_active, p.featured,
	p.ai_tags, p.ai_tags_meta, p.operating_hours,
	p.average_rating, p.total_reviews, p.view_count,
	p.source, p.source_data, p.enriched_at, p.created_at, p.updated_at`

// Create inserts a new place.
func (r *placeRepository) Create(ctx context.Context, p *Place) error {
	var meta any
	if p.AITagsMeta != nil {
		meta = *p.AITagsMeta
	}

	query := `INSERT INTO places
		(id, name, address, district, category, description, price_min, price_max,
		 status, is_active, featured, ai_tags, ai_tags_meta, operating_hours,
		 average_rating, total_reviews, source, source_data, enriched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Address, p.District, p.Category, p.Description,
		p.PriceMin, p.PriceMax, p.Status, p.IsActive, p.Featured,
		p.AITags, meta, p.OperatingHours,
		p.AverageRating, p.TotalReviews, p.Source, nullJSON(p.SourceData), p.EnrichedAt,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting place: %w", err)
	}
	return nil
}

// Update writes the editor-owned columns. Tags, provider data and review
// counters are left alone.
func (r *placeRepository) Update(ctx context.Context, p *Place) error {
	return r.execOne(ctx, "updating place",
		`UPDATE places SET
			name = ?, address = ?, district = ?, category = ?, description = ?,
			price_min = ?, price_max = ?, status = ?, is_active = ?, featured = ?,
			operating_hours = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Address, p.District, p.Category, p.Description,
		p.PriceMin, p.PriceMax, p.Status, p.IsActive, p.Featured,
		p.OperatingHours, p.UpdatedAt,
		p.ID,
	)
}

// FindByID retrieves a place by its ID.
func (r *placeRepository) FindByID(ctx context.Context, id string) (*Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places p WHERE p.id = ?`
	p, err := scanPlace(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("place not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding place: %w", err)
	}
	return p, nil
}

// List returns one page of places matching q.
func (r *placeRepository) List(ctx context.Context, q Query) ([]Place, error) {
	query := fmt.Sprintf(`SELECT %s FROM places p %s %s LIMIT ? OFFSET ?`,
		placeColumns, q.Filter.Where(), q.Sort.OrderBy())

	args := append(append([]any{}, q.Filter.Args...), q.Limit, q.Skip)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// Count returns the number of places matching f.
func (r *placeRepository) Count(ctx context.Context, f Filter) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM places p %s`, f.Where())
	var total int
	if err := r.db.QueryRowContext(ctx, query, f.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting places: %w", err)
	}
	return total, nil
}

// UpdateStatus sets the publication status.
func (r *placeRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.execOne(ctx, "updating place status",
		`UPDATE places SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
}

// SetActive sets the active flag.
func (r *placeRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.execOne(ctx, "updating place active flag",
		`UPDATE places SET is_active = ?, updated_at = NOW() WHERE id = ?`, active, id)
}

// Delete removes a place.
func (r *placeRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "deleting place", `DELETE FROM places WHERE id = ?`, id)
}

// UpdateAITags replaces the tag set, keeping the stored meta when meta is nil.
func (r *placeRepository) UpdateAITags(ctx context.Context, id string, tags tagging.TagSet, meta *tagging.Meta) error {
	var metaArg any
	if meta != nil {
		metaArg = *meta
	}
	return r.execOne(ctx, "updating place tags",
		`UPDATE places
		 SET ai_tags = ?, ai_tags_meta = COALESCE(?, ai_tags_meta), updated_at = NOW()
		 WHERE id = ?`,
		tags, metaArg, id)
}

// UpdateEnrichment stores tags, meta, optional hours and the source payload.
func (r *placeRepository) UpdateEnrichment(ctx context.Context, id string, e Enrichment) error {
	var hoursArg any
	if e.Hours != nil {
		hoursArg = *e.Hours
	}
	return r.execOne(ctx, "updating place enrichment",
		`UPDATE places
		 SET ai_tags = ?, ai_tags_meta = ?,
		     operating_hours = COALESCE(?, operating_hours),
		     source_data = COALESCE(?, source_data),
		     enriched_at = ?, updated_at = NOW()
		 WHERE id = ?`,
		e.Tags, e.Meta, hoursArg, nullJSON(e.SourceData), e.EnrichedAt, id)
}

// ListPendingEnrichment returns up to limit places awaiting enrichment.
func (r *placeRepository) ListPendingEnrichment(ctx context.Context, limit int) ([]Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places p
		WHERE p.source_data IS NOT NULL AND p.enriched_at IS NULL
		ORDER BY p.created_at, p.id
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing places pending enrichment: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// Stats aggregates catalogue counts in one pass plus two group-bys.
func (r *placeRepository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(status = 'Published'), 0),
			COALESCE(SUM(status = 'Draft'), 0),
			COALESCE(SUM(status = 'Archived'), 0),
			COALESCE(SUM(is_active), 0),
			COALESCE(SUM(featured), 0),
			COALESCE(AVG(CASE WHEN total_reviews > 0 THEN average_rating END), 0)
		FROM places`).Scan(
		&s.Total, &s.Published, &s.Draft, &s.Archived, &s.Active, &s.Featured, &s.AverageRating,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating place stats: %w", err)
	}

	if s.ByDistrict, err = r.countBy(ctx, "district"); err != nil {
		return nil, err
	}
	if s.ByCategory, err = r.countBy(ctx, "category"); err != nil {
		return nil, err
	}
	return &s, nil
}

// countBy groups places by a fixed column name. column is never user input.
func (r *placeRepository) countBy(ctx context.Context, column string) ([]Bucket, error) {
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM places
		WHERE %[1]s <> '' GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s`, column)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting places by %s: %w", column, err)
	}
	defer rows.Close()

	buckets := []Bucket{}
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, fmt.Errorf("scanning %s bucket: %w", column, err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// execOne runs a single-row statement and maps zero affected rows to 404.
// The DSN sets clientFoundRows, so affected means matched.
func (r *placeRepository) execOne(ctx context.Context, action, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: reading affected rows: %w", action, err)
	}
	if rows == 0 {
		return apperror.NewNotFound("place not found")
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(row rowScanner) (*Place, error) {
	var (
		p          Place
		meta       []byte
		sourceData []byte
		enrichedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.District, &p.Category, &p.Description,
		&p.PriceMin, &p.PriceMax, &p.Status, &p.IsActive, &p.Featured,
		&p.AITags, &meta, &p.OperatingHours,
		&p.AverageRating, &p.TotalReviews, &p.ViewCount,
		&p.Source, &sourceData, &enrichedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(meta) > 0 {
		var m tagging.Meta
		if err := m.Scan(meta); err != nil {
			return nil, err
		}
		p.AITagsMeta = &m
	}
	if len(sourceData) > 0 {
		p.SourceData = json.RawMessage(sourceData)
	}
	if enrichedAt.Valid {
		t := enrichedAt.Time
		p.EnrichedAt = &t
	}
	return &p, nil
}

func scanPlaces(rows *sql.Rows) ([]Place, error) {
	places := []Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning place row: %w", err)
		}
		places = append(places, *p)
	}
	return places, rows.Err()
}

// nullJSON maps an empty payload to SQL NULL.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// now returns the current time truncated to the DATETIME column precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
