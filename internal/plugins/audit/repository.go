package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditRepository defines the data access contract for audit log operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type AuditRepository interface {
	// Log inserts a new audit entry and sets its ID.
	Log(ctx context.Context, entry *AuditEntry) error

	// List returns audit entries, most recent first, with the total count
	// for pagination.
	List(ctx context.Context, limit, offset int) ([]AuditEntry, int, error)

	// ListByPlace returns the most recent audit entries of one place.
	ListByPlace(ctx context.Context, placeID string, limit int) ([]AuditEntry, error)

	// Stats returns aggregate statistics over the log.
	Stats(ctx context.Context) (*ActivityStats, error)
}

// auditRepository implements AuditRepository with MariaDB queries.
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new repository backed by the given DB pool.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

const auditColumns = `id, action, place_id, place_name, details, created_at`

// Log inserts a new audit entry. The details map is serialized to JSON
// before storage. Nil details are stored as SQL NULL.
func (r *auditRepository) Log(ctx context.Context, entry *AuditEntry) error {
	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (action, place_id, place_name, details, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Action, entry.PlaceID, entry.PlaceName, detailsJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting audit entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// List returns audit entries ordered by most recent first.
func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]AuditEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting audit entries: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// ListByPlace returns the most recent audit entries of one place.
func (r *auditRepository) ListByPlace(ctx context.Context, placeID string, limit int) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_log
		 WHERE place_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		placeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing place audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

// Stats computes the log statistics in one pass.
func (r *auditRepository) Stats(ctx context.Context) (*ActivityStats, error) {
	stats := &ActivityStats{}
	var lastChange sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        MAX(created_at),
		        COALESCE(SUM(created_at >= DATE_SUB(UTC_TIMESTAMP(), INTERVAL 30 DAY)), 0),
		        COUNT(DISTINCT CASE
		            WHEN place_id <> '' AND created_at >= DATE_SUB(UTC_TIMESTAMP(), INTERVAL 30 DAY)
		            THEN place_id END)
		 FROM audit_log`,
	).Scan(&stats.TotalEntries, &lastChange, &stats.ChangesLast30Days, &stats.PlacesTouched)
	if err != nil {
		return nil, fmt.Errorf("querying audit stats: %w", err)
	}
	if lastChange.Valid {
		stats.LastChangeAt = &lastChange.Time
	}

	return stats, nil
}

// scanAuditRows scans rows selected with auditColumns. The result is never
// nil so an empty feed encodes as [].
func scanAuditRows(rows *sql.Rows) ([]AuditEntry, error) {
	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var detailsJSON sql.NullString
		if err := rows.Scan(
			&e.ID, &e.Action, &e.PlaceID, &e.PlaceName, &detailsJSON, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &e.Details); err != nil {
				// Non-fatal: a broken row must not break the feed.
				e.Details = map[string]any{"_parse_error": "invalid JSON"}
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}
