// Package audit provides the activity log of the place catalogue. Every
// persisted change (imports, edits, deletions, enrichments, tag curation,
// bulk mutations and scheduled re-tag batches) is captured as an AuditEntry in the audit_log
// table, so editors can see what changed and when.
//
// The plugin only records observations. It never modifies places.
package audit

import "time"

// AuditEntry represents a single recorded change. PlaceID and PlaceName are
// empty for changes that span several places, such as bulk mutations. The
// Details map holds action-specific metadata.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	PlaceID   string         `json:"placeId,omitempty"`
	PlaceName string         `json:"placeName,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ActivityStats summarizes the log for the activity page header.
type ActivityStats struct {
	TotalEntries int `json:"totalEntries"`

	// LastChangeAt is the time of the most recent entry. Nil if nothing was
	// recorded yet.
	LastChangeAt *time.Time `json:"lastChangeAt,omitempty"`

	// ChangesLast30Days counts entries of the last 30 days.
	ChangesLast30Days int `json:"changesLast30Days"`

	// PlacesTouched counts distinct places with an entry in the last 30 days.
	PlacesTouched int `json:"placesTouched"`
}

// ActivityPage is one page of the activity feed.
type ActivityPage struct {
	Entries []AuditEntry `json:"entries"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"perPage"`
}
