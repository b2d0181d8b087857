// Package places is the admin plugin for the place catalogue: faceted
// listing, bulk status/visibility changes, provider import with automatic
// AI tagging and opening-hours normalization, manual tag curation, and
// catalogue statistics.
package places

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/keyxmakerx/placekit/internal/hours"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

// Publication statuses, as stored in places.status.
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
	StatusArchived  = "Archived"
)

// Place sources.
const (
	SourceManual = "manual"
	SourceGoogle = "google"
	SourceGoong  = "goong"
)

// Place is a catalogue entry.
type Place struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	District    string `json:"district"`
	Category    string `json:"category"`
	Description string `json:"description"`

	// PriceMin and PriceMax are the price range in VND.
	PriceMin int64 `json:"priceMin"`
	PriceMax int64 `json:"priceMax"`

	Status   string `json:"status"`
	IsActive bool   `json:"isActive"`
	Featured bool   `json:"featured"`

	AITags         tagging.TagSet       `json:"aiTags"`
	AITagsMeta     *tagging.Meta        `json:"aiTagsMeta,omitempty"`
	OperatingHours hours.WeeklySchedule `json:"operatingHours"`

	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
	ViewCount     int     `json:"viewCount"`

	// Source names where the place came from; SourceData keeps the raw
	// provider payload so the place can be re-tagged later.
	Source     string          `json:"source"`
	SourceData json.RawMessage `json:"-"`
	EnrichedAt *time.Time      `json:"enrichedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeStatus maps any casing of a known status to its canonical form.
// An empty value becomes Draft; unknown values are returned trimmed but
// otherwise unchanged.
func NormalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "draft":
		return StatusDraft
	case "published":
		return StatusPublished
	case "archived":
		return StatusArchived
	default:
		return s
	}
}

// ValidStatus reports whether s is a canonical status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Bucket is a grouped count.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Stats summarizes the catalogue.
type Stats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Draft     int `json:"draft"`
	Archived  int `json:"archived"`
	Active    int `json:"active"`
	Featured  int `json:"featured"`

	// AverageRating is the mean rating over places with at least one review.
	AverageRating float64 `json:"averageRating"`

	ByDistrict []Bucket `json:"byDistrict"`
	ByCategory []Bucket `json:"byCategory"`
}

// ListResult is one page of a facet query.
type ListResult struct {
	Places     []Place    `json:"places"`
	Pagination Pagination `json:"pagination"`
}

// Enrichment is the outcome of classifying a provider payload against an
// existing place.
type Enrichment struct {
	Tags       tagging.TagSet
	Meta       tagging.Meta
	Hours      *hours.WeeklySchedule // nil keeps the stored schedule
	SourceData json.RawMessage
	EnrichedAt time.Time
}

// RetagResult reports one re-tag batch.
type RetagResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// --- Request DTOs ---

// ImportRequest creates a place from editor input plus an optional
// provider payload.
type ImportRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Address     string           `json:"address" validate:"required,max=500"`
	District    string           `json:"district" validate:"required,max=100"`
	Category    string           `json:"category" validate:"max=100"`
	Description string           `json:"description" validate:"max=5000"`
	PriceMin    int64            `json:"priceMin" validate:"gte=0"`
	PriceMax    int64            `json:"priceMax" validate:"omitempty,gtefield=PriceMin"`
	Status      string           `json:"status" validate:"omitempty,max=20"`
	Featured    bool             `json:"featured"`
	Source      string           `json:"source" validate:"omitempty,oneof=manual google goong"`
	AITags      *tagging.TagSet  `json:"aiTags"`
	Payload     *ProviderPayload `json:"providerData"`

	// OperatingHours, when set, wins over hours derived from the payload.
	OperatingHours *hours.WeeklySchedule `json:"operatingHours"`
}

// UpdateRequest edits the editor-owned fields of a place. Nil fields keep
// their stored value. Tags have their own endpoints.
type UpdateRequest struct {
	Name           *string               `json:"name" validate:"omitempty,max=200"`
	Address        *string               `json:"address" validate:"omitempty,max=500"`
	District       *string               `json:"district" validate:"omitempty,max=100"`
	Category       *string               `json:"category" validate:"omitempty,max=100"`
	Description    *string               `json:"description" validate:"omitempty,max=5000"`
	PriceMin       *int64                `json:"priceMin" validate:"omitempty,gte=0"`
	PriceMax       *int64                `json:"priceMax" validate:"omitempty,gte=0"`
	Status         *string               `json:"status" validate:"omitempty,max=20"`
	IsActive       *bool                 `json:"isActive"`
	Featured       *bool                 `json:"featured"`
	OperatingHours *hours.WeeklySchedule `json:"operatingHours"`
}

// BulkRequestBody is the JSON body of the bulk endpoint.
type BulkRequestBody struct {
	PlaceIDs   []string `json:"placeIds"`
	Operation  string   `json:"operation"`
	UpdateData struct {
		Status string `json:"status"`
	} `json:"updateData"`
}

// AddTagRequest adds a single tag to a category.
type AddTagRequest struct {
	Tag string `json:"tag" validate:"required,max=64"`
}
