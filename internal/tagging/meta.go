package tagging

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Names of the provider data sources recorded in Meta.Sources.
const (
	SourceAdditionalInfo = "additionalInfo"
	SourceReviews        = "reviews"
	SourceCategory       = "category"
)

// Meta records how a TagSet was generated.
type Meta struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Sources     []string             `json:"sources"`
	Confidence  map[Category]float64 `json:"confidence"`
	TotalTags   int                  `json:"totalTags"`
}

// Value implements driver.Valuer for the ai_tags_meta JSON column.
func (m Meta) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding tag meta: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the ai_tags_meta JSON column.
func (m *Meta) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scanning tag meta: unsupported type %T", src)
	}
	if len(b) == 0 {
		*m = Meta{}
		return nil
	}
	if err := json.Unmarshal(b, m); err != nil {
		return fmt.Errorf("decoding tag meta: %w", err)
	}
	return nil
}
