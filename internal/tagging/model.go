// Package tagging classifies places into the controlled AI tag vocabulary.
// A Classifier matches keyword rules against provider data (amenity flags,
// review text) and applies category-label heuristics. The result is a TagSet,
// a total mapping over the seven tag categories that persists as a JSON
// column and merges additively with manually curated tags.
package tagging

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Category identifies one of the seven AI tag dimensions.
type Category int

// Tag categories in canonical order. The order is used for iteration, JSON
// output and rule evaluation so results are deterministic.
const (
	Space Category = iota
	Mood
	Suitability
	CrowdLevel
	Music
	Parking
	SpecialFeatures

	numCategories
)

// Categories lists every tag category in canonical order.
var Categories = [numCategories]Category{ //nolint:gochecknoglobals // read-only enum table
	Space, Mood, Suitability, CrowdLevel, Music, Parking, SpecialFeatures,
}

// categoryKeys are the JSON keys for each category, indexed by Category.
var categoryKeys = [numCategories]string{ //nolint:gochecknoglobals // read-only enum table
	"space", "mood", "suitability", "crowdLevel", "music", "parking", "specialFeatures",
}

// String returns the JSON key of the category.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryKeys[c]
}

// Valid reports whether c is one of the seven known categories.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// ParseCategory maps a JSON key ("space", "crowdLevel", ...) to its Category.
// Matching is case-insensitive.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for i, key := range categoryKeys {
		if strings.EqualFold(key, s) {
			return Category(i), true
		}
	}
	return 0, false
}

// MarshalText lets Category serve as a JSON object key.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid tag category %d", int(c))
	}
	return []byte(categoryKeys[c]), nil
}

// UnmarshalText parses a JSON object key into a Category.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("unknown tag category %q", string(b))
	}
	*c = parsed
	return nil
}

// TagSet holds the tags of every category. The zero value is an empty set
// with all seven categories present. Within a category tags are unique and
// keep insertion order.
type TagSet [numCategories][]string

// Get returns a copy of the tags in category c. Never nil.
func (t TagSet) Get(c Category) []string {
	if !c.Valid() {
		return []string{}
	}
	out := make([]string, len(t[c]))
	copy(out, t[c])
	return out
}

// Has reports whether tag is present in category c.
func (t TagSet) Has(c Category, tag string) bool {
	if !c.Valid() {
		return false
	}
	for _, existing := range t[c] {
		if existing == tag {
			return true
		}
	}
	return false
}

// Add appends tag to category c unless it is already present. Returns true
// when the set changed.
func (t *TagSet) Add(c Category, tag string) bool {
	if !c.Valid() || tag == "" || t.Has(c, tag) {
		return false
	}
	t[c] = append(t[c], tag)
	return true
}

// Remove deletes tag from category c. Returns true when the set changed.
func (t *TagSet) Remove(c Category, tag string) bool {
	if !c.Valid() {
		return false
	}
	for i, existing := range t[c] {
		if existing == tag {
			kept := make([]string, 0, len(t[c])-1)
			kept = append(kept, t[c][:i]...)
			kept = append(kept, t[c][i+1:]...)
			t[c] = kept
			return true
		}
	}
	return false
}

// Total returns the number of tags across all categories.
func (t TagSet) Total() int {
	n := 0
	for _, tags := range t {
		n += len(tags)
	}
	return n
}

// Clone returns a deep copy of the set.
func (t TagSet) Clone() TagSet {
	var out TagSet
	for _, c := range Categories {
		out[c] = t.Get(c)
	}
	return out
}

// MarshalJSON writes an object with all seven category keys. Empty
// categories are written as [] rather than null.
func (t TagSet) MarshalJSON() ([]byte, error) {
	obj := make(map[string][]string, numCategories)
	for _, c := range Categories {
		obj[categoryKeys[c]] = t.Get(c)
	}
	return json.Marshal(obj)
}

// UnmarshalJSON reads the seven-key object form. Missing keys and null
// arrays become empty categories, blank and duplicate tags are dropped, and
// unknown keys are rejected.
func (t *TagSet) UnmarshalJSON(b []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decoding tag set: %w", err)
	}

	var out TagSet
	for key, tags := range raw {
		c, ok := ParseCategory(key)
		if !ok {
			return fmt.Errorf("unknown tag category %q", key)
		}
		for _, tag := range tags {
			out.Add(c, strings.TrimSpace(tag))
		}
	}
	*t = out
	return nil
}

// Value implements driver.Valuer for the ai_tags JSON column.
func (t TagSet) Value() (driver.Value, error) {
	b, err := t.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the ai_tags JSON column. NULL and empty
// values scan to an empty set.
func (t *TagSet) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scanning tag set: unsupported type %T", src)
	}
	if len(b) == 0 {
		*t = TagSet{}
		return nil
	}
	return t.UnmarshalJSON(b)
}
