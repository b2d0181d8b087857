package tagging

import (
	"sort"
	"strings"
	"time"

	"github.com/keyxmakerx/placekit/internal/textfold"
)

// Review is a single provider review. Text is preferred; Snippet is the
// short form some providers send instead.
type Review struct {
	Text    string `json:"text"`
	Snippet string `json:"snippet,omitempty"`
}

// Source is the provider data a classification runs over.
type Source struct {
	// AdditionalInfo is the provider's nested amenity structure, e.g.
	// {"Service options": [{"Outdoor seating": true}]}. Only keys whose
	// value is boolean true are considered.
	AdditionalInfo map[string]any `json:"additionalInfo,omitempty"`

	Reviews []Review `json:"reviews,omitempty"`

	// Category is the provider's free-text category label.
	Category string `json:"category,omitempty"`
}

// Classifier derives a TagSet from provider data using a RuleTable.
// Classification is pure and deterministic; a Classifier is safe for
// concurrent use.
type Classifier struct {
	table *RuleTable
}

// NewClassifier creates a classifier over table. A nil table selects the
// built-in DefaultRuleTable.
func NewClassifier(table *RuleTable) *Classifier {
	if table == nil {
		table = DefaultRuleTable()
	}
	return &Classifier{table: table}
}

// Table returns the rule table the classifier evaluates.
func (c *Classifier) Table() *RuleTable {
	return c.table
}

// Classify returns the tags implied by src. A nil source yields an empty
// set. Missing or malformed parts of the source contribute nothing.
func (c *Classifier) Classify(src *Source) TagSet {
	var out TagSet
	if src == nil {
		return out
	}

	info := flattenAdditionalInfo(src.AdditionalInfo)
	reviews := joinReviews(src.Reviews)

	for _, r := range c.table.rules {
		if textfold.ContainsAny(info, r.Triggers) || textfold.ContainsAny(reviews, r.Triggers) {
			out.Add(r.Category, r.Tag)
		}
	}

	label := textfold.Fold(src.Category)
	if label != "" {
		for _, h := range c.table.heuristics {
			if !textfold.ContainsAny(label, h.Markers) {
				continue
			}
			for _, a := range h.Adds {
				out.Add(a.Category, a.Tag)
			}
		}
	}

	return out
}

// Describe summarizes a classification of src that produced tags. The
// confidence of a category grows with the number of tags found for it.
func (c *Classifier) Describe(src *Source, tags TagSet, now time.Time) Meta {
	meta := Meta{
		GeneratedAt: now.UTC(),
		Sources:     []string{},
		Confidence:  make(map[Category]float64, numCategories),
		TotalTags:   tags.Total(),
	}

	if src != nil {
		if len(src.AdditionalInfo) > 0 {
			meta.Sources = append(meta.Sources, SourceAdditionalInfo)
		}
		if len(src.Reviews) > 0 {
			meta.Sources = append(meta.Sources, SourceReviews)
		}
		if strings.TrimSpace(src.Category) != "" {
			meta.Sources = append(meta.Sources, SourceCategory)
		}
	}

	for _, cat := range Categories {
		meta.Confidence[cat] = confidenceFor(len(tags[cat]))
	}
	return meta
}

// confidenceFor maps a per-category tag count to a confidence score.
func confidenceFor(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 0.5
	case n == 2:
		return 0.7
	default:
		return 0.9
	}
}

// flattenAdditionalInfo collects every key with a boolean true value at any
// depth, ignoring the top-level "reviews" field, and returns them sorted and
// folded as a single newline-separated blob.
func flattenAdditionalInfo(info map[string]any) string {
	var keys []string
	for k, v := range info {
		if k == "reviews" {
			continue
		}
		keys = collectTrueKeys(k, v, keys)
	}
	sort.Strings(keys)
	return textfold.Fold(strings.Join(keys, "\n"))
}

func collectTrueKeys(key string, v any, out []string) []string {
	switch val := v.(type) {
	case bool:
		if val {
			out = append(out, key)
		}
	case map[string]any:
		for k, inner := range val {
			out = collectTrueKeys(k, inner, out)
		}
	case map[string]bool:
		for k, inner := range val {
			if inner {
				out = append(out, k)
			}
		}
	case []any:
		for _, item := range val {
			out = collectTrueKeys(key, item, out)
		}
	case []map[string]any:
		for _, item := range val {
			out = collectTrueKeys(key, item, out)
		}
	case []map[string]bool:
		for _, item := range val {
			out = collectTrueKeys(key, item, out)
		}
	}
	return out
}

// joinReviews folds all review texts into one blob.
func joinReviews(reviews []Review) string {
	if len(reviews) == 0 {
		return ""
	}
	parts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		text := r.Text
		if strings.TrimSpace(text) == "" {
			text = r.Snippet
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return textfold.Fold(strings.Join(parts, "\n"))
}
