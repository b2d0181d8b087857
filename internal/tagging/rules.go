package tagging

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/keyxmakerx/placekit/internal/textfold"
)

// Rule assigns Tag to Category when any trigger occurs as a case-insensitive
// substring of the amenity or review text.
type Rule struct {
	Category Category
	Triggers []string
	Tag      string
}

// Assignment is a single (category, tag) pair added by a heuristic.
type Assignment struct {
	Category Category
	Tag      string
}

// LabelHeuristic adds a fixed set of tags when the provider category label
// contains any of its markers.
type LabelHeuristic struct {
	Markers []string
	Adds    []Assignment
}

// RuleTable is the immutable set of keyword rules and label heuristics used
// by a Classifier. Triggers and markers are folded once at construction.
// Safe for concurrent use.
type RuleTable struct {
	rules      []Rule
	heuristics []LabelHeuristic
}

// NewRuleTable validates and folds the given rules and heuristics. Rules
// must name a valid category, a non-empty tag and at least one non-empty
// trigger. Rule order is preserved and decides the order tags are appended.
func NewRuleTable(rules []Rule, heuristics []LabelHeuristic) (*RuleTable, error) {
	t := &RuleTable{
		rules:      make([]Rule, 0, len(rules)),
		heuristics: make([]LabelHeuristic, 0, len(heuristics)),
	}

	for i, r := range rules {
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule %d: invalid category %d", i, int(r.Category))
		}
		tag := strings.TrimSpace(r.Tag)
		if tag == "" {
			return nil, fmt.Errorf("rule %d (%s): tag is required", i, r.Category)
		}
		triggers := textfold.FoldAll(r.Triggers)
		if len(triggers) == 0 {
			return nil, fmt.Errorf("rule %d (%s/%s): at least one trigger is required", i, r.Category, tag)
		}
		t.rules = append(t.rules, Rule{Category: r.Category, Triggers: triggers, Tag: tag})
	}

	for i, h := range heuristics {
		markers := textfold.FoldAll(h.Markers)
		if len(markers) == 0 {
			return nil, fmt.Errorf("heuristic %d: at least one marker is required", i)
		}
		adds := make([]Assignment, 0, len(h.Adds))
		for _, a := range h.Adds {
			tag := strings.TrimSpace(a.Tag)
			if !a.Category.Valid() || tag == "" {
				return nil, fmt.Errorf("heuristic %d: invalid assignment %s/%q", i, a.Category, a.Tag)
			}
			adds = append(adds, Assignment{Category: a.Category, Tag: tag})
		}
		t.heuristics = append(t.heuristics, LabelHeuristic{Markers: markers, Adds: adds})
	}

	return t, nil
}

// Rules returns a copy of the keyword rules with folded triggers.
func (t *RuleTable) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = Rule{Category: r.Category, Triggers: append([]string(nil), r.Triggers...), Tag: r.Tag}
	}
	return out
}

// Heuristics returns a copy of the label heuristics with folded markers.
func (t *RuleTable) Heuristics() []LabelHeuristic {
	out := make([]LabelHeuristic, len(t.heuristics))
	for i, h := range t.heuristics {
		out[i] = LabelHeuristic{
			Markers: append([]string(nil), h.Markers...),
			Adds:    append([]Assignment(nil), h.Adds...),
		}
	}
	return out
}

// Tags returns every tag the table can produce, grouped by category.
func (t *RuleTable) Tags() TagSet {
	var out TagSet
	for _, r := range t.rules {
		out.Add(r.Category, r.Tag)
	}
	for _, h := range t.heuristics {
		for _, a := range h.Adds {
			out.Add(a.Category, a.Tag)
		}
	}
	return out
}

// ruleFileEntry is one rule in the JSON rules file format:
// {"space": [{"match": ["outdoor seating"], "tag": "ngoài trời"}], ...}
type ruleFileEntry struct {
	Match []string `json:"match"`
	Tag   string   `json:"tag"`
}

// MarshalJSON writes the keyword rules in the rules file format accepted by
// LoadRuleTable. Heuristics are not part of the file format.
func (t *RuleTable) MarshalJSON() ([]byte, error) {
	obj := make(map[string][]ruleFileEntry, numCategories)
	for _, c := range Categories {
		obj[c.String()] = []ruleFileEntry{}
	}
	for _, r := range t.rules {
		key := r.Category.String()
		obj[key] = append(obj[key], ruleFileEntry{Match: r.Triggers, Tag: r.Tag})
	}
	return json.Marshal(obj)
}
