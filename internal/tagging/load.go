package tagging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadRuleTable reads keyword rules in the JSON rules file format, an object
// keyed by category whose values are lists of {"match": [...], "tag": "..."}.
// Categories are evaluated in canonical order. Unknown category keys are an
// error. The built-in label heuristics are attached to the result.
func LoadRuleTable(r io.Reader) (*RuleTable, error) {
	var raw map[string][]ruleFileEntry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding rules file: %w", err)
	}

	byCategory := make(map[Category][]ruleFileEntry, len(raw))
	for key, entries := range raw {
		c, ok := ParseCategory(key)
		if !ok {
			return nil, fmt.Errorf("rules file: unknown category %q", key)
		}
		byCategory[c] = append(byCategory[c], entries...)
	}

	var rules []Rule
	for _, c := range Categories {
		for _, e := range byCategory[c] {
			rules = append(rules, Rule{Category: c, Triggers: e.Match, Tag: e.Tag})
		}
	}

	return NewRuleTable(rules, defaultHeuristics())
}

// LoadRuleTableFile opens path and loads it with LoadRuleTable. An empty
// path returns the built-in table.
func LoadRuleTableFile(path string) (*RuleTable, error) {
	if path == "" {
		return DefaultRuleTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	table, err := LoadRuleTable(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return table, nil
}
