package tagging

import "strings"

// Merge returns the per-category union of existing and incoming. Existing
// tags keep their position and come first; incoming tags that are not
// already present are appended in order. A nil existing set is treated as
// empty. Neither argument is modified.
//
// Merge never drops a tag, so manually curated tags survive every re-sync.
func Merge(existing *TagSet, incoming TagSet) TagSet {
	var out TagSet
	for _, c := range Categories {
		if existing != nil {
			for _, tag := range existing[c] {
				out.Add(c, strings.TrimSpace(tag))
			}
		}
		for _, tag := range incoming[c] {
			out.Add(c, strings.TrimSpace(tag))
		}
	}
	return out
}
