// Package sanitize cleans provider and editor supplied text before it is
// stored. Place names, descriptions and review texts are plain text, so all
// markup is stripped with bluemonday's strict policy. The admin UI renders
// the stored values as text, never as HTML.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared strict policy. bluemonday policies are safe for
// concurrent use once built.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips every HTML tag from input, decodes the entities the policy
// escapes and trims surrounding whitespace. Script and style contents are
// dropped entirely.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(input)))
}

// Line is Text for single-line fields such as names and addresses: runs of
// whitespace, including newlines, collapse to one space.
func Line(input string) string {
	return strings.Join(strings.Fields(Text(input)), " ")
}
