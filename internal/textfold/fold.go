// Package textfold provides the case folding shared by the tag classifier and
// the opening-hours normalizer. Provider data arrives in mixed Unicode forms
// (precomposed and decomposed Vietnamese diacritics), so every comparison goes
// through Fold before substring matching.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in NFC form, lower-cased with Vietnamese case rules and with
// every Unicode space (NBSP, thin space, narrow NBSP) replaced by an ASCII
// space. A new Caser is built per call because cases.Caser is stateful and
// must not be shared between goroutines.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = cases.Lower(language.Vietnamese).String(s)
	return strings.Map(func(r rune) rune {
		if r != ' ' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}

// ContainsAny reports whether the folded text contains any of the folded
// needles. Empty needles never match.
func ContainsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// FoldAll folds every entry of ss, dropping entries that fold to an empty
// string after trimming.
func FoldAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if f := strings.TrimSpace(Fold(s)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
