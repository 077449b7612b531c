package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText lowercases s with Turkish casing rules and strips diacritics, so that
// "BAĞIŞIKLIK", "Bağışıklık" and "bagisiklik" compare equal. Runs of whitespace
// collapse to a single space; punctuation is kept.
func foldText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	// Casers and transform chains keep internal state, build them per call.
	lowered := cases.Lower(language.Turkish).String(s)
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r == 'ı' {
				return 'i'
			}
			return r
		}),
		norm.NFC,
	)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		folded = lowered
	}
	return strings.Join(strings.Fields(folded), " ")
}

// foldAll folds every keyword of a rule table
func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f := foldText(w); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// containsAny reports whether folded text contains any of the folded keywords
func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
