package grading

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var romanianFold = strings.NewReplacer(
	"ș", "s", "ş", "s", "Ș", "S", "Ş", "S",
	"ț", "t", "ţ", "t", "Ț", "T", "Ţ", "T",
	"ă", "a", "Ă", "A",
	"â", "a", "Â", "A",
	"î", "i", "Î", "I",
)

// NormalizeAnswer folds a free-form answer for comparison: diacritics are
// removed, case is lowered and surrounding whitespace trimmed.
func NormalizeAnswer(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, romanianFold.Replace(s))
	if err != nil {
		folded = romanianFold.Replace(s)
	}
	return strings.TrimSpace(strings.ToLower(folded))
}

// AnswersMatch reports whether two answers are equal after NormalizeAnswer.
func AnswersMatch(got, want string) bool {
	return NormalizeAnswer(got) == NormalizeAnswer(want)
}
