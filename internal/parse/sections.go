// Package parse recovers structured quiz questions from the loosely
// formatted text returned by the generation service. Every function here is
// pure and total: malformed input yields fewer questions, never an error.
package parse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

var (
	crlf      = regexp.MustCompile(`\r\n?`)
	blankRuns = regexp.MustCompile(`\n{2,}`)
)

// Normalize unifies line endings to \n and collapses runs of blank lines to
// a single blank line. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = crlf.ReplaceAllString(s, "\n")
	return blankRuns.ReplaceAllString(s, "\n\n")
}

// Header is one section header vocabulary.
type Header struct {
	Kind    quiz.Kind
	Pattern *regexp.Regexp
}

var (
	trueFalseHeader      = regexp.MustCompile(`(?i)(?:True/False Questions?|Itemi cu alegere duală)[ \t]*:?`)
	matchingHeader       = regexp.MustCompile(`(?i)(?:Matching Questions?|Itemi de tip pereche)[ \t]*:?`)
	multipleChoiceHeader = regexp.MustCompile(`(?i)(?:Multiple Choice Questions?|Itemi cu alegere multiplă)[ \t]*:?`)
	fillBlankHeader      = regexp.MustCompile(`(?i)(?:Fill[\s-]?in[\s-]?the[\s-]?Blank|Completati cu un cuvant|Completare cu un cuvânt)[ \t]*:?`)
	gridHeader           = regexp.MustCompile(`(?i)(?:Multiple Choice (?:Questions?|Quiz)|Intrebari cu alegere multipla|Grid quiz)[ \t]*:?`)
)

// ObjectiveHeaders are the section headers of a mixed objective quiz, in
// extraction order.
var ObjectiveHeaders = []Header{
	{quiz.KindTrueFalse, trueFalseHeader},
	{quiz.KindMatching, matchingHeader},
	{quiz.KindMultipleChoice, multipleChoiceHeader},
	{quiz.KindFillBlank, fillBlankHeader},
}

// GridHeaders locate the single multiple choice section of a grid quiz.
var GridHeaders = []Header{
	{quiz.KindMultipleChoice, gridHeader},
}

type headerHit struct {
	kind       quiz.Kind
	start, end int
}

// SplitSections returns, for every kind whose header occurs in text, the
// body following the first occurrence of that header. A body ends where a
// header of a different kind starts, or at end of text. Kinds without a
// header are absent from the result.
func SplitSections(text string, headers []Header) map[quiz.Kind]string {
	var hits []headerHit
	for _, h := range headers {
		for _, loc := range h.Pattern.FindAllStringIndex(text, -1) {
			hits = append(hits, headerHit{kind: h.Kind, start: loc[0], end: loc[1]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	out := map[quiz.Kind]string{}
	for i, h := range hits {
		if _, seen := out[h.kind]; seen {
			continue
		}
		end := len(text)
		for _, next := range hits[i+1:] {
			if next.kind != h.kind && next.start >= h.end {
				end = next.start
				break
			}
		}
		out[h.kind] = text[h.end:end]
	}
	return out
}

// nonEmptyLines splits s into trimmed, non-empty lines.
func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
