// Package export renders a generated quiz into downloadable artifacts. All
// renderings read option and right-column order from the quiz View so the
// export matches what the learner saw.
package export

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

// FileName is the download name of the text export for a variant.
func FileName(v quiz.Variant) string {
	if v == quiz.VariantGrid {
		return "grid_quiz.txt"
	}
	return "objective_quiz.txt"
}

// Text renders qs as the plain-text quiz artifact. The grid variant lists
// only multiple choice questions and a single correct letter each.
func Text(v quiz.Variant, qs quiz.List, view quiz.View) []byte {
	var b strings.Builder
	if v == quiz.VariantGrid {
		b.WriteString("MULTIPLE CHOICE QUIZ\n\n")
		writeChoices(&b, ofKind[*quiz.MultipleChoice](qs), view, true)
		return []byte(b.String())
	}

	b.WriteString("OBJECTIVE QUIZ\n\n")
	if tfs := ofKind[*quiz.TrueFalse](qs); len(tfs) > 0 {
		b.WriteString("TRUE/FALSE QUESTIONS:\n")
		for i, q := range tfs {
			verdict := "False"
			if q.Correct {
				verdict = "True"
			}
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, q.Question, verdict)
		}
		b.WriteString("\n")
	}
	if ms := ofKind[*quiz.Matching](qs); len(ms) > 0 {
		b.WriteString("MATCHING QUESTIONS:\n")
		for i, q := range ms {
			writeMatching(&b, i, q, view)
		}
	}
	if mcs := ofKind[*quiz.MultipleChoice](qs); len(mcs) > 0 {
		b.WriteString("MULTIPLE CHOICE QUESTIONS:\n")
		writeChoices(&b, mcs, view, false)
	}
	if fbs := ofKind[*quiz.FillBlank](qs); len(fbs) > 0 {
		b.WriteString("FILL IN THE BLANK:\n")
		for i, q := range fbs {
			fmt.Fprintf(&b, "%d. %s (answer: %s)\n", i+1, q.Prompt, q.Answer)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func writeMatching(b *strings.Builder, i int, q *quiz.Matching, view quiz.View) {
	fmt.Fprintf(b, "Matching Set %d: %s\n", i+1, q.Title)
	for k, it := range q.Items {
		fmt.Fprintf(b, "%s. %s\n", letter(k), it.Left)
	}
	b.WriteString("\n")

	rights := view.RightsFor(q)
	for k, r := range rights {
		fmt.Fprintf(b, "%d. %s\n", k+1, r)
	}
	b.WriteString("\n")

	pairs := make([]string, 0, len(q.Items))
	for k, it := range q.Items {
		pairs = append(pairs, fmt.Sprintf("%s=%d", letter(k), slices.Index(rights, it.Right)+1))
	}
	fmt.Fprintf(b, "Answer Key: %s\n\n", strings.Join(pairs, ", "))
}

func writeChoices(b *strings.Builder, qs []*quiz.MultipleChoice, view quiz.View, single bool) {
	for i, q := range qs {
		fmt.Fprintf(b, "Question %d: %s\n", i+1, q.Question)
		for k, o := range view.OptionsFor(q) {
			fmt.Fprintf(b, "%s) %s\n", letter(k), o.Text)
		}
		correct := CorrectLetters(q, view)
		if single && len(correct) > 1 {
			correct = correct[:1]
		}
		fmt.Fprintf(b, "✅ Correct answer: %s\n", strings.Join(correct, ", "))
		if q.Explanation != "" {
			fmt.Fprintf(b, "\nExplanation: %s\n", q.Explanation)
		}
		b.WriteString("\n")
	}
}

// CorrectLetters returns the letters of q's correct options in view order.
func CorrectLetters(q *quiz.MultipleChoice, view quiz.View) []string {
	var out []string
	for k, o := range view.OptionsFor(q) {
		if o.Correct {
			out = append(out, letter(k))
		}
	}
	return out
}

func letter(i int) string { return string(rune('A' + i)) }

func ofKind[T quiz.Question](qs quiz.List) []T {
	var out []T
	for _, q := range qs {
		if v, ok := q.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
