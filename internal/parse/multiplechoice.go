package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

var (
	questionSplit   = regexp.MustCompile(`(?i)(?:Question\s*\d+\s*:|Q\s*\d+\s*:|Întrebarea\s*\d+\s*:)`)
	leadingOrdinal  = regexp.MustCompile(`^\d+[.)]\s*`)
	answerLine      = regexp.MustCompile(`(?i)(?:✅\s*Answer\s*corect|Correct answer(?:\(s\))?)\s*:`)
	answerLetters   = regexp.MustCompile(`(?i)(?:✅\s*Answer\s*corect|Correct answer(?:\(s\))?)\s*:\s*([A-D](?:\s*,\s*[A-D])*)`)
	optionLine      = regexp.MustCompile(`(?i)^([A-D]|\d+)[.:)]\s*(.+)$`)
	inlineCorrect   = regexp.MustCompile(`(?i)\s*\((?:correct|corect)\)`)
	bareOrdinal     = regexp.MustCompile(`^\d+[.)]?$`)
	explanationJunk = regexp.MustCompile(`(?i)\[Detailed explanation of why this is the correct answer and why other options are incorrect\]|\[Brief explanation of the correct answer\]|\[?Explicație:\s*\]?`)
	explanationTag  = regexp.MustCompile(`(?i)^(?:Explanation|Explicatie)\s*:\s*`)
)

// MultipleChoice extracts "Question N:" blocks from a section. With single
// set, every question keeps exactly one correct option.
func MultipleChoice(section string, single bool) []*quiz.MultipleChoice {
	var out []*quiz.MultipleChoice
	for _, block := range questionSplit.Split(section, -1) {
		if len(strings.TrimSpace(block)) <= 10 {
			continue
		}
		if q := multipleChoiceBlock(block, single, len(out)); q != nil {
			out = append(out, q)
		}
	}
	return out
}

func multipleChoiceBlock(block string, single bool, n int) *quiz.MultipleChoice {
	lines := nonEmptyLines(block)
	if len(lines) < 3 {
		return nil
	}
	question := strings.TrimSpace(leadingOrdinal.ReplaceAllString(lines[0], ""))

	answerAt := -1
	for i := 1; i < len(lines); i++ {
		if answerLine.MatchString(lines[i]) {
			answerAt = i
			break
		}
	}

	correct := map[string]bool{}
	optionLines := lines[1:]
	var explanation string
	if answerAt > 0 {
		if m := answerLetters.FindStringSubmatch(lines[answerAt]); m != nil {
			for _, l := range strings.Split(m[1], ",") {
				correct[strings.ToUpper(strings.TrimSpace(l))] = true
			}
		}
		optionLines = lines[1:answerAt]
		explanation = cleanExplanation(lines[answerAt+1:])
	}

	var options []quiz.Option
	seen := map[string]bool{}
	for _, line := range optionLines {
		m := optionLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		letter := strings.ToUpper(m[1])
		if seen[letter] {
			continue
		}
		seen[letter] = true
		text := m[2]
		marked := inlineCorrect.MatchString(text)
		if marked {
			text = inlineCorrect.ReplaceAllString(text, "")
		}
		options = append(options, quiz.Option{
			ID:      "option-" + letter,
			Text:    strings.TrimSpace(text),
			Correct: marked || correct[letter],
		})
	}
	if len(options) <= 1 {
		return nil
	}
	repairCorrect(options, single)

	return &quiz.MultipleChoice{
		ID:          fmt.Sprintf("mc-%d", n),
		Question:    question,
		Options:     options,
		Explanation: explanation,
	}
}

// repairCorrect makes the first option correct when none is, and keeps only
// the first correct option when single is set.
func repairCorrect(options []quiz.Option, single bool) {
	first := -1
	for i, o := range options {
		if o.Correct {
			first = i
			break
		}
	}
	if first < 0 {
		options[0].Correct = true
		return
	}
	if !single {
		return
	}
	for i := first + 1; i < len(options); i++ {
		options[i].Correct = false
	}
}

func cleanExplanation(lines []string) string {
	var kept []string
	for _, l := range lines {
		if bareOrdinal.MatchString(l) {
			continue
		}
		l = explanationJunk.ReplaceAllString(l, "")
		l = strings.TrimSpace(explanationTag.ReplaceAllString(l, ""))
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
