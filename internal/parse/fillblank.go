package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

var fillBlankLine = regexp.MustCompile(`(?i)^\d+[.)]\s*(.*?)\s*\((?:raspuns|răspuns|answer)\s*:\s*([^)]+)\)`)

// FillBlank extracts "N. prompt (answer: X)" lines from a section.
func FillBlank(section string) []*quiz.FillBlank {
	var out []*quiz.FillBlank
	for _, line := range strings.Split(section, "\n") {
		m := fillBlankLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		answer := strings.TrimSpace(m[2])
		if answer == "" {
			continue
		}
		out = append(out, &quiz.FillBlank{
			ID:     fmt.Sprintf("fillblank-%d", len(out)),
			Prompt: strings.TrimSpace(m[1]),
			Answer: answer,
		})
	}
	return out
}
