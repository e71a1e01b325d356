package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

var trueFalseLine = regexp.MustCompile(`(?i)^\d+[.)]\s*(.*?)\s*[-–—]\s*(True|False|Adevărat|Fals)\s*$`)

// TrueFalse extracts "N. statement - True|False" lines from a section.
// Lines without a trailing verdict are skipped.
func TrueFalse(section string) []*quiz.TrueFalse {
	var out []*quiz.TrueFalse
	for _, line := range strings.Split(section, "\n") {
		m := trueFalseLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || strings.TrimSpace(m[1]) == "" {
			continue
		}
		verdict := strings.ToLower(m[2])
		out = append(out, &quiz.TrueFalse{
			ID:       fmt.Sprintf("tf-%d", len(out)),
			Question: strings.TrimSpace(m[1]),
			Correct:  verdict == "true" || verdict == "adevărat",
		})
	}
	return out
}
