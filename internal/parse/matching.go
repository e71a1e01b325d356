package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

var (
	matchingSetSplit = regexp.MustCompile(`(?i)(?:Matching set|Set de potrivire)\s*\d+\s*:`)
	leftItemLine     = regexp.MustCompile(`^([A-D])[.)]\s*(.*)$`)
	rightItemLine    = regexp.MustCompile(`^(\d+)[.)]\s*(.*)$`)
	answerKeyLine    = regexp.MustCompile(`(?i)Answer Key:?\s*((?:[A-D]\s*=\s*\d+\s*,?\s*)+)`)
	answerKeyPair    = regexp.MustCompile(`(?i)([A-D])\s*=\s*(\d+)`)
	selfIndicator    = regexp.MustCompile(`\s*-\s*([A-D])$`)
)

type leftItem struct {
	letter string
	text   string
	// indicated is the letter named by a trailing "- X" suffix, if any.
	indicated string
}

// Matching extracts matching sets from a section. Pairs come from an
// "Answer Key: A=3, B=1" line when present, otherwise from "- X" suffixes
// on the left items, otherwise by position. The positional fallback is a
// best-effort guess and is usually not the intended pairing.
func Matching(section string) []*quiz.Matching {
	var out []*quiz.Matching
	blocks := matchingSetSplit.Split(section, -1)
	n := 0
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		n++
		if q := matchingBlock(block, n, len(out)); q != nil {
			out = append(out, q)
		}
	}
	return out
}

func matchingBlock(block string, n, idx int) *quiz.Matching {
	lines := nonEmptyLines(block)
	title := fmt.Sprintf("Matching Set %d", n)
	if len(lines) > 0 {
		title = lines[0]
	}

	var lefts []leftItem
	var rights []string
	for _, line := range lines {
		if m := leftItemLine.FindStringSubmatch(line); m != nil {
			if strings.TrimSpace(m[2]) == "" {
				continue
			}
			lefts = append(lefts, leftItem{letter: strings.ToUpper(m[1]), text: strings.TrimSpace(m[2])})
			continue
		}
		if m := rightItemLine.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[2]) != "" {
			rights = append(rights, strings.TrimSpace(m[2]))
		}
	}

	var items []quiz.MatchingItem
	if key := answerKey(block); len(key) > 0 {
		for _, l := range lefts {
			idx, ok := key[l.letter]
			if !ok || idx < 1 || idx > len(rights) {
				continue
			}
			items = append(items, quiz.MatchingItem{ID: "item-" + l.letter, Left: l.text, Right: rights[idx-1]})
		}
	} else if indicated := stripIndicators(lefts); indicated {
		pos := make(map[string]int, len(lefts))
		for i, l := range lefts {
			pos[l.letter] = i
		}
		for _, l := range lefts {
			if l.indicated == "" {
				continue
			}
			i, ok := pos[l.indicated]
			if !ok || i >= len(rights) {
				continue
			}
			items = append(items, quiz.MatchingItem{ID: "item-" + l.letter, Left: l.text, Right: rights[i]})
		}
	} else {
		for i, l := range lefts {
			if i >= len(rights) {
				break
			}
			items = append(items, quiz.MatchingItem{ID: "item-" + l.letter, Left: l.text, Right: rights[i]})
		}
	}
	if len(items) == 0 {
		return nil
	}
	if leftItemLine.MatchString(title) || rightItemLine.MatchString(title) {
		title = fmt.Sprintf("Matching Set %d", n)
	}
	return &quiz.Matching{ID: fmt.Sprintf("matching-%d", idx), Title: title, Items: items}
}

// answerKey reads the first "Answer Key:" line of a block as letter -> 1-based
// right index.
func answerKey(block string) map[string]int {
	m := answerKeyLine.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	key := map[string]int{}
	for _, p := range answerKeyPair.FindAllStringSubmatch(m[1], -1) {
		n, err := strconv.Atoi(p[2])
		if err != nil {
			continue
		}
		letter := strings.ToUpper(p[1])
		if _, dup := key[letter]; !dup {
			key[letter] = n
		}
	}
	return key
}

// stripIndicators moves "- X" suffixes from left item text into indicated
// and reports whether any item carried one.
func stripIndicators(lefts []leftItem) bool {
	found := false
	for i := range lefts {
		m := selfIndicator.FindStringSubmatch(lefts[i].text)
		if m == nil {
			continue
		}
		lefts[i].indicated = m[1]
		lefts[i].text = strings.TrimSpace(selfIndicator.ReplaceAllString(lefts[i].text, ""))
		found = true
	}
	return found
}
