// Package freetext handles the open-answer quiz: a generated list of
// questions, reference answers generated from the lesson, and scores
// assigned by the upstream evaluator.
package freetext

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

const (
	NoMatchingAnswer = "No matching answer found in response"
	AnswerFailed     = "Failed to generate answer from content"
	noAnswer         = "No answer found"

	DefaultMax = 10
)

type Question struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	StudentAnswer string `json:"studentAnswer,omitempty"`
	Score         int    `json:"score"`
}

// Pair is one question with its generated reference answer.
type Pair struct {
	Question string
	Answer   string
}

var (
	numberedItem  = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]*`)
	answerBlock   = regexp.MustCompile(`(?i)(?:Întrebare|Intrebare|Question)\s*:`)
	answerLabel   = regexp.MustCompile(`(?i)^(?:Răspuns|Raspuns|Answer)\s*:\s*`)
	evalQuestion  = regexp.MustCompile(`(?i)(?:Întrebare|Intrebare|Question)\s*:[ \t]*(.*)`)
	evalScore     = regexp.MustCompile(`(?i)(?:Scor|Score)\s*:\s*(-?\d+)`)
	blankLineSpan = regexp.MustCompile(`\n[ \t]*\n`)
)

// ParseQuestions reads numbered items; failing that, the lines holding a
// question mark; failing that, the whole text as a single question.
func ParseQuestions(raw string) []Question {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var texts []string
	if locs := numberedItem.FindAllStringIndex(raw, -1); len(locs) > 0 {
		for i, loc := range locs {
			end := len(raw)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			if t := strings.TrimSpace(raw[loc[1]:end]); t != "" {
				texts = append(texts, t)
			}
		}
	}
	if len(texts) == 0 {
		for _, line := range strings.Split(raw, "\n") {
			if strings.Contains(line, "?") && strings.TrimSpace(line) != "" {
				texts = append(texts, strings.TrimSpace(line))
			}
		}
	}
	if len(texts) == 0 {
		if t := strings.TrimSpace(raw); t != "" {
			texts = []string{t}
		}
	}
	return withIDs(texts)
}

// FromItems reads a JSON array of question objects or plain strings.
func FromItems(items []json.RawMessage) []Question {
	var texts []string
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				texts = append(texts, s)
			}
			continue
		}
		var q struct {
			Question string `json:"question"`
		}
		if json.Unmarshal(it, &q) == nil && strings.TrimSpace(q.Question) != "" {
			texts = append(texts, strings.TrimSpace(q.Question))
		}
	}
	return withIDs(texts)
}

func withIDs(texts []string) []Question {
	out := make([]Question, len(texts))
	for i, t := range texts {
		out[i] = Question{ID: fmt.Sprintf("q-%d", i), Question: t}
	}
	return out
}

// Limit keeps a random n of qs when there are more than n. Ids are
// left as parsed.
func Limit(qs []Question, n int, r *rand.Rand) []Question {
	if n <= 0 || len(qs) <= n {
		return qs
	}
	return quiz.Shuffle(append([]Question(nil), qs...), r)[:n]
}

// QuestionCount picks the number of questions to request, uniform in
// [lo, hi].
func QuestionCount(lo, hi int, r *rand.Rand) int {
	if hi <= lo {
		return lo
	}
	if r == nil {
		return lo + rand.IntN(hi-lo+1)
	}
	return lo + r.IntN(hi-lo+1)
}

// ParseAnswers splits a generated answer text into question/answer pairs.
// The answer is the text after the answer label, or the next line when the
// label stands alone. Blocks without an answer label are dropped.
func ParseAnswers(raw string) []Pair {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var pairs []Pair
	for _, block := range answerBlock.Split(raw, -1) {
		lines := nonEmpty(block)
		if len(lines) == 0 {
			continue
		}
		at := -1
		for i, l := range lines {
			if answerLabel.MatchString(l) {
				at = i
				break
			}
		}
		if at < 1 {
			continue
		}
		answer := answerLabel.ReplaceAllString(lines[at], "")
		if answer == "" && at+1 < len(lines) {
			answer = lines[at+1]
		}
		if answer == "" {
			answer = noAnswer
		}
		pairs = append(pairs, Pair{Question: lines[0], Answer: answer})
	}
	return pairs
}

// BestMatch finds the pair for question: exact text first, then
// case-insensitive containment either way, then the first pair.
func BestMatch(question string, pairs []Pair) (Pair, bool) {
	if len(pairs) == 0 {
		return Pair{}, false
	}
	for _, p := range pairs {
		if p.Question == question {
			return p, true
		}
	}
	q := strings.ToLower(question)
	for _, p := range pairs {
		pq := strings.ToLower(p.Question)
		if strings.Contains(pq, q) || strings.Contains(q, pq) {
			return p, true
		}
	}
	return pairs[0], true
}

// AttachAnswers sets each question's reference answer from the generated
// text and clears any previous student answer.
func AttachAnswers(qs []Question, raw string) {
	pairs := ParseAnswers(raw)
	for i := range qs {
		qs[i].CorrectAnswer = NoMatchingAnswer
		if p, ok := BestMatch(qs[i].Question, pairs); ok && p.Answer != "" {
			qs[i].CorrectAnswer = p.Answer
		}
		qs[i].StudentAnswer = ""
		qs[i].Score = 0
	}
}

// FailAnswers marks every question as lacking a reference answer.
func FailAnswers(qs []Question) {
	for i := range qs {
		qs[i].CorrectAnswer = AnswerFailed
		qs[i].StudentAnswer = ""
		qs[i].Score = 0
	}
}

type scoreBlock struct {
	question string
	score    int
}

// ParseEvaluation reads "Întrebare: <q>" / "Scor: <n>" blocks separated by
// blank lines and returns one score per question. Exact case-insensitive
// question matches are assigned first, then containment either way.
// Negative scores become 0, unmatched questions score 0.
func ParseEvaluation(text string, qs []Question) []int {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks []scoreBlock
	for _, b := range blankLineSpan.Split(text, -1) {
		qm := evalQuestion.FindStringSubmatch(b)
		sm := evalScore.FindStringSubmatch(b)
		if qm == nil || sm == nil {
			continue
		}
		n, err := strconv.Atoi(sm[1])
		if err != nil {
			continue
		}
		blocks = append(blocks, scoreBlock{question: strings.TrimSpace(qm[1]), score: max(n, 0)})
	}

	scores := make([]int, len(qs))
	scored := make([]bool, len(qs))
	for _, b := range blocks {
		for i, q := range qs {
			if strings.EqualFold(q.Question, b.question) {
				if !scored[i] {
					scores[i], scored[i] = b.score, true
				}
				break
			}
		}
	}
	for i, q := range qs {
		if scored[i] {
			continue
		}
		lq := strings.ToLower(q.Question)
		for _, b := range blocks {
			lb := strings.ToLower(b.question)
			if lb == "" {
				continue
			}
			if strings.Contains(lq, lb) || strings.Contains(lb, lq) {
				scores[i] = b.score
				break
			}
		}
	}
	return scores
}

// ApplyScores reads an index-aligned JSON array of {"score": n} objects.
func ApplyScores(qs []Question, items []json.RawMessage) []int {
	scores := make([]int, len(qs))
	for i := range qs {
		if i >= len(items) {
			break
		}
		var s struct {
			Score float64 `json:"score"`
		}
		if json.Unmarshal(items[i], &s) == nil && s.Score > 0 {
			scores[i] = int(s.Score)
		}
	}
	return scores
}

// Total sums the question scores.
func Total(qs []Question) int {
	sum := 0
	for _, q := range qs {
		sum += q.Score
	}
	return sum
}

func nonEmpty(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}
