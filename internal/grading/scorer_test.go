package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

func questions() quiz.List {
	return quiz.List{
		&quiz.TrueFalse{ID: "tf-0", Question: "The sky is blue", Correct: true},
		&quiz.Matching{ID: "matching-0", Title: "Capitals", Items: []quiz.MatchingItem{
			{ID: "item-A", Left: "France", Right: "Paris"},
			{ID: "item-B", Left: "Italy", Right: "Rome"},
		}},
		&quiz.MultipleChoice{ID: "mc-0", Question: "Evens", Options: []quiz.Option{
			{ID: "option-A", Text: "2", Correct: true},
			{ID: "option-B", Text: "3"},
			{ID: "option-C", Text: "4", Correct: true},
		}},
		&quiz.FillBlank{ID: "fillblank-0", Prompt: "Hero ____", Answer: "Ştefan"},
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name    string
		answers quiz.Answers
		correct int
		score   float64
	}{
		{"nothing answered", quiz.Answers{}, 0, 0},
		{
			"all correct",
			quiz.Answers{
				TrueFalse:      map[string]bool{"tf-0": true},
				Matching:       map[string]map[string]string{"matching-0": {"item-A": "Paris", "item-B": "Rome"}},
				MultipleChoice: map[string][]string{"mc-0": {"option-C", "option-A"}},
				FillBlank:      map[string]string{"fillblank-0": "  stefan "},
			},
			5, 100,
		},
		{
			"partial matching and subset choice",
			quiz.Answers{
				TrueFalse:      map[string]bool{"tf-0": false},
				Matching:       map[string]map[string]string{"matching-0": {"item-A": "Paris", "item-B": "Paris"}},
				MultipleChoice: map[string][]string{"mc-0": {"option-A"}},
				FillBlank:      map[string]string{"fillblank-0": "Ștefan"},
			},
			2, 40,
		},
		{
			"superset choice is wrong",
			quiz.Answers{MultipleChoice: map[string][]string{"mc-0": {"option-A", "option-B", "option-C"}}},
			0, 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(questions(), tc.answers)
			assert.Equal(t, 5, res.Total)
			assert.Equal(t, tc.correct, res.Correct)
			assert.InDelta(t, tc.score, res.Score, 1e-9)
			assert.Len(t, res.Units, 5)
		})
	}
}

func TestScoreEmptyQuiz(t *testing.T) {
	res := Score(nil, quiz.Answers{})
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 0, res.Total)
}

func TestScoreUnitsPerMatchingItem(t *testing.T) {
	res := Score(questions(), quiz.Answers{
		Matching: map[string]map[string]string{"matching-0": {"item-B": "Rome"}},
	})
	u, ok := res.Unit("matching-0", "item-B")
	assert.True(t, ok)
	assert.True(t, u.Correct)
	u, ok = res.Unit("matching-0", "item-A")
	assert.True(t, ok)
	assert.False(t, u.Correct)
}

func TestScoreGridExample(t *testing.T) {
	qs := quiz.List{&quiz.MultipleChoice{ID: "mc-0", Question: "2+2?", Options: []quiz.Option{
		{ID: "option-A", Text: "3"},
		{ID: "option-B", Text: "4", Correct: true},
	}}}
	res := Score(qs, quiz.Answers{MultipleChoice: map[string][]string{"mc-0": {"option-B"}}})
	assert.Equal(t, 100.0, res.Score)
}

func TestNormalizeAnswer(t *testing.T) {
	cases := map[string]string{
		"Ştefan":       "stefan",
		"ȘTEFAN":       "stefan",
		"  Mână ":      "mana",
		"Țară":         "tara",
		"însă":         "insa",
		"Café":         "cafe",
		"plain":        "plain",
		"":             "",
		"două cuvinte": "doua cuvinte",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeAnswer(in), in)
	}
	assert.True(t, AnswersMatch("Ştefan", "stefan"))
	assert.False(t, AnswersMatch("stefan", "stefania"))
}
