package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

func TestTrueFalse(t *testing.T) {
	section := "\n1. The sky is blue - True\n2) Fire is cold – False\n" +
		"3. Soarele este o stea — ADEVĂRAT\n4. Luna e o planetă - Fals\n" +
		"5. no verdict here\n6. - True\nnot numbered - True\n"

	qs := TrueFalse(section)

	require.Len(t, qs, 4)
	assert.Equal(t, &quiz.TrueFalse{ID: "tf-0", Question: "The sky is blue", Correct: true}, qs[0])
	assert.Equal(t, "Fire is cold", qs[1].Question)
	assert.False(t, qs[1].Correct)
	assert.True(t, qs[2].Correct)
	assert.Equal(t, "Luna e o planetă", qs[3].Question)
	assert.False(t, qs[3].Correct)
	assert.Equal(t, "tf-3", qs[3].ID)
}

func TestTrueFalseKeepsInnerDashes(t *testing.T) {
	qs := TrueFalse("1. Well-known - widely cited facts - True")
	require.Len(t, qs, 1)
	assert.Equal(t, "Well-known - widely cited facts", qs[0].Question)
}

func TestMatchingAnswerKey(t *testing.T) {
	section := ":\nMatching set 1: Capitals\nA. France\nB. Italy\n1. Rome\n2. Paris\nAnswer Key: A=2, B=1\n"

	qs := Matching(section)

	require.Len(t, qs, 1)
	assert.Equal(t, "matching-0", qs[0].ID)
	assert.Equal(t, "Capitals", qs[0].Title)
	assert.Equal(t, []quiz.MatchingItem{
		{ID: "item-A", Left: "France", Right: "Paris"},
		{ID: "item-B", Left: "Italy", Right: "Rome"},
	}, qs[0].Items)
}

func TestMatchingAnswerKeyOutOfRangeSkipped(t *testing.T) {
	section := "Matching set 1: T\nA. a\nB. b\n1. one\nAnswer Key: A=1, B=7"
	qs := Matching(section)
	require.Len(t, qs, 1)
	assert.Equal(t, []quiz.MatchingItem{{ID: "item-A", Left: "a", Right: "one"}}, qs[0].Items)
}

func TestMatchingSelfIndicators(t *testing.T) {
	section := "Set de potrivire 1: Termeni\nA. alpha - B\nB. beta - A\n1. first\n2. second\n"

	qs := Matching(section)

	require.Len(t, qs, 1)
	assert.Equal(t, []quiz.MatchingItem{
		{ID: "item-A", Left: "alpha", Right: "second"},
		{ID: "item-B", Left: "beta", Right: "first"},
	}, qs[0].Items)
}

func TestMatchingPositionalFallback(t *testing.T) {
	section := "Matching set 1: T\nA. a\nB. b\nC. c\n1. one\n2. two\n"

	qs := Matching(section)

	require.Len(t, qs, 1)
	assert.Equal(t, []quiz.MatchingItem{
		{ID: "item-A", Left: "a", Right: "one"},
		{ID: "item-B", Left: "b", Right: "two"},
	}, qs[0].Items)
}

func TestMatchingEmptySetsDropped(t *testing.T) {
	section := "Matching set 1: Only title\nMatching set 2:\nA. x\n1. y\n"
	qs := Matching(section)
	require.Len(t, qs, 1)
	assert.Equal(t, "matching-0", qs[0].ID)
	assert.Equal(t, "Matching Set 2", qs[0].Title)
}

func TestMultipleChoiceAnswerLine(t *testing.T) {
	section := "\nQuestion 1: What is 2+2?\nA) 3\nB) 4\nC) 5\nD) 22\n✅ Answer corect: B\n"

	qs := MultipleChoice(section, false)

	require.Len(t, qs, 1)
	q := qs[0]
	assert.Equal(t, "mc-0", q.ID)
	assert.Equal(t, "What is 2+2?", q.Question)
	require.Len(t, q.Options, 4)
	assert.Equal(t, []string{"option-B"}, q.CorrectIDs())
	assert.Equal(t, "22", q.Options[3].Text)
}

func TestMultipleChoiceMultiAndExplanation(t *testing.T) {
	section := "Question 1: Pick primes\nA. 2\nB: 4\nC) 5\nD) 9\nCorrect answer(s): A, c\n" +
		"Explanation: 2 and 5 have no divisors.\n[Brief explanation of the correct answer]\n4."

	qs := MultipleChoice(section, false)

	require.Len(t, qs, 1)
	assert.Equal(t, []string{"option-A", "option-C"}, qs[0].CorrectIDs())
	assert.Equal(t, "2 and 5 have no divisors.", qs[0].Explanation)
}

func TestMultipleChoiceInlineMarker(t *testing.T) {
	section := "Întrebarea 1: Capitala României?\nA) Cluj\nB) București (corect)\nC) Iași\n"

	qs := MultipleChoice(section, false)

	require.Len(t, qs, 1)
	assert.Equal(t, "București", qs[0].Options[1].Text)
	assert.Equal(t, []string{"option-B"}, qs[0].CorrectIDs())
}

func TestMultipleChoiceRepairs(t *testing.T) {
	noMarker := "Question 1: Which one?\nA) first\nB) second\nC) third\n"
	qs := MultipleChoice(noMarker, false)
	require.Len(t, qs, 1)
	assert.Equal(t, []string{"option-A"}, qs[0].CorrectIDs(), "first option becomes correct")

	multi := "Q1: Which ones?\nA) first\nB) second (correct)\nC) third\nCorrect answer: B, C\n"
	qs = MultipleChoice(multi, true)
	require.Len(t, qs, 1)
	assert.Equal(t, []string{"option-B"}, qs[0].CorrectIDs(), "single-answer keeps the first correct")
}

func TestMultipleChoiceDiscards(t *testing.T) {
	section := "Question 1: short\nQuestion 2: Only one option here\nA) lonely\n" +
		"Question 3: Two lines\nA) a\nQuestion 4: Good one?\nA) yes\nB) no\n✅ Answer corect: A"

	qs := MultipleChoice(section, false)

	require.Len(t, qs, 1)
	assert.Equal(t, "Good one?", qs[0].Question)
	assert.Equal(t, "mc-0", qs[0].ID)
}

func TestMultipleChoiceDuplicateLettersKeepFirst(t *testing.T) {
	section := "Question 1: Dupes?\nA) one\nA) again\nB) two\n"
	qs := MultipleChoice(section, false)
	require.Len(t, qs, 1)
	require.Len(t, qs[0].Options, 2)
	assert.Equal(t, "one", qs[0].Options[0].Text)
}

func TestFillBlank(t *testing.T) {
	section := "\n1. Manus inseamna in latina ____ (raspuns: mana)\n" +
		"2) Henry Fayol a definit șase ______ (răspuns:  funcții )\n" +
		"3. The capital of France is ___ (Answer: Paris)\n" +
		"4. missing answer\n"

	qs := FillBlank(section)

	require.Len(t, qs, 3)
	assert.Equal(t, &quiz.FillBlank{ID: "fillblank-0", Prompt: "Manus inseamna in latina ____", Answer: "mana"}, qs[0])
	assert.Equal(t, "funcții", qs[1].Answer)
	assert.Equal(t, "Paris", qs[2].Answer)
}
