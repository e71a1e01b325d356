package quiz

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleList() List {
	return List{
		&TrueFalse{ID: "tf-0", Question: "The sky is blue", Correct: true},
		&Matching{ID: "matching-0", Title: "Capitals", Items: []MatchingItem{
			{ID: "item-A", Left: "France", Right: "Paris"},
			{ID: "item-B", Left: "Italy", Right: "Rome"},
			{ID: "item-C", Left: "Spain", Right: "Madrid"},
		}},
		&MultipleChoice{ID: "mc-0", Question: "2+2?", Options: []Option{
			{ID: "option-A", Text: "3"},
			{ID: "option-B", Text: "4", Correct: true},
			{ID: "option-C", Text: "5"},
			{ID: "option-D", Text: "22"},
		}},
		&FillBlank{ID: "fillblank-0", Prompt: "Manus means ____", Answer: "hand"},
	}
}

func TestNewViewIsPermutation(t *testing.T) {
	qs := sampleList()
	v := NewView(qs, 1, rand.New(rand.NewPCG(7, 7)))

	mc := qs[2].(*MultipleChoice)
	assert.ElementsMatch(t, mc.Options, v.OptionsFor(mc))
	assert.Equal(t, "option-A", mc.Options[0].ID, "source order must not change")

	m := qs[1].(*Matching)
	assert.ElementsMatch(t, []string{"Paris", "Rome", "Madrid"}, v.RightsFor(m))
	assert.Equal(t, uint64(1), v.Version)
}

func TestNewViewDeterministicForSeed(t *testing.T) {
	qs := sampleList()
	a := NewView(qs, 1, rand.New(rand.NewPCG(42, 1)))
	b := NewView(qs, 1, rand.New(rand.NewPCG(42, 1)))
	assert.Equal(t, a, b)
}

func TestViewFallsBackToDeclarationOrder(t *testing.T) {
	qs := sampleList()
	var v View
	mc := qs[2].(*MultipleChoice)
	assert.Equal(t, mc.Options, v.OptionsFor(mc))
	assert.Equal(t, []string{"Paris", "Rome", "Madrid"}, v.RightsFor(qs[1].(*Matching)))
}

func TestListJSONKeepsVariants(t *testing.T) {
	qs := sampleList()
	b, err := json.Marshal(qs)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"matching"`)

	var back List
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back, 4)
	assert.Equal(t, qs, back)
}

func TestListJSONRejectsUnknownType(t *testing.T) {
	var l List
	err := json.Unmarshal([]byte(`[{"type":"essay","id":"x"}]`), &l)
	assert.Error(t, err)
}

func TestAnswersMergeAndProgress(t *testing.T) {
	qs := sampleList()
	var a Answers
	a.Merge(Answers{
		TrueFalse: map[string]bool{"tf-0": false},
		Matching:  map[string]map[string]string{"matching-0": {"item-A": "Paris", "item-B": "Madrid"}},
	})
	a.Merge(Answers{
		Matching:       map[string]map[string]string{"matching-0": {"item-B": ""}},
		MultipleChoice: map[string][]string{"mc-0": {"option-B"}},
		FillBlank:      map[string]string{"fillblank-0": "   "},
	})

	answered, total := a.Progress(qs)
	assert.Equal(t, 6, total)
	assert.Equal(t, 3, answered)
	assert.Equal(t, map[string]string{"item-A": "Paris"}, a.Matching["matching-0"])
}

func TestListCount(t *testing.T) {
	c := sampleList().Count()
	assert.Equal(t, 1, c[KindTrueFalse])
	assert.Equal(t, 1, c[KindFillBlank])
	_, ok := sampleList().Find("mc-0")
	assert.True(t, ok)
}
