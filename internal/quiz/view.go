package quiz

import "math/rand/v2"

// View is the shuffled presentation order of one generated quiz: option
// order per multiple choice question and right-column order per matching
// question. It is computed once per generation and shared by display,
// review and export.
type View struct {
	Version uint64              `json:"version"`
	Options map[string][]Option `json:"options"`
	Rights  map[string][]string `json:"rights"`
}

// NewView shuffles every multiple choice option list and every matching
// right column of qs. A nil r uses the global source.
func NewView(qs List, version uint64, r *rand.Rand) View {
	v := View{
		Version: version,
		Options: map[string][]Option{},
		Rights:  map[string][]string{},
	}
	for _, q := range qs {
		switch q := q.(type) {
		case *MultipleChoice:
			v.Options[q.ID] = Shuffle(append([]Option(nil), q.Options...), r)
		case *Matching:
			rights := make([]string, len(q.Items))
			for i, it := range q.Items {
				rights[i] = it.Right
			}
			v.Rights[q.ID] = Shuffle(rights, r)
		case *TrueFalse, *FillBlank:
		}
	}
	return v
}

// OptionsFor returns q's options in view order, falling back to declaration
// order when the view does not cover q.
func (v View) OptionsFor(q *MultipleChoice) []Option {
	if opts, ok := v.Options[q.ID]; ok && len(opts) == len(q.Options) {
		return opts
	}
	return q.Options
}

// RightsFor returns q's right-column texts in view order.
func (v View) RightsFor(q *Matching) []string {
	if rights, ok := v.Rights[q.ID]; ok && len(rights) == len(q.Items) {
		return rights
	}
	out := make([]string, len(q.Items))
	for i, it := range q.Items {
		out[i] = it.Right
	}
	return out
}

// Shuffle permutes s in place with Fisher-Yates and returns it.
func Shuffle[T any](s []T, r *rand.Rand) []T {
	for i := len(s) - 1; i > 0; i-- {
		var j int
		if r != nil {
			j = r.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		s[i], s[j] = s[j], s[i]
	}
	return s
}
