// Package expression maps facial-expression classifier scores to the
// emotion label shown on the overlay.
package expression

import (
	"sort"
	"strings"
)

// Expression is a facial expression label known to the overlay.
type Expression string

const (
	Happy     Expression = "happy"
	Angry     Expression = "angry"
	Neutral   Expression = "neutral"
	Sad       Expression = "sad"
	Surprised Expression = "surprised"
)

// canonical is the order in which labels are scanned. On a tie the label
// that comes first here wins; labels the overlay does not know follow in
// lexical order.
var canonical = []Expression{Happy, Angry, Neutral, Sad, Surprised}

var labels = map[Expression]string{
	Happy:     "😊 Happy",
	Angry:     "😡 Angry",
	Neutral:   "😐 Neutral",
	Sad:       "😢 Sad",
	Surprised: "😲 Surprise",
}

// Known reports whether e has a display label.
func (e Expression) Known() bool {
	_, ok := labels[e]
	return ok
}

// Label returns the display string for e. Unknown expressions show as neutral.
func (e Expression) Label() string {
	if l, ok := labels[e]; ok {
		return l
	}
	return labels[Neutral]
}

// Name returns a plain capitalized name without the emoji.
func (e Expression) Name() string {
	if !e.Known() {
		return "Neutral"
	}
	s := string(e)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Argmax returns the label with the highest confidence. Empty input yields
// Neutral. Ties are broken by scan order: known labels first in canonical
// order, then unknown labels alphabetically; the first maximum wins.
func Argmax(scores map[string]float64) Expression {
	if len(scores) == 0 {
		return Neutral
	}

	order := make([]Expression, 0, len(scores))
	for _, e := range canonical {
		if _, ok := scores[string(e)]; ok {
			order = append(order, e)
		}
	}
	var unknown []string
	for k := range scores {
		if !Expression(k).Known() {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		order = append(order, Expression(k))
	}

	best := order[0]
	for _, e := range order[1:] {
		if scores[string(e)] > scores[string(best)] {
			best = e
		}
	}
	return best
}

// Resolve returns the display label for a score map.
func Resolve(scores map[string]float64) string {
	return Argmax(scores).Label()
}
