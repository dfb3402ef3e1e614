// Package strategy decides what a team says and whom it votes for.
package strategy

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/robalobadob/undercover/internal/game"
)

// Strategy is plugged into the bot. Implementations see only public data
// plus the team's own word.
type Strategy interface {
	// Describe returns the team's description for round. It must not
	// contain word itself.
	Describe(word string, round int) string

	// Vote picks one of candidates (never self) given this round's
	// descriptions. An empty result means abstain.
	Vote(self string, candidates []string, descriptions []game.Description) string
}

// Naive describes a word by its shape and votes for the team whose
// description overlaps least with its own. Not safe for concurrent use.
type Naive struct {
	rng *rand.Rand
}

// NewNaive returns a Naive strategy; the seed fixes tie-breaking.
func NewNaive(seed int64) *Naive {
	return &Naive{rng: rand.New(rand.NewSource(seed))}
}

func (n *Naive) Describe(word string, round int) string {
	word = strings.TrimSpace(word)
	r, _ := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return fmt.Sprintf("round %d: hard to put into words", round)
	}
	return fmt.Sprintf("starts with %c and has %d letters", r, utf8.RuneCountInString(word))
}

func (n *Naive) Vote(self string, candidates []string, descriptions []game.Description) string {
	texts := make(map[string]string, len(descriptions))
	for _, d := range descriptions {
		texts[d.Team] = d.Text
	}
	mine := tokens(texts[self])

	var best []string
	bestOverlap := -1
	for _, c := range candidates {
		if c == self {
			continue
		}
		overlap := 0
		for t := range tokens(texts[c]) {
			if _, ok := mine[t]; ok {
				overlap++
			}
		}
		switch {
		case bestOverlap < 0 || overlap < bestOverlap:
			best, bestOverlap = []string{c}, overlap
		case overlap == bestOverlap:
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return ""
	}
	slices.Sort(best)
	return best[n.rng.Intn(len(best))]
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		out[f] = struct{}{}
	}
	return out
}
