package game

import "slices"

// VictoryBonus is added to the undercover team's score when exactly one
// civilian is still standing at game end.
const VictoryBonus = 3

// settle applies the elimination rules to a vote tally. Exactly one branch
// fires:
//
//   - one leader: eliminate it. Undercover out → civilians win. No civilians
//     left → undercover wins. Otherwise the round advances.
//   - three leaders: if none is the undercover, all three are eliminated and
//     the undercover wins; otherwise nobody is eliminated and the round
//     advances.
//   - any other number of leaders: nobody is eliminated, the round advances.
func (e *Engine) settle(tally map[string]int) Outcome {
	leaders, top := leadersOf(tally)
	out := Outcome{
		Round:      e.round,
		Tally:      tally,
		Leaders:    leaders,
		MaxVotes:   top,
		Eliminated: []string{},
	}

	switch len(leaders) {
	case 1:
		out.Eliminated = []string{leaders[0]}
		e.eliminated = append(e.eliminated, leaders[0])
		switch {
		case leaders[0] == e.undercover:
			e.finish(&out, WinnerCivilian)
		case len(e.civiliansLeft()) == 0:
			e.finish(&out, WinnerUndercover)
		default:
			e.advance()
		}
	case 3:
		if slices.Contains(leaders, e.undercover) {
			e.advance()
			break
		}
		out.Eliminated = append(out.Eliminated, leaders...)
		e.eliminated = append(e.eliminated, leaders...)
		e.finish(&out, WinnerUndercover)
	default:
		e.advance()
	}

	stored := out.clone()
	e.last = &stored
	return out
}

func (e *Engine) advance() {
	e.round++
	e.status = StatusRoundEnd
}

func (e *Engine) finish(out *Outcome, w Winner) {
	out.Ended = true
	out.Winner = w
	e.score()
	e.endedAt = e.now()
	e.status = StatusGameEnd
}

// score credits every team with the number of rounds the game lasted; the
// undercover team additionally earns VictoryBonus when exactly one civilian
// remains.
func (e *Engine) score() {
	if e.undercover == "" {
		return
	}
	survival := e.round
	bonus := 0
	if len(e.civiliansLeft()) == 1 {
		bonus = VictoryBonus
	}
	for _, name := range e.joined {
		if name == e.undercover {
			e.scores[name] = bonus + survival
		} else {
			e.scores[name] = survival
		}
	}
}

// civiliansLeft returns non-eliminated teams other than the undercover.
func (e *Engine) civiliansLeft() []string {
	var out []string
	for _, name := range e.active() {
		if name != e.undercover {
			out = append(out, name)
		}
	}
	return out
}

// leadersOf returns the sorted names tied at the highest tally and that tally.
func leadersOf(tally map[string]int) ([]string, int) {
	top := 0
	for _, n := range tally {
		if n > top {
			top = n
		}
	}
	leaders := []string{}
	if top == 0 {
		return leaders, 0
	}
	for name, n := range tally {
		if n == top {
			leaders = append(leaders, name)
		}
	}
	slices.Sort(leaders)
	return leaders, top
}
