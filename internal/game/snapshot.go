// internal/game/snapshot.go
//
// Read views over the session. All of them are pure: they copy state out and
// never transition. The lazy DESCRIBING -> VOTING flip lives in Tick, which the
// guarded wrapper runs before building any view.
//
//   - FullState:   the host's view, every field verbatim.
//   - PublicState: what any team may see. No roles, no words.
//   - Word:        a single team's own word.

package game

import (
	"maps"
	"slices"
	"time"
)

// FullState is the admin snapshot.
type FullState struct {
	GameID         string                    `json:"game_id"`
	Status         Status                    `json:"status"`
	Teams          []Team                    `json:"teams"`
	Undercover     string                    `json:"undercover"`
	UndercoverWord string                    `json:"undercover_word"`
	CivilianWord   string                    `json:"civilian_word"`
	Round          int                       `json:"current_round"`
	Order          []string                  `json:"describe_order"`
	Eliminated     []string                  `json:"eliminated"`
	Scores         map[string]int            `json:"scores"`
	Descriptions   map[int][]Description     `json:"descriptions"`
	Votes          map[int]map[string]string `json:"votes"`
	Reports        []Report                  `json:"reports"`
	LastResult     *Outcome                  `json:"last_result"`
	PhaseStartedAt *time.Time                `json:"phase_started_at,omitempty"`
}

// PublicState is the redacted snapshot served to teams.
type PublicState struct {
	Status         Status     `json:"status"`
	Round          int        `json:"round"`
	Active         []string   `json:"active"`
	Order          []string   `json:"describe_order"`
	Eliminated     []string   `json:"eliminated"`
	CurrentSpeaker string     `json:"current_speaker,omitempty"`
	SlotDeadline   *time.Time `json:"slot_deadline,omitempty"`
}

// TeamSummary is the public listing entry for a registered team.
type TeamSummary struct {
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
	Eliminated   bool      `json:"eliminated"`
}

// Record summarises a finished game for the archive.
type Record struct {
	GameID         string         `json:"game_id"`
	EndedAt        time.Time      `json:"ended_at"`
	Winner         Winner         `json:"winner"`
	Rounds         int            `json:"rounds"`
	Undercover     string         `json:"undercover"`
	UndercoverWord string         `json:"undercover_word"`
	CivilianWord   string         `json:"civilian_word"`
	Scores         map[string]int `json:"scores"`
	Eliminated     []string       `json:"eliminated"`
	Reports        int            `json:"reports"`
}

func (e *Engine) Status() Status { return e.status }
func (e *Engine) Round() int     { return e.round }
func (e *Engine) GameID() string { return e.id }

// FullState copies every field of the session.
func (e *Engine) FullState() FullState {
	fs := FullState{
		GameID:         e.id,
		Status:         e.status,
		Teams:          make([]Team, 0, len(e.joined)),
		Undercover:     e.undercover,
		UndercoverWord: e.undercoverWord,
		CivilianWord:   e.civilianWord,
		Round:          e.round,
		Order:          slices.Clone(e.speakOrder),
		Eliminated:     slices.Clone(e.eliminated),
		Scores:         maps.Clone(e.scores),
		Descriptions:   make(map[int][]Description, len(e.descriptions)),
		Votes:          make(map[int]map[string]string, len(e.votes)),
		Reports:        slices.Clone(e.reports),
	}
	for _, name := range e.joined {
		t := *e.teams[name]
		t.Eliminated = e.isEliminated(name)
		fs.Teams = append(fs.Teams, t)
	}
	for r, ds := range e.descriptions {
		fs.Descriptions[r] = slices.Clone(ds)
	}
	for r, vs := range e.votes {
		fs.Votes[r] = maps.Clone(vs)
	}
	if e.last != nil {
		o := e.last.clone()
		fs.LastResult = &o
	}
	if !e.phaseStart.IsZero() {
		t := e.phaseStart
		fs.PhaseStartedAt = &t
	}
	return fs
}

// PublicState returns the redacted view. The description order is only shown
// while describing or voting; during DESCRIBING the team whose slot is open
// and the slot's deadline are included.
func (e *Engine) PublicState() PublicState {
	ps := PublicState{
		Status:     e.status,
		Round:      e.round,
		Active:     e.active(),
		Order:      []string{},
		Eliminated: slices.Clone(e.eliminated),
	}
	if e.status == StatusDescribing || e.status == StatusVoting {
		ps.Order = slices.Clone(e.speakOrder)
	}
	if e.status == StatusDescribing {
		elapsed := e.now().Sub(e.phaseStart)
		if slot := int(elapsed / e.slot); elapsed >= 0 && slot < len(e.speakOrder) {
			ps.CurrentSpeaker = e.speakOrder[slot]
			deadline := e.phaseStart.Add(time.Duration(slot+1) * e.slot)
			ps.SlotDeadline = &deadline
		}
	}
	return ps
}

// Descriptions returns the current round's descriptions in submission order.
func (e *Engine) Descriptions() []Description {
	if e.round == 0 {
		return []Description{}
	}
	ds := e.descriptions[e.round]
	if ds == nil {
		return []Description{}
	}
	return slices.Clone(ds)
}

// LastResult returns the most recent voting outcome.
func (e *Engine) LastResult() (Outcome, error) {
	if e.last == nil {
		return Outcome{}, ErrNoResult
	}
	return e.last.clone(), nil
}

// Word returns team's own word once words have been assigned.
func (e *Engine) Word(team string) (string, error) {
	t, ok := e.teams[team]
	if !ok || t.Word == "" {
		return "", ErrWordNotFound
	}
	return t.Word, nil
}

// Teams lists registered teams in registration order.
func (e *Engine) Teams() []TeamSummary {
	out := make([]TeamSummary, 0, len(e.joined))
	for _, name := range e.joined {
		out = append(out, TeamSummary{
			Name:         name,
			RegisteredAt: e.teams[name].RegisteredAt,
			Eliminated:   e.isEliminated(name),
		})
	}
	return out
}

// ArchiveRecord returns the summary of a finished game. ok is false until the
// game has ended.
func (e *Engine) ArchiveRecord() (rec Record, ok bool) {
	if e.status != StatusGameEnd {
		return Record{}, false
	}
	winner := WinnerNone
	if e.last != nil {
		winner = e.last.Winner
	}
	return Record{
		GameID:         e.id,
		EndedAt:        e.endedAt,
		Winner:         winner,
		Rounds:         e.round,
		Undercover:     e.undercover,
		UndercoverWord: e.undercoverWord,
		CivilianWord:   e.civilianWord,
		Scores:         maps.Clone(e.scores),
		Eliminated:     slices.Clone(e.eliminated),
		Reports:        len(e.reports),
	}, true
}

func (o Outcome) clone() Outcome {
	o.Tally = maps.Clone(o.Tally)
	o.Leaders = slices.Clone(o.Leaders)
	o.Eliminated = slices.Clone(o.Eliminated)
	return o
}
