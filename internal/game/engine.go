// internal/game/engine.go
//
// Core engine for a single "find the undercover" session.
// Responsibilities:
//   - Register teams (at most MaxTeams, unique names).
//   - Start a game: pick the undercover team, hand out words and roles.
//   - Run rounds: randomized description order, per-team timed slots,
//     one vote per active team.
//   - Settle votes (see scoring.go) and score the game when it ends.
//
// Notes:
//   - The engine does no locking and no I/O. Callers serialize access
//     (internal/store) and decide when time-based transitions fire by calling
//     Tick.
//   - Randomness and the clock are injected through Options so tests can pin
//     the undercover pick, the round order, and elapsed time.
//   - Every operation either applies fully or returns an *Error and leaves the
//     session untouched.
package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSlotTimeout = 3 * time.Second
	DefaultMaxTeams    = 5
)

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	Rand        *rand.Rand
	Now         func() time.Time
	SlotTimeout time.Duration // per-team description window
	MaxTeams    int
}

// Engine holds the whole session. It is not safe for concurrent use.
type Engine struct {
	rng      *rand.Rand
	now      func() time.Time
	slot     time.Duration
	maxTeams int

	id             string
	status         Status
	teams          map[string]*Team
	joined         []string // registration order
	undercover     string
	undercoverWord string
	civilianWord   string
	round          int
	speakOrder     []string
	descriptions   map[int][]Description
	votes          map[int]map[string]string
	eliminated     []string
	scores         map[string]int
	reports        []Report
	last           *Outcome
	phaseStart     time.Time
	endedAt        time.Time
}

// New constructs an engine in the WAITING state.
func New(opts Options) *Engine {
	e := &Engine{
		rng:      opts.Rand,
		now:      opts.Now,
		slot:     opts.SlotTimeout,
		maxTeams: opts.MaxTeams,
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(cryptoSeed()))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.slot <= 0 {
		e.slot = DefaultSlotTimeout
	}
	if e.maxTeams <= 0 || e.maxTeams > DefaultMaxTeams {
		e.maxTeams = DefaultMaxTeams
	}
	e.Reset()
	return e
}

// Reset clears all session state back to WAITING. Options survive.
func (e *Engine) Reset() {
	e.id = ""
	e.status = StatusWaiting
	e.teams = make(map[string]*Team)
	e.joined = []string{}
	e.undercover = ""
	e.undercoverWord = ""
	e.civilianWord = ""
	e.round = 0
	e.speakOrder = []string{}
	e.descriptions = make(map[int][]Description)
	e.votes = make(map[int]map[string]string)
	e.eliminated = []string{}
	e.scores = make(map[string]int)
	e.reports = []Report{}
	e.last = nil
	e.phaseStart = time.Time{}
	e.endedAt = time.Time{}
}

// Register adds a team. Allowed in any status while there is room; the first
// registration moves WAITING to REGISTERED.
func (e *Engine) Register(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := e.teams[name]; ok {
		return ErrNameTaken
	}
	if len(e.teams) >= e.maxTeams {
		return ErrGameFull
	}
	e.teams[name] = &Team{Name: name, RegisteredAt: e.now()}
	e.joined = append(e.joined, name)
	if e.status == StatusWaiting {
		e.status = StatusRegistered
	}
	return nil
}

// StartGame picks the undercover team uniformly at random and assigns roles
// and words to every registered team.
func (e *Engine) StartGame(undercoverWord, civilianWord string) error {
	undercoverWord = strings.TrimSpace(undercoverWord)
	civilianWord = strings.TrimSpace(civilianWord)
	if undercoverWord == "" || civilianWord == "" {
		return ErrEmptyWord
	}
	if e.status != StatusRegistered {
		return ErrWrongPhase
	}
	if len(e.joined) == 0 {
		return ErrNoTeams
	}

	e.undercover = e.joined[e.rng.Intn(len(e.joined))]
	e.undercoverWord = undercoverWord
	e.civilianWord = civilianWord
	for _, name := range e.joined {
		t := e.teams[name]
		if name == e.undercover {
			t.Role, t.Word = RoleUndercover, undercoverWord
		} else {
			t.Role, t.Word = RoleCivilian, civilianWord
		}
	}

	e.id = uuid.NewString()
	e.round = 1
	e.scores = make(map[string]int, len(e.joined))
	for _, name := range e.joined {
		e.scores[name] = 0
	}
	e.status = StatusWordAssigned
	return nil
}

// StartRound fixes a random description order over the active teams and opens
// the description phase. It returns the order.
func (e *Engine) StartRound() ([]string, error) {
	if e.status != StatusWordAssigned && e.status != StatusRoundEnd {
		return nil, ErrWrongPhase
	}
	active := e.active()
	if len(active) < 2 {
		return nil, ErrNotEnoughTeams
	}

	e.rng.Shuffle(len(active), func(i, j int) { active[i], active[j] = active[j], active[i] })
	e.speakOrder = active
	e.descriptions[e.round] = []Description{}
	e.votes[e.round] = make(map[string]string)
	e.phaseStart = e.now()
	e.status = StatusDescribing
	return slices.Clone(active), nil
}

// SubmitDescription records a team's description. Team i of the order may
// only submit while elapsed time since the phase began is in
// [i*slot, (i+1)*slot). The last expected description opens voting.
func (e *Engine) SubmitDescription(team, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	if e.status != StatusDescribing {
		return ErrWrongPhase
	}
	pos := slices.Index(e.speakOrder, team)
	if pos < 0 {
		if _, ok := e.teams[team]; !ok {
			return ErrUnknownTeam
		}
		return ErrNotInOrder
	}
	if e.isEliminated(team) {
		return ErrEliminated
	}
	for _, d := range e.descriptions[e.round] {
		if d.Team == team {
			return ErrAlreadyDescribed
		}
	}

	now := e.now()
	elapsed := now.Sub(e.phaseStart)
	open := time.Duration(pos) * e.slot
	if elapsed < open || elapsed >= open+e.slot {
		return ErrOutsideSlot
	}

	e.descriptions[e.round] = append(e.descriptions[e.round], Description{Team: team, Text: text, At: now})
	if len(e.descriptions[e.round]) >= len(e.speakersLeft()) {
		e.status = StatusVoting
	}
	return nil
}

// SubmitVote records voter's vote for target in the current round.
func (e *Engine) SubmitVote(voter, target string) error {
	if e.status != StatusVoting {
		return ErrWrongPhase
	}
	if _, ok := e.teams[voter]; !ok {
		return ErrUnknownTeam
	}
	if _, ok := e.teams[target]; !ok {
		return ErrUnknownTeam
	}
	ballots := e.votes[e.round]
	if ballots == nil {
		ballots = make(map[string]string)
		e.votes[e.round] = ballots
	}
	if _, ok := ballots[voter]; ok {
		return ErrAlreadyVoted
	}
	if voter == target {
		return ErrSelfVote
	}
	if e.isEliminated(voter) {
		return ErrEliminated
	}
	if e.isEliminated(target) {
		return ErrTargetEliminated
	}
	ballots[voter] = target
	return nil
}

// ProcessVotes tallies the round once every active team in the description
// order has voted, applies the elimination rules and returns the outcome.
func (e *Engine) ProcessVotes() (Outcome, error) {
	if e.status != StatusVoting {
		return Outcome{}, ErrWrongPhase
	}
	ballots := e.votes[e.round]
	for _, t := range e.speakersLeft() {
		if _, ok := ballots[t]; !ok {
			return Outcome{}, ErrIncompleteVoting
		}
	}
	tally := make(map[string]int)
	for _, target := range ballots {
		tally[target]++
	}
	return e.settle(tally), nil
}

// Tick applies the lazy DESCRIBING -> VOTING transition: it fires once every
// speaker has described, or once every slot has run out. It reports whether
// the status changed.
func (e *Engine) Tick() bool {
	if e.status != StatusDescribing {
		return false
	}
	speakers := e.speakersLeft()
	if len(e.descriptions[e.round]) >= len(speakers) ||
		e.now().Sub(e.phaseStart) > time.Duration(len(speakers))*e.slot {
		e.status = StatusVoting
		return true
	}
	return false
}

// AddReport appends an incident report and returns its receipt.
func (e *Engine) AddReport(team, kind, detail string) (Receipt, error) {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return Receipt{}, ErrEmptyDetail
	}
	if team = strings.TrimSpace(team); team == "" {
		team = "unknown"
	}
	if kind = strings.TrimSpace(kind); kind == "" {
		kind = "general"
	}
	at := e.now()
	r := Report{
		Ticket: fmt.Sprintf("RPT-%s-%03d", at.Format("20060102150405"), len(e.reports)+1),
		Team:   team,
		Type:   kind,
		Detail: detail,
		At:     at,
	}
	e.reports = append(e.reports, r)
	return Receipt{Ticket: r.Ticket, RecordedAt: at}, nil
}

// active returns registered, non-eliminated teams in registration order.
func (e *Engine) active() []string {
	out := make([]string, 0, len(e.joined))
	for _, name := range e.joined {
		if !e.isEliminated(name) {
			out = append(out, name)
		}
	}
	return out
}

// speakersLeft returns the round's description order minus eliminated teams.
func (e *Engine) speakersLeft() []string {
	out := make([]string, 0, len(e.speakOrder))
	for _, name := range e.speakOrder {
		if !e.isEliminated(name) {
			out = append(out, name)
		}
	}
	return out
}

func (e *Engine) isEliminated(name string) bool {
	return slices.Contains(e.eliminated, name)
}

// cryptoSeed seeds the default RNG from crypto/rand.
func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
