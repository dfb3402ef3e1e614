// internal/game/types.go
//
// Core type definitions for the undercover game engine.
// Defines:
//   - Status: the closed set of session states.
//   - Role / Winner: team roles and game winners.
//   - Team, Description, Outcome, Report: the records the engine stores and
//     hands out in snapshots.

package game

import (
	"fmt"
	"time"
)

// Status is the session state. The zero value is StatusWaiting.
type Status uint8

const (
	StatusWaiting Status = iota
	StatusRegistered
	StatusWordAssigned
	StatusDescribing
	StatusVoting
	StatusRoundEnd
	StatusGameEnd
)

var statusNames = [...]string{
	StatusWaiting:      "waiting",
	StatusRegistered:   "registered",
	StatusWordAssigned: "word_assigned",
	StatusDescribing:   "describing",
	StatusVoting:       "voting",
	StatusRoundEnd:     "round_end",
	StatusGameEnd:      "game_end",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalText renders the wire name, so JSON carries "voting" rather than 4.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a wire name back into a Status.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Role is a team's secret assignment.
type Role uint8

const (
	RoleUnset Role = iota
	RoleCivilian
	RoleUndercover
)

func (r Role) String() string {
	switch r {
	case RoleCivilian:
		return "civilian"
	case RoleUndercover:
		return "undercover"
	default:
		return "unset"
	}
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "civilian":
		*r = RoleCivilian
	case "undercover":
		*r = RoleUndercover
	case "unset", "":
		*r = RoleUnset
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}

// Winner names the side that won a finished game.
type Winner uint8

const (
	WinnerNone Winner = iota
	WinnerCivilian
	WinnerUndercover
)

func (w Winner) String() string {
	switch w {
	case WinnerCivilian:
		return "civilian"
	case WinnerUndercover:
		return "undercover"
	default:
		return "none"
	}
}

func (w Winner) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Winner) UnmarshalText(b []byte) error {
	switch string(b) {
	case "civilian":
		*w = WinnerCivilian
	case "undercover":
		*w = WinnerUndercover
	case "none", "":
		*w = WinnerNone
	default:
		return fmt.Errorf("unknown winner %q", b)
	}
	return nil
}

// Team is one registered participant.
type Team struct {
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Word         string    `json:"word"`
	RegisteredAt time.Time `json:"registered_at"`
	Eliminated   bool      `json:"eliminated"`
}

// Description is one entry of a round's description sequence.
type Description struct {
	Team string    `json:"team"`
	Text string    `json:"text"`
	At   time.Time `json:"time"`
}

// Outcome is the result of processing a round's votes.
type Outcome struct {
	Round      int            `json:"round"`
	Tally      map[string]int `json:"vote_count"`
	Leaders    []string       `json:"max_voted"` // sorted
	MaxVotes   int            `json:"max_votes"`
	Eliminated []string       `json:"eliminated"`
	Ended      bool           `json:"game_ended"`
	Winner     Winner         `json:"winner"`
}

// Report is one incident report filed by a team.
type Report struct {
	Ticket string    `json:"ticket"`
	Team   string    `json:"team"`
	Type   string    `json:"type"`
	Detail string    `json:"detail"`
	At     time.Time `json:"time"`
}

// Receipt acknowledges a filed report.
type Receipt struct {
	Ticket     string    `json:"ticket"`
	RecordedAt time.Time `json:"recorded_at"`
}
