package game

// Code is a machine-readable failure reason.
type Code string

const (
	CodeEmptyName        Code = "empty_name"
	CodeEmptyWord        Code = "empty_word"
	CodeEmptyText        Code = "empty_text"
	CodeEmptyDetail      Code = "empty_detail"
	CodeNameTaken        Code = "name_taken"
	CodeGameFull         Code = "game_full"
	CodeWrongPhase       Code = "wrong_phase"
	CodeNoTeams          Code = "no_teams"
	CodeNotEnoughTeams   Code = "not_enough_teams"
	CodeUnknownTeam      Code = "unknown_team"
	CodeNotInOrder       Code = "not_in_order"
	CodeEliminated       Code = "eliminated"
	CodeAlreadyDescribed Code = "already_described"
	CodeOutsideSlot      Code = "outside_slot"
	CodeAlreadyVoted     Code = "already_voted"
	CodeSelfVote         Code = "self_vote"
	CodeTargetEliminated Code = "target_eliminated"
	CodeIncompleteVoting Code = "incomplete_voting"
	CodeNoResult         Code = "no_result"
	CodeWordNotFound     Code = "word_not_found"
)

// Kind groups codes by how a caller should react.
type Kind uint8

const (
	KindValidation   Kind = iota + 1 // malformed input
	KindPrecondition                 // wrong state or ineligible team
	KindCapacity                     // team cap or duplicate name
	KindIncomplete                   // voting not finished
	KindNotFound                     // nothing to return
)

// Error is the engine's failure type. Every failed operation leaves the
// session untouched.
type Error struct {
	Code    Code
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches by code so callers can test against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newErr(code Code, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, Message: msg}
}

var (
	ErrEmptyName        = newErr(CodeEmptyName, KindValidation, "team name must not be empty")
	ErrEmptyWord        = newErr(CodeEmptyWord, KindValidation, "both words must be provided")
	ErrEmptyText        = newErr(CodeEmptyText, KindValidation, "description must not be empty")
	ErrEmptyDetail      = newErr(CodeEmptyDetail, KindValidation, "report detail must not be empty")
	ErrNameTaken        = newErr(CodeNameTaken, KindCapacity, "team name already registered")
	ErrGameFull         = newErr(CodeGameFull, KindCapacity, "maximum number of teams reached")
	ErrWrongPhase       = newErr(CodeWrongPhase, KindPrecondition, "operation not allowed in the current phase")
	ErrNoTeams          = newErr(CodeNoTeams, KindPrecondition, "no teams registered")
	ErrNotEnoughTeams   = newErr(CodeNotEnoughTeams, KindPrecondition, "at least two active teams are required")
	ErrUnknownTeam      = newErr(CodeUnknownTeam, KindPrecondition, "team is not registered")
	ErrNotInOrder       = newErr(CodeNotInOrder, KindPrecondition, "team is not in this round's description order")
	ErrEliminated       = newErr(CodeEliminated, KindPrecondition, "team has been eliminated")
	ErrAlreadyDescribed = newErr(CodeAlreadyDescribed, KindPrecondition, "team already described this round")
	ErrOutsideSlot      = newErr(CodeOutsideSlot, KindPrecondition, "submission outside the team's time slot")
	ErrAlreadyVoted     = newErr(CodeAlreadyVoted, KindPrecondition, "team already voted this round")
	ErrSelfVote         = newErr(CodeSelfVote, KindPrecondition, "a team cannot vote for itself")
	ErrTargetEliminated = newErr(CodeTargetEliminated, KindPrecondition, "target team has been eliminated")
	ErrIncompleteVoting = newErr(CodeIncompleteVoting, KindIncomplete, "not every active team has voted")
	ErrNoResult         = newErr(CodeNoResult, KindNotFound, "no voting result yet")
	ErrWordNotFound     = newErr(CodeWordNotFound, KindNotFound, "no word assigned to this team")
)
