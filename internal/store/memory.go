// internal/store/memory.go
//
// In-memory owner of the single game session.
// The engine itself does no locking; every read and write of the session goes
// through Session.Do, which is the only critical section in the process.
//
// Characteristics:
//   - One sync.Mutex: at most one operation in flight, reads included.
//   - engine.Tick runs before each operation, so time-based transitions become
//     visible on the next call of any kind.
//   - A panic inside the critical section is recovered, logged, and turned into
//     ErrInternal; the deferred unlock always runs.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/undercover/internal/game"
)

// ErrInternal reports a fault recovered inside the critical section.
var ErrInternal = errors.New("internal error")

// Store is the guarded-access interface the request layer depends on.
type Store interface {
	// Do runs fn with exclusive access to the engine. ticked reports whether
	// the lazy DESCRIBING -> VOTING transition fired before fn ran.
	Do(ctx context.Context, fn func(e *game.Engine) error) (ticked bool, err error)
}

// Session is the memory-backed Store.
type Session struct {
	mu  sync.Mutex // guards eng
	eng *game.Engine
}

// NewSession wraps eng. The caller must not touch eng afterwards.
func NewSession(eng *game.Engine) *Session {
	return &Session{eng: eng}
}

// Do locks the session, applies pending time-based transitions, and runs fn.
func (s *Session) Do(ctx context.Context, fn func(e *game.Engine) error) (ticked bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("recovered panic in game session")
			err = ErrInternal
		}
	}()

	ticked = s.eng.Tick()
	return ticked, fn(s.eng)
}
