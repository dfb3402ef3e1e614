// Package archive keeps a history of finished games.
package archive

import (
	"context"

	"github.com/robalobadob/undercover/internal/game"
)

// Archive stores finished-game records.
// Implementations may be backed by SQLite (sqlite.go) or nothing at all (Nop).
type Archive interface {
	// Save persists a finished game.
	Save(ctx context.Context, rec game.Record) error

	// Recent lists up to limit games, latest first.
	Recent(ctx context.Context, limit int) ([]game.Record, error)
}

// Nop is the archive used when no database is configured.
type Nop struct{}

func (Nop) Save(context.Context, game.Record) error { return nil }

func (Nop) Recent(context.Context, int) ([]game.Record, error) { return []game.Record{}, nil }
