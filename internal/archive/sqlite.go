// internal/archive/sqlite.go
//
// SQLite archive of finished games.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Saving one row per finished game plus per-team scores, and listing the
//     most recent games for the host.
//
// The live session is never restored from here; the archive is write-mostly
// history for the host dashboard.

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/undercover/internal/game"
)

// tsLayout is fixed width so ended_at sorts lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore is the SQLite-backed Archive.
type SQLStore struct {
	db *sql.DB
}

// Open opens (and creates if missing) the SQLite file at dsn and applies the
// migrations found in migrations.
func Open(dsn string, migrations fs.FS) (*SQLStore, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// migrate applies every *.sql file of migrations in lexical order, each in its
// own transaction, skipping files already recorded in _migrations.
func migrate(db *sql.DB, migrations fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := fs.ReadFile(migrations, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Save stores a finished game. Saving the same game id twice is a no-op.
func (s *SQLStore) Save(ctx context.Context, rec game.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	winner, _ := rec.Winner.MarshalText()
	res, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO games
            (id, ended_at, winner, rounds, undercover, undercover_word, civilian_word, reports)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GameID, rec.EndedAt.UTC().Format(tsLayout), string(winner), rec.Rounds,
		rec.Undercover, rec.UndercoverWord, rec.CivilianWord, rec.Reports,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for team, score := range rec.Scores {
		out := 0
		if slices.Contains(rec.Eliminated, team) {
			out = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_scores (game_id, team, score, eliminated) VALUES (?, ?, ?, ?)`,
			rec.GameID, team, score, out,
		); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit games, most recently ended first. Eliminated
// teams come back in name order; elimination order is not kept.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]game.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, ended_at, winner, rounds, undercover, undercover_word, civilian_word, reports
        FROM games
        ORDER BY ended_at DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]game.Record, 0, limit)
	for rows.Next() {
		var rec game.Record
		var ended, winner string
		if err := rows.Scan(&rec.GameID, &ended, &winner, &rec.Rounds, &rec.Undercover,
			&rec.UndercoverWord, &rec.CivilianWord, &rec.Reports); err != nil {
			return nil, err
		}
		rec.EndedAt, _ = time.Parse(tsLayout, ended)
		_ = rec.Winner.UnmarshalText([]byte(winner))
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.loadScores(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) loadScores(ctx context.Context, rec *game.Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team, score, eliminated FROM game_scores WHERE game_id=? ORDER BY team`, rec.GameID)
	if err != nil {
		return err
	}
	defer rows.Close()

	rec.Scores = make(map[string]int)
	rec.Eliminated = []string{}
	for rows.Next() {
		var team string
		var score, out int
		if err := rows.Scan(&team, &score, &out); err != nil {
			return err
		}
		rec.Scores[team] = score
		if out == 1 {
			rec.Eliminated = append(rec.Eliminated, team)
		}
	}
	return rows.Err()
}
