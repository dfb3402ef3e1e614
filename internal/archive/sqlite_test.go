package archive

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/robalobadob/undercover/assets"
	"github.com/robalobadob/undercover/internal/game"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	migrations, err := assets.Migrations()
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	s, err := Open(filepath.Join(t.TempDir(), "data", "archive.db"), migrations)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := game.Record{
		GameID:         "g-1",
		EndedAt:        base,
		Winner:         game.WinnerCivilian,
		Rounds:         4,
		Undercover:     "alpha",
		UndercoverWord: "pear",
		CivilianWord:   "apple",
		Scores:         map[string]int{"alpha": 4, "bravo": 4, "charlie": 4},
		Eliminated:     []string{"alpha"},
		Reports:        2,
	}
	second := first
	second.GameID = "g-2"
	second.EndedAt = base.Add(time.Hour)
	second.Winner = game.WinnerUndercover
	second.Scores = map[string]int{"alpha": 8, "bravo": 5}
	second.Eliminated = []string{"bravo"}

	for _, rec := range []game.Record{first, second} {
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.GameID, err)
		}
	}
	// duplicate save is ignored
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("duplicate save: %v", err)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 games, got %d", len(got))
	}
	if got[0].GameID != "g-2" || got[1].GameID != "g-1" {
		t.Fatalf("expected latest first, got %s, %s", got[0].GameID, got[1].GameID)
	}
	if !got[1].EndedAt.Equal(first.EndedAt) || got[1].Winner != game.WinnerCivilian {
		t.Fatalf("unexpected first game %+v", got[1])
	}
	if !reflect.DeepEqual(got[1].Scores, first.Scores) || !reflect.DeepEqual(got[1].Eliminated, first.Eliminated) {
		t.Fatalf("scores/eliminated mismatch: %+v", got[1])
	}
	if got[0].Winner != game.WinnerUndercover || got[0].Scores["alpha"] != 8 {
		t.Fatalf("unexpected second game %+v", got[0])
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	migrations, _ := assets.Migrations()
	if err := migrate(s.db, migrations); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestNop(t *testing.T) {
	var a Archive = Nop{}
	if err := a.Save(context.Background(), game.Record{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	recs, err := a.Recent(context.Background(), 5)
	if err != nil || recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty list, got %v %v", recs, err)
	}
}
