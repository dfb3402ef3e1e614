package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/undercover/internal/game"
)

func TestDoRecoversPanic(t *testing.T) {
	s := NewSession(game.New(game.Options{}))
	_, err := s.Do(context.Background(), func(e *game.Engine) error {
		panic("boom")
	})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	// lock must have been released
	done := make(chan struct{})
	go func() {
		_, _ = s.Do(context.Background(), func(e *game.Engine) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session still locked after panic")
	}
}

func TestDoCancelledContext(t *testing.T) {
	s := NewSession(game.New(game.Options{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := s.Do(ctx, func(e *game.Engine) error { called = true; return nil })
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected context.Canceled without running fn, got %v (called=%v)", err, called)
	}
}

func TestDoTicksBeforeOperation(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	eng := game.New(game.Options{Now: clock})
	s := NewSession(eng)
	ctx := context.Background()

	_, _ = s.Do(ctx, func(e *game.Engine) error {
		_ = e.Register("alpha")
		_ = e.Register("bravo")
		if err := e.StartGame("pear", "apple"); err != nil {
			return err
		}
		_, err := e.StartRound()
		return err
	})

	now = now.Add(6*time.Second + time.Millisecond)
	var status game.Status
	ticked, err := s.Do(ctx, func(e *game.Engine) error {
		status = e.PublicState().Status
		return nil
	})
	if err != nil || !ticked || status != game.StatusVoting {
		t.Fatalf("expected lazy transition to voting, got ticked=%v status=%s err=%v", ticked, status, err)
	}
}

func TestDoSerializesWriters(t *testing.T) {
	s := NewSession(game.New(game.Options{}))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Do(ctx, func(e *game.Engine) error {
				return e.Register(fmt.Sprintf("team-%d", i))
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else if !errors.Is(err, game.ErrGameFull) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	var teams int
	_, _ = s.Do(ctx, func(e *game.Engine) error { teams = len(e.Teams()); return nil })
	if ok != 5 || teams != 5 {
		t.Fatalf("expected exactly 5 registrations, got ok=%d teams=%d", ok, teams)
	}
}
