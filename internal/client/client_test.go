package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/undercover/internal/events"
	"github.com/robalobadob/undercover/internal/game"
	"github.com/robalobadob/undercover/internal/hostauth"
	"github.com/robalobadob/undercover/internal/httpserver"
	"github.com/robalobadob/undercover/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	guard, err := hostauth.New(hostauth.Config{
		AdminToken: "host-secret",
		JWTSecret:  []byte("k"),
		Cost:       bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	eng := game.New(game.Options{})
	srv := httpserver.New(store.NewSession(eng), events.NewHub(nil), nil, guard, httpserver.Config{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	c := New(ts.URL+"/", WithAdminToken("host-secret"))

	for _, name := range []string{"alpha", "bravo"} {
		res, err := c.Register(ctx, name)
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if res.Team != name {
			t.Fatalf("register echoed %q", res.Team)
		}
	}
	teams, err := c.Teams(ctx)
	if err != nil || len(teams) != 2 {
		t.Fatalf("teams = %v, %v", teams, err)
	}

	start, err := c.StartGame(ctx, "pear", "apple")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.Roles[start.Undercover] != game.RoleUndercover {
		t.Fatalf("unexpected roles %+v", start)
	}
	word, err := c.Word(ctx, start.Undercover)
	if err != nil || word != "pear" {
		t.Fatalf("word = %q, %v", word, err)
	}

	round, order, err := c.StartRound(ctx)
	if err != nil || round != 1 || len(order) != 2 {
		t.Fatalf("round = %d %v %v", round, order, err)
	}
	if err := c.Describe(ctx, order[0], "crunchy"); err != nil {
		t.Fatalf("describe: %v", err)
	}
	// second speaker's slot has not opened yet
	if err := c.Describe(ctx, order[1], "sweet"); !IsCode(err, game.CodeOutsideSlot) {
		t.Fatalf("expected outside_slot, got %v", err)
	}
	r, descs, err := c.Descriptions(ctx)
	if err != nil || r != 1 || len(descs) != 1 {
		t.Fatalf("descriptions = %d %v %v", r, descs, err)
	}

	if _, err := c.Result(ctx); !IsCode(err, game.CodeNoResult) {
		t.Fatalf("expected no_result, got %v", err)
	}

	st, err := c.FullState(ctx)
	if err != nil || st.Status != game.StatusDescribing {
		t.Fatalf("full state = %v, %v", st.Status, err)
	}

	rcpt, err := c.Report(ctx, "alpha", "", "lag")
	if err != nil || rcpt.Ticket == "" {
		t.Fatalf("report = %+v, %v", rcpt, err)
	}

	if err := c.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	ps, err := c.Status(ctx)
	if err != nil || ps.Status != game.StatusWaiting {
		t.Fatalf("status after reset = %v, %v", ps.Status, err)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	c := New(ts.URL)
	err := c.Vote(ctx, "alpha", "bravo")
	ae, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if ae.Status != http.StatusConflict || ae.Code != string(game.CodeWrongPhase) || ae.Message == "" {
		t.Fatalf("unexpected error %+v", ae)
	}

	// host calls need a token
	if _, err := c.FullState(ctx); err == nil {
		t.Fatal("expected error without admin token")
	}
	bad := New(ts.URL, WithAdminToken("nope"), WithHTTPClient(&http.Client{Timeout: time.Second}))
	if err := bad.Reset(ctx); !IsCode(err, "unauthorized") {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
