// internal/httpserver/routes_host.go
//
// Host (moderator) routes.
// Exposes, behind hostauth:
//   - POST /api/game/start            → assign roles and words
//   - POST /api/game/round/start      → open a description round
//   - POST /api/game/voting/process   → settle the round's votes
//   - GET  /api/game/state            → full unredacted state
//   - POST /api/game/reset            → back to WAITING
//   - GET  /api/game/words/suggest    → random or date-of-the-day word pair
//   - GET  /api/game/history          → archived games, latest first
//
// POST /api/host/login (public) trades the admin secret for a host token.
// Finished games are archived after the session lock is released; archive
// failures are logged and never reach the caller.

package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/undercover/internal/events"
	"github.com/robalobadob/undercover/internal/game"
	"github.com/robalobadob/undercover/internal/hostauth"
	"github.com/robalobadob/undercover/internal/words"
)

// mountHost registers all /game routes behind the host guard.
func (s *Server) mountHost(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Use(s.guard.Require)
		r.Post("/start", s.handleStartGame)
		r.Post("/round/start", s.handleStartRound)
		r.Post("/voting/process", s.handleProcessVoting)
		r.Get("/state", s.handleFullState)
		r.Post("/reset", s.handleReset)
		r.Get("/words/suggest", s.handleSuggest)
		r.Get("/history", s.handleHistory)
	})
}

// -----------------------------------------------------------------------------
// /host/login

type loginReq struct {
	Secret     string `json:"secret"`
	AdminToken string `json:"admin_token"`
}

type loginRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleHostLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w)
		return
	}
	tok, exp, err := s.guard.Login(first(req.Secret, req.AdminToken))
	if err == hostauth.ErrBadSecret {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("sign host token")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
		return
	}
	log.Info().Str("remote", r.RemoteAddr).Msg("host logged in")
	writeJSON(w, http.StatusOK, loginRes{Token: tok, ExpiresAt: exp})
}

// -----------------------------------------------------------------------------
// /game/start, /game/round/start

type startReq struct {
	UndercoverWord string `json:"undercover_word"`
	CivilianWord   string `json:"civilian_word"`
}

type startRes struct {
	GameID     string               `json:"game_id"`
	Undercover string               `json:"undercover"`
	Roles      map[string]game.Role `json:"roles"`
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w)
		return
	}
	out, ok := s.do(w, r, "game_started", func(e *game.Engine) (any, error) {
		if err := e.StartGame(req.UndercoverWord, req.CivilianWord); err != nil {
			return nil, err
		}
		fs := e.FullState()
		res := startRes{GameID: fs.GameID, Undercover: fs.Undercover, Roles: make(map[string]game.Role, len(fs.Teams))}
		for _, t := range fs.Teams {
			res.Roles[t.Name] = t.Role
		}
		return res, nil
	})
	if !ok {
		return
	}
	res := out.(startRes)
	log.Info().Str("game", res.GameID).Int("teams", len(res.Roles)).Msg("game started")
	writeJSON(w, http.StatusOK, res)
}

type roundRes struct {
	Round int      `json:"round"`
	Order []string `json:"order"`
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	out, ok := s.do(w, r, "round_started", func(e *game.Engine) (any, error) {
		order, err := e.StartRound()
		if err != nil {
			return nil, err
		}
		return roundRes{Round: e.Round(), Order: order}, nil
	})
	if !ok {
		return
	}
	res := out.(roundRes)
	log.Info().Int("round", res.Round).Strs("order", res.Order).Msg("round started")
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /game/voting/process

func (s *Server) handleProcessVoting(w http.ResponseWriter, r *http.Request) {
	var (
		rec   game.Record
		ended bool
	)
	out, ok := s.do(w, r, "voting_processed", func(e *game.Engine) (any, error) {
		res, err := e.ProcessVotes()
		if err != nil {
			return nil, err
		}
		rec, ended = e.ArchiveRecord()
		return res, nil
	})
	if !ok {
		return
	}
	res := out.(game.Outcome)
	log.Info().
		Int("round", res.Round).
		Strs("eliminated", res.Eliminated).
		Bool("ended", res.Ended).
		Msg("votes processed")

	if ended {
		s.hub.Publish(events.Event{Type: "game_ended", Status: game.StatusGameEnd.String(), Round: res.Round})
		s.saveRecord(r.Context(), rec)
	}
	writeJSON(w, http.StatusOK, res)
}

// saveRecord archives a finished game, best effort.
func (s *Server) saveRecord(parent context.Context, rec game.Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
	defer cancel()
	if err := s.archive.Save(ctx, rec); err != nil {
		log.Warn().Err(err).Str("game", rec.GameID).Msg("archive game")
		return
	}
	log.Info().Str("game", rec.GameID).Str("winner", rec.Winner.String()).Msg("game archived")
}

// -----------------------------------------------------------------------------
// /game/state, /game/reset

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	out, ok := s.do(w, r, "", func(e *game.Engine) (any, error) {
		return e.FullState(), nil
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, ok := s.do(w, r, "game_reset", func(e *game.Engine) (any, error) {
		e.Reset()
		return nil, nil
	})
	if !ok {
		return
	}
	log.Info().Msg("game reset")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// -----------------------------------------------------------------------------
// /game/words/suggest, /game/history

type suggestRes struct {
	words.Pair
	Date string `json:"date,omitempty"`
}

// handleSuggest returns a random pair, or the pair of the day for ?date=
// (YYYY-MM-DD, or "today").
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("date")
	if q == "" {
		writeJSON(w, http.StatusOK, suggestRes{Pair: words.RandomPair()})
		return
	}

	day := s.now().UTC()
	if q != "today" {
		t, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_date", Message: "date must be YYYY-MM-DD"})
			return
		}
		day = t
	}
	writeJSON(w, http.StatusOK, suggestRes{Pair: words.DailyPair(day, s.cfg.WordSalt), Date: words.DateKey(day)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_limit", Message: "limit must be 1..100"})
			return
		}
		limit = n
	}
	games, err := s.archive.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list archive")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}
