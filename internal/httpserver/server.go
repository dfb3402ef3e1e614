// internal/httpserver/server.go
//
// HTTP server wiring for the undercover game.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints used by team programs: register, status, word,
//     describe, descriptions, vote, result, report, teams.
//   - Live notifications (GET /api/events) and the join QR code.
//   - Host endpoints (see routes_host.go), guarded by hostauth.
//   - Mapping engine errors onto HTTP status codes.
//
// Notes:
//   - Every engine call goes through store.Store.Do; nothing here touches the
//     engine outside that critical section.
//   - After each successful mutation a small event is broadcast on the hub.
//   - Request bodies accept the legacy field names (group_name, group_id,
//     voter_group, target_group, description) next to the current ones.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/robalobadob/undercover/internal/archive"
	"github.com/robalobadob/undercover/internal/events"
	"github.com/robalobadob/undercover/internal/game"
	"github.com/robalobadob/undercover/internal/hostauth"
	"github.com/robalobadob/undercover/internal/store"
)

// Config carries the request-layer settings.
type Config struct {
	ClientOrigin string        // CORS origin; "*" or empty allows any
	PublicURL    string        // join URL for the QR code; derived from the request when empty
	WordSalt     string        // salt for date-based word suggestions
	Timeout      time.Duration // per-request handler budget
}

// Server bundles the router, the guarded session, and its collaborators.
type Server struct {
	r       *chi.Mux
	store   store.Store
	hub     *events.Hub
	archive archive.Archive
	guard   *hostauth.Guard
	cfg     Config
	now     func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
// A nil archive disables history.
func New(st store.Store, hub *events.Hub, arc archive.Archive, guard *hostauth.Guard, cfg Config) *Server {
	if arc == nil {
		arc = archive.Nop{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), store: st, hub: hub, archive: arc, guard: guard, cfg: cfg, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)        // add X-Request-ID
	s.r.Use(chimw.RealIP)           // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)        // recover from panics
	s.r.Use(jsonContentType)        // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin)) // single-origin or open CORS

	// websocket connections outlive the handler timeout
	s.r.Get("/api/events", s.hub.ServeWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Timeout)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "undercover",
				"endpoints": []string{"/health", "/api/register", "/api/status", "/api/events", "/api/game/*"},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})

		// --- team endpoints ---
		r.Route("/api", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Get("/teams", s.handleTeams)
			r.Get("/groups", s.handleTeams)
			r.Get("/status", s.handleStatus)
			r.Get("/word", s.handleWord)
			r.Post("/describe", s.handleDescribe)
			r.Get("/descriptions", s.handleDescriptions)
			r.Post("/vote", s.handleVote)
			r.Get("/result", s.handleResult)
			r.Post("/report", s.handleReport)
			r.Get("/join/qr", s.handleJoinQR)
			r.Post("/host/login", s.handleHostLogin)

			s.mountHost(r)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// ServeHTTP lets the Server be mounted on an http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables CORS for origin. "*" (or empty) allows any origin without
// credentials; a concrete origin also allows credentials.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+hostauth.HeaderAdminToken)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusFor maps an engine error kind onto an HTTP status.
func statusFor(k game.Kind) int {
	switch k {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindPrecondition, game.KindCapacity, game.KindIncomplete:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var ge *game.Error
	switch {
	case errors.As(err, &ge):
		writeJSON(w, statusFor(ge.Kind), errorBody{Error: string(ge.Code), Message: ge.Message})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable"})
	default:
		if !errors.Is(err, store.ErrInternal) {
			log.Error().Err(err).Msg("unexpected error")
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
	}
}

func badJSON(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json"})
}

// decode reads an optional JSON body; an empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// first returns the first non-empty trimmed value.
func first(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// do runs fn inside the session and broadcasts evType on success. An empty
// evType marks a read. A lazy DESCRIBING -> VOTING flip is broadcast too.
func (s *Server) do(w http.ResponseWriter, r *http.Request, evType string, fn func(e *game.Engine) (any, error)) (any, bool) {
	var (
		out   any
		ev    events.Event
		round int
	)
	ticked, err := s.store.Do(r.Context(), func(e *game.Engine) error {
		round = e.Round()
		v, err := fn(e)
		if err != nil {
			return err
		}
		out = v
		ev = events.Event{Type: evType, Status: e.Status().String(), Round: e.Round()}
		return nil
	})
	if ticked {
		log.Info().Int("round", round).Msg("describing window closed, voting open")
		s.hub.Publish(events.Event{Type: "voting_started", Status: game.StatusVoting.String(), Round: round})
	}
	if err != nil {
		var ge *game.Error
		if errors.As(err, &ge) {
			log.Debug().Str("code", string(ge.Code)).Str("path", r.URL.Path).Msg("rejected")
		}
		writeError(w, err)
		return nil, false
	}
	if evType != "" {
		s.hub.Publish(ev)
	}
	return out, true
}

// ------------------------------ TEAMS --------------------------------------

// teamReq covers register/report bodies.
type teamReq struct {
	Team      string `json:"team"`
	GroupName string `json:"group_name"`
	GroupID   string `json:"group_id"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req teamReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w)
		return
	}
	name := first(req.Team, req.GroupName, req.GroupID)
	out, ok := s.do(w, r, "team_registered", func(e *game.Engine) (any, error) {
		if err := e.Register(name); err != nil {
			return nil, err
		}
		return map[string]any{"team": name, "total_teams": len(e.Teams())}, nil
	})
	if !ok {
		return
	}
	log.Info().Str("team", name).Msg("team registered")
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	out, ok := s.do(w, r, "", func(e *game.Engine) (any, error) {
		teams := e.Teams()
		return map[string]any{"teams": teams, "total": len(teams)}, nil
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	out, ok := s.do(w, r, "", func(e *game.Engine) (any, error) {
		return e.PublicState(), nil
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	team := first(q.Get("team"), q.Get("group_name"))
	if team == "" {
		writeError(w, game.ErrEmptyName)
		return
	}
	out, ok := s.do(w, r, "", func(e *game.Engine) (any, error) {
		word, err := e.Word(team)
		if err != nil {
			return nil, err
		}
		return map[string]string{"team": team, "word": word}, nil
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

type describeReq struct {
	Team        string `json:"team"`
	GroupName   string `json:"group_name"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req describeReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w)
		return
	}
	team := first(req.Team, req.GroupName)
	text := first(req.Text, req.Description)
	out, ok := s.do(w, r, "description_submitted", func(e *game.Engine) (any, error) {
		if err := e.SubmitDescription(team, text); err != nil {
			return nil, err
		}
		return map[string]any{"ok": true, "round": e.Round(), "status": e.Status()}, nil
	})
	if !ok {
		return
	}
	log.Info().Str("team", team).Msg("description submitted")
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDescriptions(w http.ResponseWriter, r *http.Request) {
	out, ok := s.do(w, r, "", func(e *game.Engine) (any, error) {
		return map[string]any{"round": e.Round(), "descriptions": e.Descriptions()}, nil
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

type voteReq struct {
	Voter       string `json:"voter"`
	VoterGroup  string `json:"voter_group"`
	Target      string `json:"target"`
	TargetGroup string `json:"target_group"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w)
		return
	}
	voter := first(req.Voter, req.VoterGroup)
	target := first(req.Target, req.TargetGroup)
	out, ok := s.do(w, r, "vote_submitted", func(e *game.Engine) (any, error) {
		if err := e.SubmitVote(voter, target); err != nil {
			return nil, err
		}
		return map[string]any{"ok": true, "round": e.Round()}, nil
	})
	if !ok {
		return
	}
	log.Info().Str("voter", voter).Str("target", target).Msg("vote submitted")
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	out, ok := s.do(w, r, "", func(e *game.Engine) (any, error) {
		return e.LastResult()
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

type reportReq struct {
	teamReq
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportReq
	if err := decode(w, r, &req); err != nil {
		badJSON(w)
		return
	}
	team := first(req.Team, req.GroupName, req.GroupID)
	out, ok := s.do(w, r, "report_filed", func(e *game.Engine) (any, error) {
		return e.AddReport(team, req.Type, req.Detail)
	})
	if !ok {
		return
	}
	log.Warn().Str("team", team).Str("type", req.Type).Msg("report filed")
	writeJSON(w, http.StatusOK, out)
}

// handleJoinQR renders the join URL as a PNG QR code (?size=, 64..1024).
func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 1024 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_size", Message: "size must be 64..1024"})
			return
		}
		size = n
	}

	png, err := qrcode.Encode(s.joinURL(r), qrcode.Medium, size)
	if err != nil {
		log.Error().Err(err).Msg("encode qr")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) joinURL(r *http.Request) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
