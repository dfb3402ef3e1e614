// internal/client/client.go
//
// Go client for the undercover HTTP API.
// Responsibilities:
//   - Typed calls for every team endpoint (register, status, word, describe,
//     descriptions, vote, result, report).
//   - Host calls (start, round, process, state, reset) when an admin token is set.
//   - Decoding {"error","message"} bodies into *APIError.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robalobadob/undercover/internal/game"
	"github.com/robalobadob/undercover/internal/hostauth"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    // HTTP status
	Code    string // machine-readable code, e.g. "outside_slot"
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code game.Code) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == string(code)
}

// Client talks to one server.
type Client struct {
	base       string
	hc         *http.Client
	adminToken string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithAdminToken enables host calls.
func WithAdminToken(tok string) Option { return func(c *Client) { c.adminToken = tok } }

// New returns a client for baseURL (e.g. http://127.0.0.1:5000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, host bool) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if host {
		if c.adminToken == "" {
			return errors.New("client: admin token not configured")
		}
		req.Header.Set(hostauth.HeaderAdminToken, c.adminToken)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		ae := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			ae.Code, ae.Message = eb.Error, eb.Message
		}
		if ae.Code == "" {
			ae.Code = http.StatusText(resp.StatusCode)
		}
		return ae
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ------------------------------ team calls ---------------------------------

// RegisterResult answers Register.
type RegisterResult struct {
	Team       string `json:"team"`
	TotalTeams int    `json:"total_teams"`
}

func (c *Client) Register(ctx context.Context, team string) (RegisterResult, error) {
	var out RegisterResult
	err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{"team": team}, &out, false)
	return out, err
}

func (c *Client) Teams(ctx context.Context) ([]game.TeamSummary, error) {
	var out struct {
		Teams []game.TeamSummary `json:"teams"`
	}
	err := c.do(ctx, http.MethodGet, "/api/teams", nil, &out, false)
	return out.Teams, err
}

func (c *Client) Status(ctx context.Context) (game.PublicState, error) {
	var out game.PublicState
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out, false)
	return out, err
}

// Word returns the team's own word.
func (c *Client) Word(ctx context.Context, team string) (string, error) {
	var out struct {
		Word string `json:"word"`
	}
	err := c.do(ctx, http.MethodGet, "/api/word?team="+url.QueryEscape(team), nil, &out, false)
	return out.Word, err
}

func (c *Client) Describe(ctx context.Context, team, text string) error {
	return c.do(ctx, http.MethodPost, "/api/describe", map[string]string{"team": team, "text": text}, nil, false)
}

// Descriptions returns the current round number and its descriptions.
func (c *Client) Descriptions(ctx context.Context) (int, []game.Description, error) {
	var out struct {
		Round        int                `json:"round"`
		Descriptions []game.Description `json:"descriptions"`
	}
	err := c.do(ctx, http.MethodGet, "/api/descriptions", nil, &out, false)
	return out.Round, out.Descriptions, err
}

func (c *Client) Vote(ctx context.Context, voter, target string) error {
	return c.do(ctx, http.MethodPost, "/api/vote", map[string]string{"voter": voter, "target": target}, nil, false)
}

// Result returns the last voting outcome; a 404 APIError means none yet.
func (c *Client) Result(ctx context.Context) (game.Outcome, error) {
	var out game.Outcome
	err := c.do(ctx, http.MethodGet, "/api/result", nil, &out, false)
	return out, err
}

func (c *Client) Report(ctx context.Context, team, kind, detail string) (game.Receipt, error) {
	var out game.Receipt
	err := c.do(ctx, http.MethodPost, "/api/report",
		map[string]string{"team": team, "type": kind, "detail": detail}, &out, false)
	return out, err
}

// ------------------------------ host calls ---------------------------------

// StartResult answers StartGame.
type StartResult struct {
	GameID     string               `json:"game_id"`
	Undercover string               `json:"undercover"`
	Roles      map[string]game.Role `json:"roles"`
}

func (c *Client) StartGame(ctx context.Context, undercoverWord, civilianWord string) (StartResult, error) {
	var out StartResult
	err := c.do(ctx, http.MethodPost, "/api/game/start",
		map[string]string{"undercover_word": undercoverWord, "civilian_word": civilianWord}, &out, true)
	return out, err
}

// StartRound returns the new round number and its description order.
func (c *Client) StartRound(ctx context.Context) (int, []string, error) {
	var out struct {
		Round int      `json:"round"`
		Order []string `json:"order"`
	}
	err := c.do(ctx, http.MethodPost, "/api/game/round/start", nil, &out, true)
	return out.Round, out.Order, err
}

func (c *Client) ProcessVotes(ctx context.Context) (game.Outcome, error) {
	var out game.Outcome
	err := c.do(ctx, http.MethodPost, "/api/game/voting/process", nil, &out, true)
	return out, err
}

func (c *Client) FullState(ctx context.Context) (game.FullState, error) {
	var out game.FullState
	err := c.do(ctx, http.MethodGet, "/api/game/state", nil, &out, true)
	return out, err
}

func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/game/reset", nil, nil, true)
}
