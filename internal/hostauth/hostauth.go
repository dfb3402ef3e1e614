// internal/hostauth/hostauth.go
//
// Host (admin) authentication.
// Responsibilities:
//   - Holding the bcrypt hash of the configured admin secret.
//   - Checking the X-Admin-Token header or a Bearer JWT on host routes.
//   - Issuing short-lived HS256 host tokens after a successful login.
//
// Teams never authenticate; only the host surface is guarded.

package hostauth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HeaderAdminToken carries the raw admin secret.
const HeaderAdminToken = "X-Admin-Token"

const roleHost = "host"

var (
	ErrBadSecret    = errors.New("invalid admin secret")
	ErrInvalidToken = errors.New("invalid token")
)

// Guard verifies host credentials.
type Guard struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Config configures a Guard. Cost 0 means bcrypt.DefaultCost.
type Config struct {
	AdminToken string
	JWTSecret  []byte
	TTL        time.Duration
	Cost       int
}

// New hashes the admin secret and returns a Guard.
func New(cfg Config) (*Guard, error) {
	if cfg.AdminToken == "" {
		return nil, errors.New("admin token must not be empty")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	cost := cfg.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminToken), cost)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Guard{hash: h, secret: cfg.JWTSecret, ttl: ttl, now: time.Now}, nil
}

// CheckSecret reports whether s is the admin secret.
func (g *Guard) CheckSecret(s string) bool {
	if s == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(s)) == nil
}

// Login exchanges the admin secret for a signed host token.
func (g *Guard) Login(secret string) (string, time.Time, error) {
	if !g.CheckSecret(secret) {
		return "", time.Time{}, ErrBadSecret
	}
	now := g.now()
	exp := now.Add(g.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": roleHost,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	})
	ss, err := token.SignedString(g.secret)
	return ss, exp, err
}

// Verify checks a host token's signature, expiry and role.
func (g *Guard) Verify(tokenStr string) error {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != roleHost {
		return ErrInvalidToken
	}
	return nil
}

// Authorized accepts either the admin header or a Bearer host token.
func (g *Guard) Authorized(r *http.Request) bool {
	if t := r.Header.Get(HeaderAdminToken); t != "" {
		return g.CheckSecret(t)
	}
	if tok := bearer(r); tok != "" {
		return g.Verify(tok) == nil
	}
	return false
}

// Require wraps host-only routes.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authorized(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
