package hostauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	g, err := New(Config{
		AdminToken: "host-secret",
		JWTSecret:  []byte("test-signing-key"),
		TTL:        time.Hour,
		Cost:       bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	return g
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(Config{JWTSecret: []byte("k")}); err == nil {
		t.Fatal("expected error for empty admin token")
	}
	if _, err := New(Config{AdminToken: "x"}); err == nil {
		t.Fatal("expected error for empty jwt secret")
	}
}

func TestCheckSecret(t *testing.T) {
	g := newTestGuard(t)
	if !g.CheckSecret("host-secret") {
		t.Fatal("expected secret to match")
	}
	for _, bad := range []string{"", "host", "host-secret "} {
		if g.CheckSecret(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestLoginAndVerify(t *testing.T) {
	g := newTestGuard(t)
	if _, _, err := g.Login("nope"); err != ErrBadSecret {
		t.Fatalf("expected ErrBadSecret, got %v", err)
	}
	tok, exp, err := g.Login("host-secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	if err := g.Verify(tok); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// expired
	g.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := g.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestVerifyRejectsOtherRoles(t *testing.T) {
	g := newTestGuard(t)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "team",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(g.secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := g.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	other, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": roleHost,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("someone-else"))
	if err := g.Verify(other); err != ErrInvalidToken {
		t.Fatalf("expected foreign signature to fail, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	g := newTestGuard(t)
	tok, _, _ := g.Login("host-secret")
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"none", "", "", http.StatusUnauthorized},
		{"admin header", HeaderAdminToken, "host-secret", http.StatusNoContent},
		{"wrong admin header", HeaderAdminToken, "wrong", http.StatusUnauthorized},
		{"bearer", "Authorization", "Bearer " + tok, http.StatusNoContent},
		{"bad bearer", "Authorization", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/game/start", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
