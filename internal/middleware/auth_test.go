package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	return signed
}

func TestBearerAuth(t *testing.T) {
	secret := []byte("test-secret")
	m := NewMiddleware(secret)

	var gotUID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID = UID(r.Context())
	})

	token := signToken(t, secret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	m.BearerAuth(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status mismatch: %d", rr.Code)
	}
	if gotUID != "user-1" {
		t.Fatalf("uid mismatch: %q", gotUID)
	}
}

func TestBearerAuthRejects(t *testing.T) {
	secret := []byte("test-secret")
	m := NewMiddleware(secret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not run")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + signToken(t, []byte("other"), jwt.MapClaims{"sub": "user-1"})},
		{"no subject", "Bearer " + signToken(t, secret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
		{"expired", "Bearer " + signToken(t, secret, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			m.BearerAuth(next).ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status mismatch: %d", rr.Code)
			}
		})
	}
}
