package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ridgelinevc/portfolio-backend/pkg/logger"
)

type Middleware struct {
	Secret []byte
}

func NewMiddleware(secret []byte) *Middleware {
	return &Middleware{Secret: secret}
}

// context key
type contextKey string

const UIDKey contextKey = "uid"

// BearerAuth verifies the HS256-signed bearer token issued by the identity
// provider and stashes its subject as the caller's user id.
func (m *Middleware) BearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}

		tokenStr := parts[1]

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.Secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		uid, _ := claims["sub"].(string)
		if uid == "" {
			http.Error(w, "token has no subject", http.StatusUnauthorized)
			return
		}

		// Add UID to context and to the request logger
		ctx := context.WithValue(r.Context(), UIDKey, uid)
		_, ctx = logger.With(ctx, "uid", uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to extract UID
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}
