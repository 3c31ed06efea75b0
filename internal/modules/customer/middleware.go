package customer

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey struct{}

// TokenParser resolves a bearer token to a customer id.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// customer id on the request context.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if header == "" || raw == header {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "bearer token required"})
				return
			}
			id, err := tokens.ParseToken(raw)
			if err != nil {
				respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		})
	}
}

// IDFromContext returns the authenticated customer id, if any.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
