package middleware

import (
	"context"
	"net/http"
	"strings"

	"securevault/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// SessionValidator resolves a bearer token to its user.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (models.User, error)
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

func TokenFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Auth rejects requests without a valid session token. The response is the
// same for unknown, revoked and expired tokens.
func Auth(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromHeader(r)
			if token == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			user, err := sessions.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "session invalid", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
