package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/pulseboard/backend/internal/db"
	apperrors "github.com/pulseboard/backend/internal/errors"
)

type contextKey string

const userContextKey contextKey = "user"

// Middleware resolves the bearer token on every request before the protected
// handler runs, and injects the resolved user into the request context.
// Every failure is the same 401 with a WWW-Authenticate: Bearer challenge.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r)
				return
			}

			user, err := svc.ResolveUser(r.Context(), token)
			if err != nil {
				unauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user set by Middleware, or nil.
func UserFromContext(ctx context.Context) *db.User {
	user, ok := ctx.Value(userContextKey).(*db.User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteError(w, requestID, apperrors.Unauthorized("could not validate credentials"))
}
