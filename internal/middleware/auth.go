package middleware

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	sessionIDKey
)

// TokenResolver turns a bearer token into the user and session it belongs
// to. *services.AuthService satisfies it.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (userID int64, sid string, err error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user and session ids in the request context.
func RequireAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				reject(w, http.StatusUnauthorized, goerrors.CategoryAuth, "UNAUTHORIZED", "missing bearer token")
				return
			}

			userID, sid, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				var rich *goerrors.Error
				if goerrors.As(err, &rich) && rich.Category == goerrors.CategoryInternal {
					reject(w, http.StatusInternalServerError, goerrors.CategoryInternal, "INTERNAL_ERROR", "failed to verify session")
					return
				}
				reject(w, http.StatusUnauthorized, goerrors.CategoryAuth, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, sid)))
		})
	}
}

// UserID returns the authenticated user id placed by RequireAuth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}

// WithUser returns ctx carrying an authenticated user.
func WithUser(ctx context.Context, userID int64, sid string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, sessionIDKey, sid)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(auth[7:])
	return token, token != ""
}
