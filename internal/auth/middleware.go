package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CookieName carries the session token for browser screens.
const CookieName = "quickbar_session"

type contextKey string

const sessionContextKey contextKey = "session"

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware attaches the session of a valid token to the request context.
// Requests without one pass through; guarded handlers answer 401 themselves.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				s.Log.WithError(err).Warn("failed to authenticate request")
			}
			next.ServeHTTP(w, r)
			return
		}
		session.Token = token
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}
