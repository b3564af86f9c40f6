package auth

import (
	"context"
	"net/http"

	"github.com/cameronmore/session-gate/sessions"
	"github.com/rs/zerolog/log"
)

type userContextKey struct{}

// UserFromContext returns the username RequireSession stored on the request.
func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userContextKey{}).(string)
	return u, ok && u != ""
}

func withUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userContextKey{}, username)
}

// RequireSession lets a request through only when its session cookie names an authenticated
// session. Anything else (no cookie, bad signature, unknown or expired session, store error)
// is redirected to the login page before next runs. It never creates a session.
func (ac *AuthContext) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionId, isValid := sessions.VerifyRequestSessionCookie(r, ac.Secret)
		if !isValid {
			ac.redirectToLogin(w, r)
			return
		}

		username, ok := ac.Authenticator.CurrentUser(r.Context(), sessionId)
		if !ok {
			ac.redirectToLogin(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), username)))
	})
}

func (ac *AuthContext) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	log.Debug().Str("path", r.URL.Path).Msg("unauthenticated request redirected to login")
	http.Redirect(w, r, LoginPath, http.StatusFound)
}
