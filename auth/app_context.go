package auth

import (
	"errors"
	"net/http"

	"github.com/cameronmore/session-gate/sessions"
	"github.com/rs/zerolog/log"
)

const (
	LoginPath   = "/login"
	WelcomePath = "/benvenuto"
	LogoutPath  = "/logout"

	LoginErrorPath  = LoginPath + "?error=1"
	contentTypeHTML = "text/html; charset=UTF-8"
)

// The HTTP side of authentication: login form, login submission, welcome page and logout.
type AuthContext struct {
	Authenticator *Authenticator

	// Secret signs session cookies.
	Secret       string
	CookieSecure bool

	// RememberUser sets the last_user convenience cookie after a successful login.
	RememberUser bool
}

// Returns a new AuthContext given the authenticator and the secret used for cookie signing.
func NewAuthContext(a *Authenticator, secret string, cookieSecure, rememberUser bool) *AuthContext {
	return &AuthContext{
		Authenticator: a,
		Secret:        secret,
		CookieSecure:  cookieSecure,
		RememberUser:  rememberUser,
	}
}

// Renders the login form. With ?error=1 the form carries the invalid credentials message.
func (ac *AuthContext) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := renderLogin(w, r.URL.Query().Get("error") == "1"); err != nil {
		log.Err(err).Msg("rendering login page")
	}
}

// Handles the login form submission.
//
// The expected request is form encoded with the fields username and password. Failed attempts are redirected
// back to the form with ?error=1; they are never reported as errors.
func (ac *AuthContext) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, LoginErrorPath, http.StatusFound)
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	session, err := ac.Authenticator.AttemptLogin(r.Context(), username, password)
	if errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrInvalidCredentials) {
		http.Redirect(w, r, LoginErrorPath, http.StatusFound)
		return
	}
	if err != nil {
		log.Err(err).Str("username", username).Msg("logging in user")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// a fresh id on every login: the session the client arrived with is dropped
	if previous, ok := sessions.VerifyRequestSessionCookie(r, ac.Secret); ok {
		if err := ac.Authenticator.Logout(r.Context(), previous); err != nil {
			log.Err(err).Msg("dropping previous session")
		}
	}

	http.SetCookie(w, sessions.NewSessionCookie(session, ac.Secret, ac.CookieSecure))
	if ac.RememberUser {
		http.SetCookie(w, sessions.LastUserCookie(username, ac.CookieSecure))
	}
	http.Redirect(w, r, WelcomePath, http.StatusFound)
}

// Renders the welcome page for the user RequireSession put on the request.
func (ac *AuthContext) WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := UserFromContext(r.Context())
	if !ok {
		// only reachable when the route is mounted without RequireSession
		log.Error().Str("path", r.URL.Path).Msg("welcome page served without an authenticated user")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := renderWelcome(w, username); err != nil {
		log.Err(err).Msg("rendering welcome page")
	}
}

// Logs out a user by invalidating the session and expiring the cookie, then redirects to the login page. A request
// without a valid session is redirected all the same.
func (ac *AuthContext) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if sessionId, ok := sessions.VerifyRequestSessionCookie(r, ac.Secret); ok {
		if username, ok := ac.Authenticator.CurrentUser(r.Context(), sessionId); ok {
			log.Info().Str("username", username).Msg("logout")
		}
		if err := ac.Authenticator.Logout(r.Context(), sessionId); err != nil {
			log.Err(err).Msg("deleting session on logout")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	if _, err := r.Cookie(sessions.SessionCookieName); err == nil {
		http.SetCookie(w, sessions.ExpiredSessionCookie(ac.CookieSecure))
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}
