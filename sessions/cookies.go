package sessions

import (
	"net/http"
	"time"
)

const (
	SessionCookieName  = "session_id"
	LastUserCookieName = "last_user"
	LastUserCookieAge  = 30 * 24 * time.Hour
)

// Builds the session cookie for an already-saved session.
func NewSessionCookie(s Session, secret string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    SignSessionId(s.Id, secret),
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Returns an expired session cookie so the client drops its copy on logout.
func ExpiredSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Remembers the last username that logged in from this browser. It is a convenience only
// and is never consulted when deciding whether a request is authenticated.
func LastUserCookie(username string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     LastUserCookieName,
		Value:    username,
		Path:     "/",
		MaxAge:   int(LastUserCookieAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
