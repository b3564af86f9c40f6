package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cameronmore/session-gate/sessions"
	"github.com/rs/zerolog/log"
)

// Authenticator moves a session between anonymous and authenticated. It keeps no state of its
// own between attempts: there is no lockout or attempt counting here.
type Authenticator struct {
	credentials CredentialStore
	store       sessions.SessionStore
	ttl         time.Duration
	now         func() time.Time
}

func NewAuthenticator(credentials CredentialStore, store sessions.SessionStore, ttl time.Duration) *Authenticator {
	return &Authenticator{
		credentials: credentials,
		store:       store,
		ttl:         ttl,
		now:         time.Now,
	}
}

// AttemptLogin checks the credentials and, on a match, saves a new session bound to username.
// Nothing is written to the store when it fails.
func (a *Authenticator) AttemptLogin(ctx context.Context, username, password string) (sessions.Session, error) {
	if username == "" || password == "" {
		return sessions.Session{}, ErrMissingCredentials
	}

	u, ok := a.credentials.Verify(username, password)
	if !ok {
		log.Info().Str("username", username).Msg("login rejected")
		return sessions.Session{}, ErrInvalidCredentials
	}

	now := a.now()
	s := sessions.Session{
		Id:         sessions.NewSessionId(),
		Attributes: map[string]string{sessions.UserAttribute: u.Username},
		CreatedAt:  now,
		ExpiresAt:  now.Add(a.ttl),
	}
	if err := a.store.SaveSession(ctx, s); err != nil {
		return sessions.Session{}, fmt.Errorf("saving session for %s: %w", username, err)
	}

	log.Info().Str("username", u.Username).Str("user_id", u.UserId).Msg("login succeeded")
	return s, nil
}

// Logout invalidates the session. An unknown or empty id is a no-op.
func (a *Authenticator) Logout(ctx context.Context, id sessions.SessionId) error {
	if id == "" {
		return nil
	}
	if err := a.store.DeleteSessionById(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CurrentUser returns the user bound to the session. Every failure, store errors included, reads as "nobody".
func (a *Authenticator) CurrentUser(ctx context.Context, id sessions.SessionId) (string, bool) {
	if id == "" {
		return "", false
	}
	s, err := a.store.LoadSessionById(ctx, id)
	if err != nil {
		if !errors.Is(err, sessions.ErrSessionNotFound) && !errors.Is(err, sessions.ErrSessionExpired) {
			log.Err(err).Msg("loading session")
		}
		return "", false
	}
	return s.User()
}
