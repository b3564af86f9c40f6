package sessions

import (
	"context"
	"time"
)

// The session attribute that marks a session as authenticated. Only the authenticator sets it.
const UserAttribute = "user"

// A user record from the credential table. Records are built once at startup and never change.
type User struct {
	Username       string
	UserId         string
	HashedPassword string
}

type SessionId string

func SessionIdFromString(s string) SessionId {
	return SessionId(s)
}

func (id SessionId) String() string {
	return string(id)
}

// Server-held state for one client, keyed by an opaque id carried in a signed cookie.
type Session struct {
	Id         SessionId
	Attributes map[string]string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Returns the authenticated username, or false when the session was never authenticated.
func (s Session) User() (string, bool) {
	if s.Attributes == nil {
		return "", false
	}
	u, ok := s.Attributes[UserAttribute]
	if !ok || u == "" {
		return "", false
	}
	return u, true
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// A copy whose attribute map is not shared with s.
func (s Session) Clone() Session {
	c := s
	if s.Attributes != nil {
		c.Attributes = make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}

// SessionStore holds sessions for the lifetime of the process.
//
// LoadSessionById returns ErrSessionNotFound for unknown ids and ErrSessionExpired (after
// removing the session) for expired ones. DeleteSessionById is idempotent.
type SessionStore interface {
	SaveSession(ctx context.Context, s Session) error
	LoadSessionById(ctx context.Context, id SessionId) (Session, error)
	DeleteSessionById(ctx context.Context, id SessionId) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
