package auth

import (
	"fmt"

	"github.com/cameronmore/session-gate/sessions"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore is the read-only username -> user record table.
type CredentialStore interface {
	// Lookup returns false for an unknown username; it never fails.
	Lookup(username string) (sessions.User, bool)
	// Verify reports whether password belongs to username.
	Verify(username, password string) (sessions.User, bool)
}

// MemoryCredentialStore is populated once and only read afterwards, so concurrent reads need no locking.
type MemoryCredentialStore struct {
	users map[string]sessions.User

	// compared against on a miss so unknown users cost the same as wrong passwords
	dummyHash []byte
}

// Returns a credential store holding a bcrypt hash of every password in users. Each record gets a fresh ULID.
func NewMemoryCredentialStore(users map[string]string, cost int) (*MemoryCredentialStore, error) {
	store := &MemoryCredentialStore{
		users: make(map[string]sessions.User, len(users)),
	}
	for username, password := range users {
		if username == "" || password == "" {
			return nil, fmt.Errorf("user %q: %w", username, ErrMissingCredentials)
		}
		hashed, err := hash(password, cost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %q: %w", username, err)
		}
		store.users[username] = sessions.User{
			Username:       username,
			UserId:         ulid.Make().String(),
			HashedPassword: hashed,
		}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(ulid.Make().String()), cost)
	if err != nil {
		return nil, err
	}
	store.dummyHash = dummy

	return store, nil
}

func (m *MemoryCredentialStore) Lookup(username string) (sessions.User, bool) {
	u, ok := m.users[username]
	return u, ok
}

func (m *MemoryCredentialStore) Verify(username, password string) (sessions.User, bool) {
	u, ok := m.users[username]
	if !ok {
		bcrypt.CompareHashAndPassword(m.dummyHash, []byte(password))
		return sessions.User{}, false
	}
	if !passwordIsEquivalent(password, u.HashedPassword) {
		return sessions.User{}, false
	}
	return u, true
}

func (m *MemoryCredentialStore) Len() int {
	return len(m.users)
}

func hash(password string, cost int) (string, error) {
	bts, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bts), nil
}

func passwordIsEquivalent(password string, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)
