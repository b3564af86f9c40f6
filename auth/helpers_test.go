package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cameronmore/session-gate/auth"
	"github.com/cameronmore/session-gate/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret = "1234-secret"
	testTTL    = 30 * time.Minute
)

var testUsers = map[string]string{
	"alice": "1234",
	"bob":   "abcd",
}

// testFixture holds the pieces most tests need
type testFixture struct {
	credentials   *auth.MemoryCredentialStore
	store         *sessions.MemorySessionStore
	authenticator *auth.Authenticator
	ac            *auth.AuthContext
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	creds, err := auth.NewMemoryCredentialStore(testUsers, bcrypt.MinCost)
	require.NoError(t, err)
	store := sessions.NewMemorySessionStore()
	a := auth.NewAuthenticator(creds, store, testTTL)

	return &testFixture{
		credentials:   creds,
		store:         store,
		authenticator: a,
		ac:            auth.NewAuthContext(a, testSecret, false, true),
	}
}

var errStoreDown = errors.New("store down")

// failingStore fails every call.
type failingStore struct{}

func (failingStore) SaveSession(context.Context, sessions.Session) error { return errStoreDown }

func (failingStore) LoadSessionById(context.Context, sessions.SessionId) (sessions.Session, error) {
	return sessions.Session{}, errStoreDown
}

func (failingStore) DeleteSessionById(context.Context, sessions.SessionId) error { return errStoreDown }

func (failingStore) PurgeExpired(context.Context, time.Time) (int, error) { return 0, errStoreDown }
