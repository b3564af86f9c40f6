package auth_test

import (
	"context"
	"testing"

	"github.com/cameronmore/session-gate/auth"
	"github.com/cameronmore/session-gate/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAttemptLoginSucceedsForEveryRegisteredUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	for username, password := range testUsers {
		s, err := f.authenticator.AttemptLogin(ctx, username, password)
		require.NoError(t, err, username)
		assert.NotEmpty(t, s.Id)
		assert.WithinDuration(t, s.CreatedAt.Add(testTTL), s.ExpiresAt, 0)

		got, ok := f.authenticator.CurrentUser(ctx, s.Id)
		require.True(t, ok, username)
		assert.Equal(t, username, got)
	}
	assert.Equal(t, len(testUsers), f.store.Len())
}

func TestAttemptLoginRejectsBadCredentials(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong"},
		{"other user's password", "bob", "1234"},
		{"unknown user", "carol", "1234"},
		{"case sensitive", "Alice", "1234"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			_, err := f.authenticator.AttemptLogin(context.Background(), tc.username, tc.password)
			require.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.Equal(t, 0, f.store.Len(), "no session is created")
		})
	}
}

func TestAttemptLoginRequiresBothFields(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.authenticator.AttemptLogin(ctx, "", "1234")
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)

	_, err = f.authenticator.AttemptLogin(ctx, "alice", "")
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)

	assert.Equal(t, 0, f.store.Len())
}

func TestAttemptLoginCreatesDistinctSessions(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first, err := f.authenticator.AttemptLogin(ctx, "alice", "1234")
	require.NoError(t, err)
	second, err := f.authenticator.AttemptLogin(ctx, "alice", "1234")
	require.NoError(t, err)

	assert.NotEqual(t, first.Id, second.Id)
}

func TestAttemptLoginReportsStoreFailure(t *testing.T) {
	creds, err := auth.NewMemoryCredentialStore(testUsers, bcrypt.MinCost)
	require.NoError(t, err)
	a := auth.NewAuthenticator(creds, failingStore{}, testTTL)

	_, err = a.AttemptLogin(context.Background(), "alice", "1234")
	require.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogoutClearsCurrentUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	s, err := f.authenticator.AttemptLogin(ctx, "alice", "1234")
	require.NoError(t, err)

	require.NoError(t, f.authenticator.Logout(ctx, s.Id))
	_, ok := f.authenticator.CurrentUser(ctx, s.Id)
	assert.False(t, ok)

	// again, and for ids that never existed
	require.NoError(t, f.authenticator.Logout(ctx, s.Id))
	require.NoError(t, f.authenticator.Logout(ctx, sessions.NewSessionId()))
	require.NoError(t, f.authenticator.Logout(ctx, ""))

	_, ok = f.authenticator.CurrentUser(ctx, s.Id)
	assert.False(t, ok)
}

func TestCurrentUserOnUnauthenticatedSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	anonymous := sessions.Session{Id: sessions.NewSessionId(), Attributes: map[string]string{"theme": "dark"}}
	require.NoError(t, f.store.SaveSession(ctx, anonymous))

	u, ok := f.authenticator.CurrentUser(ctx, anonymous.Id)
	assert.False(t, ok)
	assert.Empty(t, u)

	_, ok = f.authenticator.CurrentUser(ctx, sessions.NewSessionId())
	assert.False(t, ok, "no session at all")

	_, ok = f.authenticator.CurrentUser(ctx, "")
	assert.False(t, ok)
}

func TestCurrentUserTreatsStoreErrorsAsAnonymous(t *testing.T) {
	creds, err := auth.NewMemoryCredentialStore(testUsers, bcrypt.MinCost)
	require.NoError(t, err)
	a := auth.NewAuthenticator(creds, failingStore{}, testTTL)

	_, ok := a.CurrentUser(context.Background(), sessions.NewSessionId())
	assert.False(t, ok)
}
