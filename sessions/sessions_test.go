package sessions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSignAndVerifySessionId(t *testing.T) {
	id := NewSessionId()
	signed := SignSessionId(id, testSecret)

	require.True(t, strings.HasPrefix(signed, string(id)+"."))

	got, err := VerifySessionId(signed, testSecret)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, id, SessionIdFromString(got.String()))
}

func TestVerifySessionIdRejectsWrongSecret(t *testing.T) {
	signed := SignSessionId(NewSessionId(), testSecret)

	_, err := VerifySessionId(signed, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidSessionSignature)
}

func TestVerifySessionIdRejectsTamperedId(t *testing.T) {
	signed := SignSessionId(NewSessionId(), testSecret)
	_, sig, _ := strings.Cut(signed, ".")

	_, err := VerifySessionId(string(NewSessionId())+"."+sig, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSessionSignature)
}

func TestVerifySessionIdRejectsMalformedValues(t *testing.T) {
	for _, value := range []string{"", "no-dot", "a.b.c", ".sig", "id."} {
		_, err := VerifySessionId(value, testSecret)
		assert.ErrorIs(t, err, ErrSignedSessionIdIncorrectLength, value)
	}

	_, err := VerifySessionId("id.!!!not-base64!!!", testSecret)
	assert.ErrorIs(t, err, ErrInvalidSessionSignature)
}

func TestVerifyRequestSessionCookie(t *testing.T) {
	id := NewSessionId()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := VerifyRequestSessionCookie(r, testSecret)
	assert.False(t, ok, "no cookie")

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: SignSessionId(id, testSecret)})
	got, ok := VerifyRequestSessionCookie(r, testSecret)
	require.True(t, ok)
	assert.Equal(t, id, got)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: SignSessionId(id, "forged")})
	_, ok = VerifyRequestSessionCookie(r, testSecret)
	assert.False(t, ok, "forged cookie")
}

func TestSessionUser(t *testing.T) {
	_, ok := Session{}.User()
	assert.False(t, ok)

	_, ok = Session{Attributes: map[string]string{"theme": "dark"}}.User()
	assert.False(t, ok)

	u, ok := Session{Attributes: map[string]string{UserAttribute: "alice"}}.User()
	require.True(t, ok)
	assert.Equal(t, "alice", u)
}

func TestCookies(t *testing.T) {
	s := Session{Id: NewSessionId()}
	c := NewSessionCookie(s, testSecret, true)
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	id, err := VerifySessionId(c.Value, testSecret)
	require.NoError(t, err)
	assert.Equal(t, s.Id, id)

	expired := ExpiredSessionCookie(false)
	assert.Equal(t, -1, expired.MaxAge)
	assert.Empty(t, expired.Value)

	last := LastUserCookie("bob", false)
	assert.Equal(t, "bob", last.Value)
	assert.Equal(t, 30*24*60*60, last.MaxAge)
}
