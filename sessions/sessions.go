package sessions

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func NewSessionId() SessionId {
	return SessionId(uuid.New().String())
}

func sign(sessionId SessionId, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionId))
	return mac.Sum(nil)
}

// Returns "<id>.<signature>" as stored in the session cookie.
func SignSessionId(sessionId SessionId, secret string) string {
	return fmt.Sprintf("%s.%s", sessionId, base64.URLEncoding.EncodeToString(sign(sessionId, secret)))
}

// verifies a session signature from a given signed string
func VerifySessionId(signedSessionId string, secret string) (SessionId, error) {
	requestSessionId, encodedSignature, err := splitSignedSessionId(signedSessionId)
	if err != nil {
		return "", err
	}
	decodedSignature, err := base64.URLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return "", ErrInvalidSessionSignature
	}

	id := SessionIdFromString(requestSessionId)
	if hmac.Equal(decodedSignature, sign(id, secret)) {
		return id, nil
	}

	return "", ErrInvalidSessionSignature
}

func splitSignedSessionId(signedSessionId string) (string, string, error) {
	parts := strings.Split(signedSessionId, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrSignedSessionIdIncorrectLength
	}
	return parts[0], parts[1], nil
}

// Returns the session id carried by the request's session cookie, along with a helper boolean that is true only
// when the cookie exists and its signature is valid. Nothing is created when the cookie is absent.
func VerifyRequestSessionCookie(r *http.Request, secret string) (SessionId, bool) {
	requestCookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	verifiedSessionId, err := VerifySessionId(requestCookie.Value, secret)
	if err != nil {
		return "", false
	}
	return verifiedSessionId, true
}
