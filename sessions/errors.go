package sessions

import "errors"

var ErrSignedSessionIdIncorrectLength = errors.New("the signed session id does not have exactly two parts")

var ErrInvalidSessionSignature = errors.New("the signed session id had an invalid signature")

var ErrSessionNotFound = errors.New("the session was not found")

var ErrSessionExpired = errors.New("the session has expired")

var ErrEmptySessionId = errors.New("a session id is required")
