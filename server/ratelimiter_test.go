package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterPerAddress(t *testing.T) {
	l := newRateLimiter(rate.Every(time.Minute), 2)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "buckets are per address")

	now = now.Add(time.Minute)
	assert.True(t, l.allow("10.0.0.1"), "refilled")
}

func TestRateLimiterPrune(t *testing.T) {
	l := newRateLimiter(rate.Every(time.Minute), 1)
	start := time.Now()
	l.now = func() time.Time { return start }
	l.allow("old")
	l.now = func() time.Time { return start.Add(time.Hour) }
	l.allow("new")

	assert.Equal(t, 1, l.prune(start.Add(time.Minute)))
	assert.Equal(t, 1, l.len())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(r))

	r.RemoteAddr = "192.0.2.8"
	assert.Equal(t, "192.0.2.8", clientIP(r))
}
