package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter hands out one token bucket per client address.
type rateLimiter struct {
	ips map[string]*visitor
	mtx sync.Mutex
	r   rate.Limit
	b   int
	now func() time.Time
}

func newRateLimiter(r rate.Limit, b int) *rateLimiter {
	return &rateLimiter{
		ips: make(map[string]*visitor),
		r:   r,
		b:   b,
		now: time.Now,
	}
}

func (r *rateLimiter) allow(ip string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	now := r.now()
	v, ok := r.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.r, r.b)}
		r.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// prune forgets addresses not seen since before cutoff and returns how many were dropped.
func (r *rateLimiter) prune(cutoff time.Time) int {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	dropped := 0
	for ip, v := range r.ips {
		if v.lastSeen.Before(cutoff) {
			delete(r.ips, ip)
			dropped++
		}
	}
	return dropped
}

func (r *rateLimiter) len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return len(r.ips)
}
