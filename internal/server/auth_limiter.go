package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	authMaxFailures = 10
	authWindow      = time.Minute
	authBlockFor    = 5 * time.Minute
	authSweepEvery  = 64
)

// authLimiter blocks clients that keep presenting bad bearer tokens.
// Each verification is a bcrypt compare, so repeated failures are throttled
// per remote host.
type authLimiter struct {
	mu         sync.Mutex
	clients    map[string]authClient
	max        int
	window     time.Duration
	blockFor   time.Duration
	staleAfter time.Duration
	ops        int
}

type authClient struct {
	failures     int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

func newAuthLimiter(maxFailures int, window, blockFor time.Duration) *authLimiter {
	if maxFailures <= 0 || window <= 0 || blockFor <= 0 {
		return nil
	}
	staleAfter := 2 * max(window, blockFor)
	return &authLimiter{
		clients:    make(map[string]authClient),
		max:        maxFailures,
		window:     window,
		blockFor:   blockFor,
		staleAfter: max(staleAfter, 10*time.Minute),
	}
}

// Blocked reports whether key is currently locked out.
func (l *authLimiter) Blocked(key string, now time.Time) bool {
	if l == nil || key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	client := l.clients[key]
	client.lastSeen = now
	blocked := now.Before(client.blockedUntil)
	if !blocked && !client.windowStart.IsZero() && now.Sub(client.windowStart) > l.window {
		client.failures = 0
		client.windowStart = time.Time{}
	}
	l.clients[key] = client
	l.sweepLocked(now)
	return blocked
}

// Fail records one rejected token for key.
func (l *authLimiter) Fail(key string, now time.Time) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	client := l.clients[key]
	if client.windowStart.IsZero() || now.Sub(client.windowStart) > l.window {
		client.failures = 0
		client.windowStart = now
	}
	client.failures++
	if client.failures >= l.max {
		client.blockedUntil = now.Add(l.blockFor)
		client.failures = 0
		client.windowStart = time.Time{}
	}
	client.lastSeen = now
	l.clients[key] = client
	l.sweepLocked(now)
}

// Reset forgets key after a successful authentication.
func (l *authLimiter) Reset(key string) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, key)
}

func (l *authLimiter) sweepLocked(now time.Time) {
	l.ops++
	if l.ops%authSweepEvery != 0 {
		return
	}
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.staleAfter {
			delete(l.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
