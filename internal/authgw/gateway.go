// Package authgw classifies backend failures as authentication failures
// and fans session-expiry out to interested listeners. It never returns
// errors of its own: it only inspects, matches and dispatches, so it is
// safe to call from any catch site.
package authgw

import (
	"errors"
	"strings"
	"sync"
)

// ErrSessionExpired is the distinguished error raised when a previously
// valid session is rejected mid-use. It is never retried silently;
// callers route it through HandlePossibleSessionError so the portal
// shell can force re-authentication.
var ErrSessionExpired = errors.New("session expired")

// ErrNotAuthenticated is returned by operations that require a current
// identity when none is present.
var ErrNotAuthenticated = errors.New("not authenticated")

// StatusError carries an HTTP status alongside a backend message so the
// classifier can match on codes as well as text.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// authFailureMarkers is the explicit, extensible list of backend
// message fragments recognized as authentication failures. Matching is
// case-insensitive. This is best-effort string matching against a
// service that does not type its errors; keep additions appended here
// rather than scattered through call sites.
var authFailureMarkers = []string{
	"jwt expired",
	"invalid jwt",
	"not authenticated",
	"invalid authentication",
	"refresh token not found",
	"invalid refresh token",
	"user not found",
	"token expired",
	"session expired",
}

// IsAuthFailure reports whether err looks like an authentication
// failure: a 401/403 status, or a message containing any recognized
// marker. A nil error is never an auth failure.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) && (se.Status == 401 || se.Status == 403) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range authFailureMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Gateway owns the session-expired listener list. Subscribe returns an
// unsubscribe function; listeners are invoked synchronously in
// subscription order when an auth failure is dispatched.
type Gateway struct {
	mu    sync.Mutex
	next  int
	subs  map[int]func()
	order []int
}

func New() *Gateway {
	return &Gateway{subs: make(map[int]func())}
}

// Subscribe registers fn to run when a session-expired condition is
// dispatched. The returned function removes the subscription and is
// safe to call more than once.
func (g *Gateway) Subscribe(fn func()) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	g.subs[id] = fn
	g.order = append(g.order, id)
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
	}
}

// HandlePossibleSessionError inspects err; when it classifies as an
// auth failure (or is ErrSessionExpired itself) every subscriber is
// notified and true is returned. Otherwise nothing happens and false
// is returned. Call this at every data-access catch site that might
// surface an auth failure — dispatch here is the only way session
// expiry becomes visible to the shell.
func (g *Gateway) HandlePossibleSessionError(err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, ErrSessionExpired) && !IsAuthFailure(err) {
		return false
	}

	g.mu.Lock()
	fns := make([]func(), 0, len(g.subs))
	for _, id := range g.order {
		if fn, ok := g.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return true
}
