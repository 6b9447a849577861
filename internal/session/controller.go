package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avelara/design-portal/internal/authgw"
	"github.com/avelara/design-portal/internal/model"
)

// State is the controller's top-level routing decision.
type State int

const (
	StateCheckingAuth State = iota
	StateUnauthenticated
	StateAuthErrorBlocking
	StateAuthErrorConnection
	StateAdminDashboard
	StateUserDashboard
)

func (s State) String() string {
	switch s {
	case StateCheckingAuth:
		return "checking_auth"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthErrorBlocking:
		return "auth_error_blocking"
	case StateAuthErrorConnection:
		return "auth_error_connection"
	case StateAdminDashboard:
		return "admin_dashboard"
	case StateUserDashboard:
		return "user_dashboard"
	}
	return "unknown"
}

// User-facing strings. Sign-in failures are never surfaced raw: the
// backend's "Invalid login credentials" is replaced with a fixed
// message so the UI wording stays under our control.
const (
	InvalidCredentialsMessage = "Incorrect email or password. Please try again."
	SessionExpiredMessage     = "Your session has expired. Please sign in again."
)

// ErrInvalidCredentials is returned by SignIn on a credential mismatch.
var ErrInvalidCredentials = errors.New(InvalidCredentialsMessage)

const (
	defaultRefreshThrottle = 30 * time.Second
	defaultExpiryNotice    = 5 * time.Second
)

// Controller owns the shell's authentication state machine. Every
// mutation happens under mu; network calls happen outside it. Callers
// may invoke methods from any goroutine.
type Controller struct {
	store Store
	rec   *Reconciler
	gw    *authgw.Gateway
	cache *UserCache
	log   *slog.Logger

	// Injectable environment probes and timings.
	now          func() time.Time
	visible      func() bool
	online       func() bool
	throttle     time.Duration
	expiryNotice time.Duration

	mu            sync.Mutex
	started       bool
	checking      bool
	authenticated bool
	user          *model.Profile
	authError     error
	expiredMsg    string
	refreshSeq    int64
	refreshing    bool
	lastRefresh   time.Time

	expiryTimer *time.Timer
	unsubAuth   func()
	unsubExpiry func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock substitutes the time source.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// WithVisibility substitutes the document-visible probe.
func WithVisibility(fn func() bool) Option { return func(c *Controller) { c.visible = fn } }

// WithOnline substitutes the network-reachable probe.
func WithOnline(fn func() bool) Option { return func(c *Controller) { c.online = fn } }

// WithRefreshThrottle overrides the minimum gap between successful
// focus-driven refreshes.
func WithRefreshThrottle(d time.Duration) Option {
	return func(c *Controller) { c.throttle = d }
}

// WithExpiryNotice overrides how long the session-expired message stays
// visible.
func WithExpiryNotice(d time.Duration) Option {
	return func(c *Controller) { c.expiryNotice = d }
}

func WithLogger(log *slog.Logger) Option { return func(c *Controller) { c.log = log } }

// NewController wires the controller to its collaborators. Start must
// be called before any other method does useful work.
func NewController(store Store, rec *Reconciler, gw *authgw.Gateway, cache *UserCache, opts ...Option) *Controller {
	c := &Controller{
		store:        store,
		rec:          rec,
		gw:           gw,
		cache:        cache,
		log:          slog.Default(),
		now:          time.Now,
		visible:      func() bool { return true },
		online:       func() bool { return true },
		throttle:     defaultRefreshThrottle,
		expiryNotice: defaultExpiryNotice,
		checking:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the initial auth check and registers the auth-change and
// session-expired subscriptions. It is idempotent: only the first call
// does anything, so checking can never flip back to true after the
// initial check completes.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.unsubAuth = c.store.OnAuthChange(func(event string) { c.handleAuthChange(context.Background(), event) })
	if c.gw != nil {
		c.unsubExpiry = c.gw.Subscribe(c.handleSessionExpired)
	}
	c.initialCheck(ctx)
}

// Close unsubscribes and stops timers. Safe to call more than once.
func (c *Controller) Close() {
	if c.unsubAuth != nil {
		c.unsubAuth()
		c.unsubAuth = nil
	}
	if c.unsubExpiry != nil {
		c.unsubExpiry()
		c.unsubExpiry = nil
	}
	c.mu.Lock()
	if c.expiryTimer != nil {
		c.expiryTimer.Stop()
		c.expiryTimer = nil
	}
	c.mu.Unlock()
}

// initialCheck resolves the mount-time session question. It never
// propagates an error: failures are logged and land on "not
// authenticated", except an unreachable backend, which raises the
// retryable connection-error state instead. Profile sync failures are
// tolerated too, so a broken profiles table cannot keep a valid
// session off the dashboard.
func (c *Controller) initialCheck(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.checking = false
		c.mu.Unlock()
	}()

	ident, err := c.store.CurrentUser(ctx)
	if err != nil {
		c.log.Warn("initial auth check failed", "error", err)
		c.setUnauthenticated()
		if errors.Is(err, ErrConnectionFailure) {
			c.mu.Lock()
			c.authError = err
			c.mu.Unlock()
		}
		return
	}
	if ident == nil {
		c.setUnauthenticated()
		return
	}

	c.mu.Lock()
	c.authenticated = true
	c.authError = nil
	c.mu.Unlock()

	c.syncProfile(ctx)
}

// syncProfile runs one reconcile pass and installs the result. All
// failures are fail-open: the user is logged but not signed out and no
// error state is raised from here.
func (c *Controller) syncProfile(ctx context.Context) {
	p, err := c.rec.Reconcile(ctx)
	if err != nil {
		c.log.Warn("profile sync failed", "error", err)
		return
	}
	c.mu.Lock()
	c.user = &p
	c.authError = nil
	c.mu.Unlock()
}

func (c *Controller) setUnauthenticated() {
	c.mu.Lock()
	c.authenticated = false
	c.user = nil
	c.mu.Unlock()
}

// handleAuthChange reacts to the store's SIGNED_IN/SIGNED_OUT stream.
// Unlike the focus path, this path has no reentrancy guard; overlapping
// reconciles are tolerated because the upsert is idempotent by key.
func (c *Controller) handleAuthChange(ctx context.Context, event string) {
	switch event {
	case EventSignedIn:
		c.mu.Lock()
		c.authenticated = true
		c.expiredMsg = ""
		c.mu.Unlock()
		c.syncProfile(ctx)
	case EventSignedOut:
		c.setUnauthenticated()
		if c.cache != nil {
			if err := c.cache.Invalidate(); err != nil {
				c.log.Warn("user cache invalidation failed", "error", err)
			}
		}
	}
}

// handleSessionExpired is registered with the auth gateway. It drops
// the session state, shows the expiry message, and arms a one-shot
// timer that clears the message.
func (c *Controller) handleSessionExpired() {
	c.mu.Lock()
	c.authenticated = false
	c.user = nil
	c.expiredMsg = SessionExpiredMessage
	if c.expiryTimer != nil {
		c.expiryTimer.Stop()
	}
	c.expiryTimer = time.AfterFunc(c.expiryNotice, func() {
		c.mu.Lock()
		c.expiredMsg = ""
		c.mu.Unlock()
	})
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Invalidate(); err != nil {
			c.log.Warn("user cache invalidation failed", "error", err)
		}
	}
}

// HandleFocus is the window-focus / visibility-change revalidation
// handler. Skip conditions, in order: a refresh already in flight, the
// initial check not yet complete, not authenticated, document hidden,
// offline, or the last successful refresh was under the throttle
// window. A failed re-query is logged and takes no destructive action;
// confirmed session loss is the gateway's job, not this path's.
func (c *Controller) HandleFocus(ctx context.Context) {
	c.mu.Lock()
	if c.refreshing || c.checking || !c.authenticated {
		c.mu.Unlock()
		return
	}
	if !c.lastRefresh.IsZero() && c.now().Sub(c.lastRefresh) < c.throttle {
		c.mu.Unlock()
		return
	}
	if !c.visible() || !c.online() {
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("focus revalidation panicked", "panic", r)
		}
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()

	ident, err := c.store.CurrentUser(ctx)
	if err != nil || ident == nil {
		c.log.Warn("focus revalidation could not confirm session", "error", err)
		return
	}

	c.syncProfile(ctx)

	c.mu.Lock()
	c.lastRefresh = c.now()
	c.refreshSeq++
	c.mu.Unlock()
}

// SignIn authenticates and runs the post-sign-in profile sync. There is
// no client-side timeout; the call waits for the backend. A credential
// mismatch comes back as ErrInvalidCredentials; everything else is
// returned as-is.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	_, err := c.store.SignIn(ctx, email, password)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "invalid login credentials") {
			return ErrInvalidCredentials
		}
		return err
	}

	c.mu.Lock()
	c.authenticated = true
	c.expiredMsg = ""
	c.authError = nil
	c.mu.Unlock()

	c.syncProfile(ctx)
	return nil
}

// SignOut ends the session and clears all local state, including the
// user cache.
func (c *Controller) SignOut(ctx context.Context) error {
	err := c.store.SignOut(ctx)
	c.setUnauthenticated()
	if c.cache != nil {
		if cerr := c.cache.Invalidate(); cerr != nil {
			c.log.Warn("user cache invalidation failed", "error", cerr)
		}
	}
	return err
}

// ReportError feeds an error discovered by another surface (an admin
// check, a list fetch) into the controller's routing. Schema sentinels
// raise the blocking state, connection failures the retryable one;
// anything else is ignored here and handled where it occurred.
func (c *Controller) ReportError(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, ErrSchemaNotProvisioned), errors.Is(err, ErrSchemaMisconfigured):
	case errors.Is(err, ErrConnectionFailure):
	default:
		return
	}
	c.mu.Lock()
	c.authError = err
	c.mu.Unlock()
}

// ClearError dismisses a reported error, typically from a retry button.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.authError = nil
	c.mu.Unlock()
}

// State computes the routing decision from current state variables.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.checking:
		return StateCheckingAuth
	case c.authError != nil && (errors.Is(c.authError, ErrSchemaNotProvisioned) || errors.Is(c.authError, ErrSchemaMisconfigured)):
		return StateAuthErrorBlocking
	case c.authError != nil && errors.Is(c.authError, ErrConnectionFailure):
		return StateAuthErrorConnection
	case !c.authenticated:
		return StateUnauthenticated
	case c.user != nil && c.user.IsAdmin:
		return StateAdminDashboard
	default:
		return StateUserDashboard
	}
}

// Authenticated reports whether a session is currently held.
func (c *Controller) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// CheckingAuth reports whether the initial check is still running.
func (c *Controller) CheckingAuth() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checking
}

// CurrentUser returns the reconciled profile, or nil when none is
// loaded.
func (c *Controller) CurrentUser() *model.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// RefreshSeq is the counter list views watch to know when to reload.
// It increments by exactly one per successful focus revalidation.
func (c *Controller) RefreshSeq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshSeq
}

// ExpiredMessage returns the session-expired notice, or "" when none is
// showing.
func (c *Controller) ExpiredMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiredMsg
}
