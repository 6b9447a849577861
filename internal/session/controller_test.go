package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelara/design-portal/internal/authgw"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestController(store *fakeStore, api *fakeProfileAPI, gw *authgw.Gateway, opts ...Option) *Controller {
	rec := NewReconciler(store, api, nil, nil)
	return NewController(store, rec, gw, nil, opts...)
}

func TestMountNoSession(t *testing.T) {
	store := newFakeStore(nil)
	api := &fakeProfileAPI{}
	c := newTestController(store, api, nil)

	c.Start(context.Background())

	assert.Equal(t, StateUnauthenticated, c.State())
	assert.False(t, c.CheckingAuth())
	gets, reconciles := api.calls()
	assert.Zero(t, gets, "no profile fetch without a session")
	assert.Zero(t, reconciles)
}

func TestMountBeforeStartIsChecking(t *testing.T) {
	c := newTestController(newFakeStore(nil), &fakeProfileAPI{}, nil)
	assert.Equal(t, StateCheckingAuth, c.State())
}

func TestMountAdminRouting(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7, Email: "ada@example.com"})
	api := &fakeProfileAPI{savedIsAdmin: true}
	c := newTestController(store, api, nil)

	c.Start(context.Background())

	require.NotNil(t, c.CurrentUser())
	assert.True(t, c.CurrentUser().IsAdmin)
	assert.Equal(t, StateAdminDashboard, c.State())
}

func TestMountUserRouting(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7, Email: "ada@example.com"})
	c := newTestController(store, &fakeProfileAPI{}, nil)

	c.Start(context.Background())

	assert.Equal(t, StateUserDashboard, c.State())
	assert.True(t, c.Authenticated())
}

func TestMountProfileTableMissingFailsOpen(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7, Email: "ada@example.com"})
	api := &fakeProfileAPI{getErr: ErrSchemaNotProvisioned}
	c := newTestController(store, api, nil)

	c.Start(context.Background())

	// The dashboard is reached despite the broken profiles table; the
	// blocking error state is reserved for explicit reports.
	assert.Nil(t, c.CurrentUser())
	assert.True(t, c.Authenticated())
	assert.Equal(t, StateUserDashboard, c.State())
	assert.False(t, c.CheckingAuth())
}

func TestMountStoreFailureResolvesUnauthenticated(t *testing.T) {
	store := newFakeStore(nil)
	store.currentErr = errors.New("boom")
	c := newTestController(store, &fakeProfileAPI{}, nil)

	c.Start(context.Background())

	assert.Equal(t, StateUnauthenticated, c.State())
	assert.False(t, c.CheckingAuth())
}

func TestMountConnectionFailureIsRetryable(t *testing.T) {
	store := newFakeStore(nil)
	store.currentErr = fmt.Errorf("%w: dial tcp 10.0.0.1:443: i/o timeout", ErrConnectionFailure)
	c := newTestController(store, &fakeProfileAPI{}, nil)

	c.Start(context.Background())

	assert.Equal(t, StateAuthErrorConnection, c.State())
	assert.False(t, c.CheckingAuth())

	// Dismissing the error falls back to the sign-in route.
	c.ClearError()
	assert.Equal(t, StateUnauthenticated, c.State())
}

func TestCheckingAuthMonotone(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7})
	c := newTestController(store, &fakeProfileAPI{}, nil)

	c.Start(context.Background())
	require.False(t, c.CheckingAuth())

	c.HandleFocus(context.Background())
	store.emit(EventSignedIn)
	c.Start(context.Background()) // second Start is a no-op
	assert.False(t, c.CheckingAuth())
}

func TestFocusRefreshThrottle(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore(&Identity{ID: 7})
	c := newTestController(store, &fakeProfileAPI{}, nil, WithClock(clock.Now))
	c.Start(context.Background())

	c.HandleFocus(context.Background())
	assert.EqualValues(t, 1, c.RefreshSeq())

	// Within the 30s window: skipped.
	clock.Advance(10 * time.Second)
	c.HandleFocus(context.Background())
	assert.EqualValues(t, 1, c.RefreshSeq())

	clock.Advance(19 * time.Second)
	c.HandleFocus(context.Background())
	assert.EqualValues(t, 1, c.RefreshSeq())

	// Past the window: one more refresh, counter moves by exactly one.
	clock.Advance(2 * time.Second)
	c.HandleFocus(context.Background())
	assert.EqualValues(t, 2, c.RefreshSeq())
}

func TestFocusSkippedWhenHiddenOfflineOrSignedOut(t *testing.T) {
	clock := newFakeClock()

	t.Run("hidden", func(t *testing.T) {
		store := newFakeStore(&Identity{ID: 7})
		c := newTestController(store, &fakeProfileAPI{}, nil,
			WithClock(clock.Now), WithVisibility(func() bool { return false }))
		c.Start(context.Background())
		before := store.calls()
		c.HandleFocus(context.Background())
		assert.Equal(t, before, store.calls())
		assert.Zero(t, c.RefreshSeq())
	})

	t.Run("offline", func(t *testing.T) {
		store := newFakeStore(&Identity{ID: 7})
		c := newTestController(store, &fakeProfileAPI{}, nil,
			WithClock(clock.Now), WithOnline(func() bool { return false }))
		c.Start(context.Background())
		before := store.calls()
		c.HandleFocus(context.Background())
		assert.Equal(t, before, store.calls())
	})

	t.Run("not authenticated", func(t *testing.T) {
		store := newFakeStore(nil)
		c := newTestController(store, &fakeProfileAPI{}, nil, WithClock(clock.Now))
		c.Start(context.Background())
		before := store.calls()
		c.HandleFocus(context.Background())
		assert.Equal(t, before, store.calls())
	})

	t.Run("before initial check", func(t *testing.T) {
		store := newFakeStore(&Identity{ID: 7})
		c := newTestController(store, &fakeProfileAPI{}, nil, WithClock(clock.Now))
		c.HandleFocus(context.Background()) // Start never called
		assert.Zero(t, store.calls())
	})
}

func TestFocusReentrancyGuard(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7})
	c := newTestController(store, &fakeProfileAPI{}, nil, WithRefreshThrottle(0))
	c.Start(context.Background())

	store.mu.Lock()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	store.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.HandleFocus(context.Background())
		close(done)
	}()
	<-store.entered // first invocation is inside the store call

	// Second invocation while the first is in flight: a no-op.
	c.HandleFocus(context.Background())
	assert.Zero(t, c.RefreshSeq())

	store.mu.Lock()
	close(store.block)
	store.block = nil
	store.mu.Unlock()
	<-done
	assert.EqualValues(t, 1, c.RefreshSeq())

	// Guard released: the next focus refreshes again.
	c.HandleFocus(context.Background())
	assert.EqualValues(t, 2, c.RefreshSeq())
}

func TestFocusFailureIsNotDestructive(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7})
	c := newTestController(store, &fakeProfileAPI{}, nil, WithRefreshThrottle(0))
	c.Start(context.Background())
	require.True(t, c.Authenticated())

	store.mu.Lock()
	store.currentErr = errors.New("dial tcp: connection refused")
	store.mu.Unlock()

	c.HandleFocus(context.Background())

	// A transient re-query failure never forces sign-out and never
	// bumps the refresh counter.
	assert.True(t, c.Authenticated())
	assert.Zero(t, c.RefreshSeq())
	assert.NotNil(t, c.CurrentUser())
}

func TestSignInInvalidCredentialsMessage(t *testing.T) {
	store := newFakeStore(nil)
	store.signInErr = errors.New("Invalid login credentials")
	c := newTestController(store, &fakeProfileAPI{}, nil)
	c.Start(context.Background())

	err := c.SignIn(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, InvalidCredentialsMessage, err.Error())
	assert.False(t, c.Authenticated())
}

func TestSignInOtherErrorsPassThrough(t *testing.T) {
	store := newFakeStore(nil)
	store.signInErr = errors.New("dial tcp: connection refused")
	c := newTestController(store, &fakeProfileAPI{}, nil)
	c.Start(context.Background())

	err := c.SignIn(context.Background(), "ada@example.com", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInSuccessSyncsProfile(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7, Email: "ada@example.com"})
	api := &fakeProfileAPI{}
	c := newTestController(store, api, nil)
	c.Start(context.Background())

	require.NoError(t, c.SignIn(context.Background(), "ada@example.com", "pw"))
	assert.True(t, c.Authenticated())
	assert.NotNil(t, c.CurrentUser())
}

func TestSessionExpiredBroadcast(t *testing.T) {
	gw := authgw.New()
	store := newFakeStore(&Identity{ID: 7})
	c := newTestController(store, &fakeProfileAPI{}, gw, WithExpiryNotice(60*time.Millisecond))
	c.Start(context.Background())
	require.True(t, c.Authenticated())

	handled := gw.HandlePossibleSessionError(authgw.ErrSessionExpired)
	require.True(t, handled)

	assert.False(t, c.Authenticated())
	assert.Nil(t, c.CurrentUser())
	assert.Equal(t, SessionExpiredMessage, c.ExpiredMessage())

	// Still showing before the notice window elapses.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, SessionExpiredMessage, c.ExpiredMessage())

	// Cleared after it.
	assert.Eventually(t, func() bool { return c.ExpiredMessage() == "" },
		500*time.Millisecond, 10*time.Millisecond)
}

func TestAuthChangeSignedOutClearsState(t *testing.T) {
	dir := t.TempDir()
	cache := NewUserCache(filepath.Join(dir, "user.json"))
	store := newFakeStore(&Identity{ID: 7, Email: "ada@example.com"})
	api := &fakeProfileAPI{}
	rec := NewReconciler(store, api, cache, nil)
	c := NewController(store, rec, nil, cache)
	c.Start(context.Background())
	require.True(t, c.Authenticated())
	_, ok := cache.Get()
	require.True(t, ok, "reconcile mirrors the profile into the cache")

	store.emit(EventSignedOut)

	assert.False(t, c.Authenticated())
	assert.Nil(t, c.CurrentUser())
	_, ok = cache.Get()
	assert.False(t, ok, "sign-out invalidates the cache")
}

func TestAuthChangeSignedInReconciles(t *testing.T) {
	store := newFakeStore(nil)
	api := &fakeProfileAPI{}
	c := newTestController(store, api, nil)
	c.Start(context.Background())
	require.Equal(t, StateUnauthenticated, c.State())

	store.mu.Lock()
	store.ident = &Identity{ID: 7, Email: "ada@example.com"}
	store.mu.Unlock()
	store.emit(EventSignedIn)

	assert.True(t, c.Authenticated())
	assert.NotNil(t, c.CurrentUser())
	_, reconciles := api.calls()
	assert.Equal(t, 1, reconciles)
}

func TestReportedErrorsDriveErrorStates(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7})
	c := newTestController(store, &fakeProfileAPI{}, nil)
	c.Start(context.Background())

	c.ReportError(ErrSchemaNotProvisioned)
	assert.Equal(t, StateAuthErrorBlocking, c.State())

	c.ClearError()
	assert.Equal(t, StateUserDashboard, c.State())

	c.ReportError(ErrConnectionFailure)
	assert.Equal(t, StateAuthErrorConnection, c.State())

	// Errors outside the taxonomy never change routing.
	c.ClearError()
	c.ReportError(errors.New("validation failed"))
	assert.Equal(t, StateUserDashboard, c.State())
}

func TestCloseUnsubscribes(t *testing.T) {
	store := newFakeStore(&Identity{ID: 7})
	api := &fakeProfileAPI{}
	c := newTestController(store, api, nil)
	c.Start(context.Background())
	_, before := api.calls()

	c.Close()
	store.emit(EventSignedIn)

	_, after := api.calls()
	assert.Equal(t, before, after, "events after Close are ignored")
}
