// Package session implements the portal shell's session core: the
// lifecycle controller owning top-level auth state, the post-sign-in
// profile reconciler, and the local user cache. It talks to the backend
// through small interfaces so the HTTP client and test fakes are
// interchangeable.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/avelara/design-portal/internal/model"
)

// Auth change-notification events delivered to OnAuthChange listeners.
const (
	EventSignedIn  = "SIGNED_IN"
	EventSignedOut = "SIGNED_OUT"
)

// Identity is the authenticated user as reported by the auth backend.
// Metadata carries optional display hints (full_name, company,
// client_id) captured at sign-up.
type Identity struct {
	ID       uint64
	Email    string
	Metadata map[string]string
}

// Info is a read-only, possibly stale copy of the bearer session. It is
// only used for UI decisions; authorization is enforced server-side on
// every call.
type Info struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Store is the auth backend surface the controller consumes.
type Store interface {
	// SignIn exchanges credentials for a session. It intentionally has
	// no client-side timeout; the caller waits for the backend.
	SignIn(ctx context.Context, email, password string) (Info, error)
	SignOut(ctx context.Context) error
	// CurrentUser returns the authenticated identity, or nil with a nil
	// error when no session exists.
	CurrentUser(ctx context.Context) (*Identity, error)
	// CurrentSession returns the held session, or nil when signed out.
	CurrentSession(ctx context.Context) (*Info, error)
	// OnAuthChange registers a listener for SIGNED_IN/SIGNED_OUT events
	// and returns an unsubscribe function.
	OnAuthChange(fn func(event string)) (unsubscribe func())
}

// ProfileAPI is the profile surface the reconciler consumes.
type ProfileAPI interface {
	// GetProfile returns the caller's profile; ErrProfileNotFound when
	// none exists yet.
	GetProfile(ctx context.Context) (model.Profile, error)
	// Reconcile upserts the candidate profile server-side and returns
	// the saved row, including the server-owned admin flag.
	Reconcile(ctx context.Context, candidate Candidate) (model.Profile, error)
}

// Candidate is the client-computed profile reconciliation input. It
// deliberately has no admin field.
type Candidate struct {
	FullName string `json:"full_name"`
	Company  string `json:"company"`
	ClientID string `json:"client_id"`
}

// Client-side error taxonomy. The HTTP client maps transport failures
// and the service's blocking schema payloads onto these sentinels so
// the controller can route to the right error screen.
var (
	// ErrConnectionFailure: the backend was unreachable. Retryable.
	ErrConnectionFailure = errors.New("cannot reach the backend")
	// ErrSchemaNotProvisioned: an expected table is missing. Blocking.
	ErrSchemaNotProvisioned = errors.New("backend schema not provisioned")
	// ErrSchemaMisconfigured: the store rejected a statement for
	// permission reasons. Blocking.
	ErrSchemaMisconfigured = errors.New("backend schema misconfigured")
	// ErrProfileNotFound: no profile row yet; a normal first-sign-in
	// state, not a failure.
	ErrProfileNotFound = errors.New("profile not found")
)
