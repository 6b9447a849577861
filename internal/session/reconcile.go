package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/avelara/design-portal/internal/authgw"
	"github.com/avelara/design-portal/internal/model"
)

// Placeholder values used when sign-up metadata carries nothing usable.
const (
	defaultFullName = "New Client"
	defaultCompany  = "Your Company"
)

// Reconciler brings the profile row in line with the authenticated
// identity after every sign-in and on demand. It never decides admin
// status; that flag only ever flows back from the server.
type Reconciler struct {
	store Store
	api   ProfileAPI
	cache *UserCache
	log   *slog.Logger
}

func NewReconciler(store Store, api ProfileAPI, cache *UserCache, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, api: api, cache: cache, log: log}
}

// Reconcile ensures a profile row exists for the current user, fills
// gaps from identity metadata, and mirrors the result into the local
// cache. Returns authgw.ErrNotAuthenticated when no session is held.
//
// A missing profile row is a normal first-sign-in state. A missing
// profile TABLE is not: that surfaces as ErrSchemaNotProvisioned and
// the caller decides whether to block on it.
func (r *Reconciler) Reconcile(ctx context.Context) (model.Profile, error) {
	ident, err := r.store.CurrentUser(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	if ident == nil {
		return model.Profile{}, authgw.ErrNotAuthenticated
	}

	var existing *model.Profile
	switch p, err := r.api.GetProfile(ctx); {
	case err == nil:
		existing = &p
	case errors.Is(err, ErrProfileNotFound):
		// First sign-in; the reconcile call below creates the row.
	case errors.Is(err, ErrSchemaNotProvisioned), errors.Is(err, ErrSchemaMisconfigured):
		return model.Profile{}, err
	default:
		// Read failures other than the blocking ones are tolerated; the
		// upsert below still runs against whatever the server holds.
		r.log.Warn("profile read before reconcile failed", "error", err)
	}

	saved, err := r.api.Reconcile(ctx, r.candidate(ident, existing))
	if err != nil {
		return model.Profile{}, err
	}

	if r.cache != nil {
		if err := r.cache.Put(saved); err != nil {
			r.log.Warn("user cache write failed", "error", err)
		}
	}
	return saved, nil
}

// candidate computes the reconcile input: per field, prefer sign-up
// metadata, then the existing row, then a placeholder. The client id is
// minted locally only when neither source has one.
func (r *Reconciler) candidate(ident *Identity, existing *model.Profile) Candidate {
	var exFullName, exCompany, exClientID string
	if existing != nil {
		exFullName, exCompany, exClientID = existing.FullName, existing.Company, existing.ClientID
	}
	return Candidate{
		FullName: firstNonEmpty(ident.Metadata["full_name"], exFullName, defaultFullName),
		Company:  firstNonEmpty(ident.Metadata["company"], exCompany, defaultCompany),
		ClientID: firstNonEmpty(ident.Metadata["client_id"], exClientID, uuid.NewString()),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
