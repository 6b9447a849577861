package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/avelara/design-portal/internal/model"
)

// RequestRepo reads and writes rows in the `requests` table.  All
// non-admin reads are scoped by user_id so one client can never see
// another client's briefs; this is the row-level scoping the portal
// relies on instead of database policies.
type RequestRepo struct{ DB *sql.DB }

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{DB: db} }

const requestCols = "id,user_id,type,title,payload,status,created_at,updated_at"

func scanRequest(row interface{ Scan(...any) error }) (model.Request, error) {
	var (
		req     model.Request
		payload []byte
	)
	err := row.Scan(&req.ID, &req.UserID, &req.Type, &req.Title, &payload, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return model.Request{}, err
	}
	if err := json.Unmarshal(payload, &req.Brief); err != nil {
		return model.Request{}, fmt.Errorf("decode request payload: %w", err)
	}
	return req, nil
}

// Create inserts a new request in SUBMITTED status and returns it.
// It refuses to insert while the user already has a non-terminal
// request: the single active-request rule is enforced here rather
// than left to display logic.
func (r *RequestRepo) Create(ctx context.Context, userID uint64, title string, brief model.Brief) (model.Request, error) {
	if err := brief.Validate(); err != nil {
		return model.Request{}, err
	}
	payload, err := json.Marshal(brief)
	if err != nil {
		return model.Request{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Request{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var active int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests WHERE user_id=? AND status<>? FOR UPDATE",
		userID, model.StatusDelivered).Scan(&active)
	if err != nil {
		return model.Request{}, ClassifySchemaError(err)
	}
	if active > 0 {
		return model.Request{}, ErrActiveRequestExists
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO requests (id, user_id, type, title, payload, status) VALUES (?,?,?,?,?,?)",
		id, userID, brief.Type, title, payload, model.StatusSubmitted)
	if err != nil {
		return model.Request{}, ClassifySchemaError(err)
	}
	if err := tx.Commit(); err != nil {
		return model.Request{}, err
	}
	committed = true

	return r.getByID(ctx, id)
}

func (r *RequestRepo) getByID(ctx context.Context, id string) (model.Request, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+requestCols+" FROM requests WHERE id=? LIMIT 1", id)
	return scanRequest(row)
}

// GetForUser fetches a request by id, enforcing ownership. Admins pass
// isAdmin=true to bypass the ownership check.
func (r *RequestRepo) GetForUser(ctx context.Context, id string, userID uint64, isAdmin bool) (model.Request, error) {
	req, err := r.getByID(ctx, id)
	if err != nil {
		return model.Request{}, err
	}
	if !isAdmin && req.UserID != userID {
		return model.Request{}, ErrForbidden
	}
	return req, nil
}

// ListByUser returns the user's requests, newest first.
func (r *RequestRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Request, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+requestCols+" FROM requests WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, ClassifySchemaError(err)
	}
	defer rows.Close()

	out := []model.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ListAll returns every request, newest first; admin use only.
func (r *RequestRepo) ListAll(ctx context.Context) ([]model.Request, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+requestCols+" FROM requests ORDER BY created_at DESC")
	if err != nil {
		return nil, ClassifySchemaError(err)
	}
	defer rows.Close()

	out := []model.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ActiveForUser returns the user's current non-terminal request, or
// sql.ErrNoRows when the slot is free.
func (r *RequestRepo) ActiveForUser(ctx context.Context, userID uint64) (model.Request, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+requestCols+" FROM requests WHERE user_id=? AND status<>? ORDER BY created_at DESC LIMIT 1",
		userID, model.StatusDelivered)
	return scanRequest(row)
}

// UpdateStatus moves a request to the next lifecycle stage.  Backward
// or repeated transitions return ErrConflict.  The current status is
// read and checked inside a transaction so two concurrent updates
// cannot both pass the ordering check.
func (r *RequestRepo) UpdateStatus(ctx context.Context, id string, next model.RequestStatus) (model.Request, error) {
	if !model.ValidStatus(next) {
		return model.Request{}, fmt.Errorf("unknown status %q", next)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Request{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current model.RequestStatus
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM requests WHERE id=? LIMIT 1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		return model.Request{}, err
	}
	if !model.CanTransition(current, next) {
		return model.Request{}, ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE requests SET status=? WHERE id=?", next, id); err != nil {
		return model.Request{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Request{}, err
	}
	committed = true

	return r.getByID(ctx, id)
}
