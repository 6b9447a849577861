package repository

import (
	"context"
	"database/sql"

	"github.com/avelara/design-portal/internal/model"
)

// ProfileRepo reads and writes rows in the `profiles` table.  The
// admin flag is treated as server-owned: Upsert never touches it on
// update, and the only way a row gains is_admin=true is a manual
// grant outside this repository.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Get fetches the profile for a user. A missing row surfaces as
// sql.ErrNoRows; a missing table surfaces as ErrSchemaNotProvisioned.
func (r *ProfileRepo) Get(ctx context.Context, userID uint64) (model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,full_name,email,company,client_id,is_admin,created_at,updated_at FROM profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.UserID, &p.FullName, &p.Email, &p.Company, &p.ClientID, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	if err != nil && err != sql.ErrNoRows {
		return model.Profile{}, ClassifySchemaError(err)
	}
	return p, err
}

// Upsert creates or updates the profile row. The insert arm writes
// is_admin=false; the update arm leaves the stored is_admin column
// untouched, so reconciliation can never raise or lower the flag.
func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, email, company, client_id, is_admin)
		 VALUES (?,?,?,?,?,FALSE)
		 ON DUPLICATE KEY UPDATE
		   full_name=VALUES(full_name),
		   email=VALUES(email),
		   company=VALUES(company),
		   client_id=VALUES(client_id)`,
		p.UserID, p.FullName, p.Email, p.Company, p.ClientID)
	return ClassifySchemaError(err)
}

// UpdateDetails applies an explicit user edit of name and company.
// Email, client_id and is_admin are not user-editable.
func (r *ProfileRepo) UpdateDetails(ctx context.Context, userID uint64, fullName, company string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET full_name=?, company=? WHERE user_id=?",
		fullName, company, userID)
	if err != nil {
		return ClassifySchemaError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL also reports 0 when values are unchanged; confirm the
		// row exists before treating this as not-found.
		var one int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM profiles WHERE user_id=? LIMIT 1", userID).Scan(&one); err != nil {
			return err
		}
	}
	return nil
}
