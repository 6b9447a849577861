package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/avelara/design-portal/internal/model"
)

// AssetRepo reads and writes rows in the `assets` table.
type AssetRepo struct{ DB *sql.DB }

func NewAssetRepo(db *sql.DB) *AssetRepo { return &AssetRepo{DB: db} }

const assetCols = "id,user_id,label,description,category,file_path,file_size,mime_type,created_at"

func scanAsset(row interface{ Scan(...any) error }) (model.Asset, error) {
	var a model.Asset
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Description, &a.Category, &a.FilePath, &a.FileSize, &a.MimeType, &a.CreatedAt)
	return a, err
}

// Create inserts a delivered asset and returns its generated id.
func (r *AssetRepo) Create(ctx context.Context, a model.Asset) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO assets (id, user_id, label, description, category, file_path, file_size, mime_type) VALUES (?,?,?,?,?,?,?,?)",
		id, a.UserID, a.Label, a.Description, a.Category, a.FilePath, a.FileSize, a.MimeType)
	if err != nil {
		return "", ClassifySchemaError(err)
	}
	return id, nil
}

// GetForUser fetches an asset by id, enforcing ownership unless the
// caller is an admin.
func (r *AssetRepo) GetForUser(ctx context.Context, id string, userID uint64, isAdmin bool) (model.Asset, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+assetCols+" FROM assets WHERE id=? LIMIT 1", id)
	a, err := scanAsset(row)
	if err != nil {
		return model.Asset{}, err
	}
	if !isAdmin && a.UserID != userID {
		return model.Asset{}, ErrForbidden
	}
	return a, nil
}

// ListByUser returns a user's assets, newest first.
func (r *AssetRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Asset, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+assetCols+" FROM assets WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, ClassifySchemaError(err)
	}
	defer rows.Close()

	out := []model.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes an asset row. The storage object is cleaned up by the
// caller; the row is authoritative for listing only.
func (r *AssetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM assets WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
