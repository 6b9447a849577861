package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelara/design-portal/internal/metrics"
	"github.com/avelara/design-portal/internal/middleware"
	"github.com/avelara/design-portal/internal/model"
	"github.com/avelara/design-portal/internal/repository"
	"github.com/avelara/design-portal/internal/storage"
)

// AssetHandler serves delivered assets: listing grouped by display
// bucket, admin-side attachment of delivered files, and signed-URL
// issuance for downloads.
type AssetHandler struct {
	Assets  *repository.AssetRepo
	Store   *storage.Store
	Metrics *metrics.Collector
}

func NewAssetHandler(a *repository.AssetRepo, s *storage.Store, m *metrics.Collector) *AssetHandler {
	return &AssetHandler{Assets: a, Store: s, Metrics: m}
}

type assetResp struct {
	ID          string    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	Bucket      string    `json:"bucket"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAssetResp(a model.Asset) assetResp {
	return assetResp{
		ID:          a.ID,
		UserID:      a.UserID,
		Label:       a.Label,
		Description: a.Description,
		Bucket:      string(a.Bucket()),
		FilePath:    a.FilePath,
		FileSize:    a.FileSize,
		MimeType:    a.MimeType,
		CreatedAt:   a.CreatedAt,
	}
}

// List returns assets grouped by display bucket. Clients see their own
// rows; admins may pass ?user_id= to inspect another client's
// deliveries.
func (h *AssetHandler) List(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if q := c.QueryParam("user_id"); q != "" {
		if !middleware.IsAdmin(c) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		target, err := strconv.ParseUint(q, 10, 64)
		if err != nil || target == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		uid = target
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Assets.ListByUser(ctx, uid)
	if err != nil {
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	grouped := map[string][]assetResp{}
	for _, a := range rows {
		r := toAssetResp(a)
		grouped[r.Bucket] = append(grouped[r.Bucket], r)
	}
	return c.JSON(http.StatusOK, echo.Map{"assets": grouped, "total": len(rows)})
}

type createAssetReq struct {
	UserID      uint64 `json:"user_id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Category    string `json:"category"`
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
}

// Create records a delivered asset against a client (admin only). The
// file itself was uploaded beforehand through a presigned URL; this
// registers the row that makes it visible in the client's dashboard.
func (h *AssetHandler) Create(c echo.Context) error {
	var req createAssetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.UserID == 0 || req.Label == "" || req.FilePath == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id, label and file_path required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Assets.Create(ctx, model.Asset{
		UserID:      req.UserID,
		Label:       req.Label,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		FilePath:    req.FilePath,
		FileSize:    req.FileSize,
		MimeType:    req.MimeType,
	})
	if err != nil {
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create asset failed"})
	}

	a, err := h.Assets.GetForUser(ctx, id, 0, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, toAssetResp(a))
}

// SignedURL issues a time-limited download URL for one asset, enforcing
// ownership for non-admins.
func (h *AssetHandler) SignedURL(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Assets.GetForUser(ctx, id, uid, middleware.IsAdmin(c))
	if err != nil {
		switch {
		case err == sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "asset not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	url, err := h.Store.SignedDownloadURL(ctx, a.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "object storage not configured"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign url failed"})
	}

	h.Metrics.RecordSignedURL()
	return c.JSON(http.StatusOK, echo.Map{
		"url":        url,
		"expires_in": int(h.Store.PresignTTL().Seconds()),
	})
}

// Delete removes an asset row and best-effort deletes the stored
// object (admin only).
func (h *AssetHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Assets.GetForUser(ctx, id, 0, true)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "asset not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Assets.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	// The row is gone; a stranded object is recoverable, a stranded row
	// is a dead dashboard entry. Storage cleanup failure is non-fatal.
	if h.Store.Configured() {
		_ = h.Store.Delete(ctx, a.FilePath)
	}
	return c.NoContent(http.StatusNoContent)
}
