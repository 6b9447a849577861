package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelara/design-portal/internal/middleware"
	"github.com/avelara/design-portal/internal/storage"
)

// UploadHandler issues presigned PUT URLs so clients upload reference
// material straight to the bucket without the file body transiting the
// service.
type UploadHandler struct {
	Store *storage.Store
}

func NewUploadHandler(s *storage.Store) *UploadHandler {
	return &UploadHandler{Store: s}
}

type presignReq struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type presignResp struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ExpiresIn   int    `json:"expires_in"`
	ContentType string `json:"content_type"`
}

// Presign handles POST /v1/uploads/presign. The generated key is
// namespaced under the caller's user id; the client must PUT with the
// declared Content-Type before the URL expires.
func (h *UploadHandler) Presign(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req presignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Filename = strings.TrimSpace(req.Filename)
	if req.Filename == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filename required"})
	}
	if req.SizeBytes > h.Store.MaxUpload() {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key := storage.BuildObjectKey(uid, req.Filename)
	url, err := h.Store.PresignUpload(ctx, key, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "object storage not configured"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "presign failed"})
	}

	return c.JSON(http.StatusOK, presignResp{
		Key:         key,
		URL:         url,
		ExpiresIn:   int(h.Store.PresignTTL().Seconds()),
		ContentType: contentType,
	})
}
