package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avelara/design-portal/internal/middleware"
	"github.com/avelara/design-portal/internal/model"
	"github.com/avelara/design-portal/internal/repository"
)

// ProfileHandler serves the authenticated user's profile row: read,
// explicit edits, and the reconcile upsert the portal shell runs after
// every sign-in.
type ProfileHandler struct {
	Profiles *repository.ProfileRepo
}

func NewProfileHandler(p *repository.ProfileRepo) *ProfileHandler {
	return &ProfileHandler{Profiles: p}
}

// profileResp is the wire form of a profile. is_admin is included so
// the shell can route to the admin dashboard, but it is output-only:
// no request body anywhere binds it.
type profileResp struct {
	UserID    uint64    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	ClientID  string    `json:"client_id"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProfileResp(p model.Profile) profileResp {
	return profileResp{
		UserID:    p.UserID,
		FullName:  p.FullName,
		Email:     p.Email,
		Company:   p.Company,
		ClientID:  p.ClientID,
		IsAdmin:   p.IsAdmin,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// schemaErrorResponse maps the schema sentinels onto blocking error
// payloads with remediation text. Returns false when err is not a
// schema problem.
func schemaErrorResponse(c echo.Context, err error) (bool, error) {
	switch {
	case errors.Is(err, repository.ErrSchemaNotProvisioned):
		return true, c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":       "schema not provisioned",
			"remediation": "portal tables are missing; run the bundled database migrations",
		})
	case errors.Is(err, repository.ErrSchemaMisconfigured):
		return true, c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":       "schema misconfigured",
			"remediation": "the database user lacks grants on the portal tables; review its privileges",
		})
	}
	return false, nil
}

// Get returns the caller's profile, 404 when none exists yet.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(p))
}

type updateProfileReq struct {
	FullName string `json:"full_name"`
	Company  string `json:"company"`
}

// Update applies an explicit user edit of display name and company.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.UpdateDetails(ctx, uid, req.FullName, strings.TrimSpace(req.Company)); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(p))
}

type reconcileReq struct {
	FullName string `json:"full_name"`
	Company  string `json:"company"`
	ClientID string `json:"client_id"`
}

// Reconcile is the server half of post-sign-in profile reconciliation:
// an upsert that creates the row on first sign-in and refreshes
// defaults afterwards. The candidate's client_id comes from the request
// metadata, then the existing row, then a fresh UUID. The stored
// is_admin value is preserved unconditionally — the upsert's update arm
// does not touch the column, and a fresh row always starts false.
func (h *ProfileHandler) Reconcile(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reconcileReq
	_ = c.Bind(&req) // all fields optional; an empty body reconciles with defaults

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	existing, err := h.Profiles.Get(ctx, uid)
	if err != nil && err != sql.ErrNoRows {
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	email := middleware.CurrentEmail(c)
	candidate := model.Profile{
		UserID:   uid,
		Email:    email,
		FullName: firstNonEmpty(strings.TrimSpace(req.FullName), existing.FullName, "New Client"),
		Company:  firstNonEmpty(strings.TrimSpace(req.Company), existing.Company, "Your Company"),
		ClientID: firstNonEmpty(strings.TrimSpace(req.ClientID), existing.ClientID, uuid.NewString()),
	}

	if err := h.Profiles.Upsert(ctx, candidate); err != nil {
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reconcile failed"})
	}

	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(p))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
