package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelara/design-portal/internal/config"
	"github.com/avelara/design-portal/internal/metrics"
	"github.com/avelara/design-portal/internal/middleware"
	"github.com/avelara/design-portal/internal/model"
	"github.com/avelara/design-portal/internal/queue"
	"github.com/avelara/design-portal/internal/repository"
	queue_publisher "github.com/avelara/design-portal/internal/service"
)

// RequestHandler serves design request submission and tracking. Users
// see only their own rows; admins list everything and drive the status
// lifecycle.
type RequestHandler struct {
	Cfg      config.Config
	Requests *repository.RequestRepo
	Metrics  *metrics.Collector
}

func NewRequestHandler(cfg config.Config, r *repository.RequestRepo, m *metrics.Collector) *RequestHandler {
	return &RequestHandler{Cfg: cfg, Requests: r, Metrics: m}
}

type createRequestReq struct {
	Title string      `json:"title"`
	Brief model.Brief `json:"brief"`
}

type requestResp struct {
	ID        string              `json:"id"`
	UserID    uint64              `json:"user_id"`
	Type      model.RequestType   `json:"type"`
	Title     string              `json:"title"`
	Brief     model.Brief         `json:"brief"`
	Status    model.RequestStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toRequestResp(r model.Request) requestResp {
	return requestResp{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		Title:     r.Title,
		Brief:     r.Brief,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Create handles POST /v1/requests. The brief's tagged-union decoding
// rejects unknown categories before anything reaches the database, and
// the repository refuses a second active request with a 409.
func (h *RequestHandler) Create(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if err := req.Brief.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Requests.Create(ctx, uid, req.Title, req.Brief)
	if err != nil {
		if errors.Is(err, repository.ErrActiveRequestExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "an active request already exists; wait for delivery before submitting another"})
		}
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create request failed"})
	}

	h.Metrics.RecordSubmission(string(created.Type))
	return c.JSON(http.StatusCreated, toRequestResp(created))
}

// List returns the caller's requests; admins get every request.
func (h *RequestHandler) List(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		rows []model.Request
		err  error
	)
	if middleware.IsAdmin(c) {
		rows, err = h.Requests.ListAll(ctx)
	} else {
		rows, err = h.Requests.ListByUser(ctx, uid)
	}
	if err != nil {
		if handled, resp := schemaErrorResponse(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]requestResp, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRequestResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": out})
}

// Active returns the caller's current non-terminal request; 404 when
// the slot is free. The shell uses this to render the single
// "current request" card.
func (h *RequestHandler) Active(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Requests.ActiveForUser(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active request"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toRequestResp(r))
}

// Get returns one request by id, enforcing ownership for non-admins.
func (h *RequestHandler) Get(c echo.Context) error {
	uid := middleware.CurrentUser(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Requests.GetForUser(ctx, id, uid, middleware.IsAdmin(c))
	if err != nil {
		switch {
		case err == sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toRequestResp(r))
}

type updateStatusReq struct {
	Status model.RequestStatus `json:"status"`
}

// UpdateStatus advances a request's lifecycle (admin only; the route
// carries RequireRole(ADMIN)). Backward transitions are a 409.
func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil || !model.ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid status required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	before, err := h.Requests.GetForUser(ctx, id, 0, true)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	updated, err := h.Requests.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		switch {
		case err == sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "status can only move forward"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Metrics.RecordStatusChange(string(updated.Status))
	ev := queue.RequestStatusEvent{
		RequestID: updated.ID,
		UserID:    updated.UserID,
		Title:     updated.Title,
		From:      string(before.Status),
		To:        string(updated.Status),
		At:        time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishRequestStatus(ctx, h.Cfg.AMQPURL, ev)
	}()

	return c.JSON(http.StatusOK, toRequestResp(updated))
}
