package apiclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avelara/design-portal/internal/authgw"
	"github.com/avelara/design-portal/internal/model"
	"github.com/avelara/design-portal/internal/session"
)

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

func (p profileResp) toModel() model.Profile {
	return model.Profile{
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

// GetProfile fetches the caller's profile. A 404 comes back as
// session.ErrProfileNotFound so first sign-ins read as a miss, not a
// failure.
func (c *Client) GetProfile(ctx context.Context) (model.Profile, error) {
	var out profileResp
	err := c.do(ctx, http.MethodGet, "/v1/profile", nil, &out)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return model.Profile{}, session.ErrProfileNotFound
		}
		return model.Profile{}, c.report(err)
	}
	return out.toModel(), nil
}

// Reconcile runs the server-side profile upsert and returns the saved
// row, including the server-owned admin flag.
func (c *Client) Reconcile(ctx context.Context, candidate session.Candidate) (model.Profile, error) {
	var out profileResp
	if err := c.do(ctx, http.MethodPost, "/v1/profile/reconcile", candidate, &out); err != nil {
		return model.Profile{}, c.report(err)
	}
	return out.toModel(), nil
}

// UpdateProfile saves edits from the profile screen.
func (c *Client) UpdateProfile(ctx context.Context, fullName, company string) (model.Profile, error) {
	var out profileResp
	err := c.do(ctx, http.MethodPut, "/v1/profile", map[string]string{
		"full_name": fullName,
		"company":   company,
	}, &out)
	if err != nil {
		return model.Profile{}, c.report(err)
	}
	return out.toModel(), nil
}

// Request is the client-side view of a design request.
type Request struct {
	ID        string              `json:"id"`
	UserID    uint64              `json:"user_id"`
	Type      model.RequestType   `json:"type"`
	Title     string              `json:"title"`
	Brief     model.Brief         `json:"brief"`
	Status    model.RequestStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ErrActiveRequestExists mirrors the service's one-active-request rule.
var ErrActiveRequestExists = errors.New("an active request already exists")

// SubmitRequest creates a design request. The service's 409 on an
// occupied slot is mapped to ErrActiveRequestExists.
func (c *Client) SubmitRequest(ctx context.Context, title string, brief model.Brief) (Request, error) {
	var out Request
	err := c.do(ctx, http.MethodPost, "/v1/requests", map[string]any{
		"title": title,
		"brief": brief,
	}, &out)
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return Request{}, ErrActiveRequestExists
		}
		return Request{}, c.report(err)
	}
	return out, nil
}

// ListRequests returns the caller's requests (all requests for admins).
func (c *Client) ListRequests(ctx context.Context) ([]Request, error) {
	var out struct {
		Requests []Request `json:"requests"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/requests", nil, &out); err != nil {
		return nil, c.report(err)
	}
	return out.Requests, nil
}

// ActiveRequest returns the current non-terminal request, or nil when
// the slot is free.
func (c *Client) ActiveRequest(ctx context.Context) (*Request, error) {
	var out Request
	err := c.do(ctx, http.MethodGet, "/v1/requests/active", nil, &out)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, c.report(err)
	}
	return &out, nil
}

// Asset is the client-side view of a delivered asset.
type Asset struct {
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

// ListAssets returns the caller's delivered assets grouped by display
// bucket, as the assets screen renders them.
func (c *Client) ListAssets(ctx context.Context) (map[string][]Asset, error) {
	var out struct {
		Assets map[string][]Asset `json:"assets"`
		Total  int                `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/assets", nil, &out); err != nil {
		return nil, c.report(err)
	}
	return out.Assets, nil
}

// SignedURL asks the service for a time-limited download link.
func (c *Client) SignedURL(ctx context.Context, assetID string) (string, error) {
	var out struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/assets/"+assetID+"/url", nil, &out); err != nil {
		return "", c.report(err)
	}
	return out.URL, nil
}

// PresignUpload asks the service for a direct-to-storage upload URL.
func (c *Client) PresignUpload(ctx context.Context, filename, contentType string, size int64) (uploadURL, objectKey string, err error) {
	var out struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	err = c.do(ctx, http.MethodPost, "/v1/uploads/presign", map[string]any{
		"filename":     filename,
		"content_type": contentType,
		"size_bytes":   size,
	}, &out)
	if err != nil {
		return "", "", c.report(err)
	}
	return out.URL, out.Key, nil
}

// isStatus reports whether err carries the given HTTP status, either as
// an authgw status error or a plain echo error body.
func isStatus(err error, status int) bool {
	var se *authgw.StatusError
	if errors.As(err, &se) {
		return se.Status == status
	}
	var he statusErr
	return errors.As(err, &he) && he.status == status
}
