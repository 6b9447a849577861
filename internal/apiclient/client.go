// Package apiclient is the portal shell's HTTP client for the backend
// service. It implements the session store and data-access surfaces the
// session controller consumes, and translates transport and HTTP
// failures into the client-side error taxonomy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avelara/design-portal/internal/authgw"
	"github.com/avelara/design-portal/internal/session"
)

// Client talks to the portal service. Token state is held in memory and
// guarded by mu; all exported methods are safe for concurrent use.
type Client struct {
	base string
	http *http.Client
	gw   *authgw.Gateway

	mu        sync.Mutex
	access    string
	accessExp time.Time
	refresh   string
	identity  *session.Identity
	subs      map[int]func(string)
	nextSub   int
}

// New builds a client for the service at baseURL. The gateway may be
// nil; when set, every auth-shaped failure is offered to it so the
// session-expired broadcast fires from whichever call noticed first.
func New(baseURL string, gw *authgw.Gateway) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{},
		gw:   gw,
		subs: map[int]func(string){},
	}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

type errBody struct {
	Error       string `json:"error"`
	Remediation string `json:"remediation"`
}

// do issues one request with the current bearer token and decodes a
// non-2xx body into the error taxonomy. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	if c.access != "" {
		req.Header.Set("Authorization", "Bearer "+c.access)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrConnectionFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return c.classify(resp)
}

// classify maps a non-2xx response onto the taxonomy: 401/403 become
// authgw status errors, the service's blocking schema payloads become
// schema sentinels, and everything else surfaces the body's error text.
// Dispatch to the session-expired gateway happens at the data-access
// call sites, not here: CurrentUser must be able to recover a routine
// token expiry silently without broadcasting it.
func (c *Client) classify(resp *http.Response) error {
	var eb errBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	if eb.Error == "" {
		eb.Error = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &authgw.StatusError{Status: resp.StatusCode, Message: eb.Error}
	case http.StatusServiceUnavailable:
		switch {
		case strings.Contains(eb.Error, "schema not provisioned"):
			return fmt.Errorf("%w: %s", session.ErrSchemaNotProvisioned, eb.Remediation)
		case strings.Contains(eb.Error, "schema misconfigured"):
			return fmt.Errorf("%w: %s", session.ErrSchemaMisconfigured, eb.Remediation)
		}
		return fmt.Errorf("%w: %s", session.ErrConnectionFailure, eb.Error)
	}
	return statusErr{status: resp.StatusCode, message: eb.Error}
}

// statusErr carries a non-auth HTTP failure so callers can branch on
// the status without string matching.
type statusErr struct {
	status  int
	message string
}

func (e statusErr) Error() string {
	return fmt.Sprintf("%s: %s", http.StatusText(e.status), e.message)
}

// report offers err to the session-expired gateway. Auth-shaped
// failures trigger the broadcast; everything else passes through
// untouched. Every data-access operation funnels its error here.
func (c *Client) report(err error) error {
	if err != nil && c.gw != nil {
		c.gw.HandlePossibleSessionError(err)
	}
	return err
}

// SignIn exchanges credentials for a token pair. The backend's
// "Invalid login credentials" message is passed through untouched; the
// controller owns the user-facing translation.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Info, error) {
	var out authResp
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return session.Info{}, err
	}

	c.mu.Lock()
	c.access = out.Access.Token
	c.accessExp = out.Access.Expires
	c.refresh = out.Refresh.Token
	c.identity = &session.Identity{ID: out.User.ID, Email: out.User.Email}
	c.mu.Unlock()

	c.emit(session.EventSignedIn)
	return session.Info{AccessToken: out.Access.Token, ExpiresAt: out.Access.Expires}, nil
}

// SignUp registers a new account and signs straight in, carrying the
// display metadata the reconciler later folds into the profile.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (session.Info, error) {
	var out authResp
	err := c.do(ctx, http.MethodPost, "/v1/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return session.Info{}, err
	}

	c.mu.Lock()
	c.access = out.Access.Token
	c.accessExp = out.Access.Expires
	c.refresh = out.Refresh.Token
	c.identity = &session.Identity{ID: out.User.ID, Email: out.User.Email, Metadata: metadata}
	c.mu.Unlock()

	c.emit(session.EventSignedIn)
	return session.Info{AccessToken: out.Access.Token, ExpiresAt: out.Access.Expires}, nil
}

// SignOut revokes the session server-side and always drops local token
// state, even when the revoke call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()

	var err error
	if refresh != "" {
		err = c.do(ctx, http.MethodPost, "/v1/auth/logout", map[string]string{
			"refresh_token": refresh,
		}, nil)
	}

	c.mu.Lock()
	c.access, c.refresh, c.identity = "", "", nil
	c.accessExp = time.Time{}
	c.mu.Unlock()

	c.emit(session.EventSignedOut)
	return err
}

type meResp struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// CurrentUser probes the session. No tokens means no session (nil,
// nil). A 401 triggers one silent access-token renewal from the held
// refresh token before the probe is retried; only when that also fails
// does the auth error surface.
func (c *Client) CurrentUser(ctx context.Context) (*session.Identity, error) {
	c.mu.Lock()
	access, refresh := c.access, c.refresh
	meta := map[string]string{}
	if c.identity != nil {
		meta = c.identity.Metadata
	}
	c.mu.Unlock()
	if access == "" && refresh == "" {
		return nil, nil
	}

	var out meResp
	err := c.do(ctx, http.MethodGet, "/v1/me", nil, &out)
	if err != nil {
		var se *authgw.StatusError
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized && refresh != "" {
			if rerr := c.renewAccess(ctx); rerr != nil {
				return nil, err
			}
			if err = c.do(ctx, http.MethodGet, "/v1/me", nil, &out); err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	ident := &session.Identity{ID: out.UserID, Email: out.Email, Metadata: meta}
	c.mu.Lock()
	c.identity = ident
	c.mu.Unlock()
	return ident, nil
}

// renewAccess trades the refresh token for a fresh access token without
// rotating the refresh token, so concurrent probes cannot invalidate
// each other's credentials.
func (c *Client) renewAccess(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()
	if refresh == "" {
		return authgw.ErrNotAuthenticated
	}

	var out struct {
		Access tokenPart `json:"access"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/auth/refresh-access", map[string]string{
		"refresh_token": refresh,
	}, &out)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.access = out.Access.Token
	c.accessExp = out.Access.Expires
	c.mu.Unlock()
	return nil
}

// CurrentSession returns the held token pair, or nil when signed out.
func (c *Client) CurrentSession(ctx context.Context) (*session.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.access == "" {
		return nil, nil
	}
	return &session.Info{AccessToken: c.access, ExpiresAt: c.accessExp}, nil
}

// OnAuthChange registers a listener for sign-in/sign-out events emitted
// by this client's own calls.
func (c *Client) OnAuthChange(fn func(event string)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Client) emit(event string) {
	c.mu.Lock()
	fns := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(event)
	}
}
