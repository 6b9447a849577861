package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelara/design-portal/internal/authgw"
	"github.com/avelara/design-portal/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loginOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    map[string]any{"id": 7, "email": "ada@example.com", "role": "CLIENT"},
		"access":  map[string]any{"token": "access-1"},
		"refresh": map[string]any{"token": "refresh-1"},
	})
}

func TestSignInStoresTokensAndEmits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ada@example.com", body["email"])
		loginOK(w)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	var events []string
	c.OnAuthChange(func(ev string) { events = append(events, ev) })

	info, err := c.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "access-1", info.AccessToken)
	assert.Equal(t, []string{session.EventSignedIn}, events)

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "access-1", sess.AccessToken)
}

func TestSignInPassesBackendMessageThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid login credentials"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).SignIn(context.Background(), "ada@example.com", "bad")
	require.Error(t, err)
	// The raw message survives so the controller can translate it.
	assert.Contains(t, err.Error(), "Invalid login credentials")
}

func TestCurrentUserWithoutTokens(t *testing.T) {
	c := New("http://127.0.0.1:0", nil)
	ident, err := c.CurrentUser(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, ident)
}

func TestCurrentUserRenewsExpiredAccess(t *testing.T) {
	var meCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			loginOK(w)
		case "/v1/me":
			if meCalls.Add(1) == 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "jwt expired"})
				return
			}
			require.Equal(t, "Bearer access-2", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{"user_id": 7, "email": "ada@example.com", "role": "CLIENT"})
		case "/v1/auth/refresh-access":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "refresh-1", body["refresh_token"])
			writeJSON(w, http.StatusOK, map[string]any{
				"access": map[string]any{"token": "access-2"},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	gw := authgw.New()
	expired := false
	gw.Subscribe(func() { expired = true })

	c := New(srv.URL, gw)
	_, err := c.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	ident, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ident)
	assert.EqualValues(t, 7, ident.ID)
	assert.False(t, expired, "a recovered token expiry never broadcasts session loss")
}

func TestCurrentUserSurfacesUnrecoverableAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			loginOK(w)
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = c.CurrentUser(context.Background())
	require.Error(t, err)
	var se *authgw.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestDataAccessAuthFailureBroadcasts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			loginOK(w)
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "jwt expired"})
		}
	}))
	defer srv.Close()

	gw := authgw.New()
	expired := false
	gw.Subscribe(func() { expired = true })

	c := New(srv.URL, gw)
	_, err := c.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = c.ListRequests(context.Background())
	require.Error(t, err)
	assert.True(t, expired, "auth failures at data-access sites dispatch to the gateway")
}

func TestGetProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).GetProfile(context.Background())
	assert.ErrorIs(t, err, session.ErrProfileNotFound)
}

func TestSchemaPayloadsMapToSentinels(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
		want error
	}{
		{
			"not provisioned",
			map[string]string{"error": "schema not provisioned", "remediation": "run the bundled database migrations"},
			session.ErrSchemaNotProvisioned,
		},
		{
			"misconfigured",
			map[string]string{"error": "schema misconfigured", "remediation": "review its privileges"},
			session.ErrSchemaMisconfigured,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusServiceUnavailable, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).GetProfile(context.Background())
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.body["remediation"])
		})
	}
}

func TestTransportFailureIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := New(srv.URL, nil).GetProfile(context.Background())
	assert.ErrorIs(t, err, session.ErrConnectionFailure)
}

func TestSubmitRequestConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "an active request already exists; wait for delivery before submitting another"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).SubmitRequest(context.Background(), "Logo refresh", brandBrief())
	assert.ErrorIs(t, err, ErrActiveRequestExists)
}

func TestActiveRequestEmptySlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active request"})
	}))
	defer srv.Close()

	req, err := New(srv.URL, nil).ActiveRequest(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, req)
}

func TestSignOutDropsTokensEvenOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			loginOK(w)
		case "/v1/auth/logout":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "logout failed"})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	var events []string
	c.OnAuthChange(func(ev string) { events = append(events, ev) })
	_, err := c.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	err = c.SignOut(context.Background())
	require.Error(t, err)

	sess, serr := c.CurrentSession(context.Background())
	require.NoError(t, serr)
	assert.Nil(t, sess, "local tokens are dropped regardless of the revoke outcome")
	assert.Equal(t, []string{session.EventSignedIn, session.EventSignedOut}, events)
}
