package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelara/design-portal/internal/model"
)

func brandBrief() model.Brief {
	return model.Brief{
		Type: model.TypeBrand,
		Brand: &model.BrandBrief{
			BusinessName: "Analytical Engines Ltd",
			Industry:     "computing",
			Audience:     "mathematicians",
			StyleWords:   "precise, victorian",
			ColorLikes:   "brass, deep green",
		},
	}
}

func TestSubmitRequestRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/requests", r.URL.Path)
		var body struct {
			Title string      `json:"title"`
			Brief model.Brief `json:"brief"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, model.TypeBrand, body.Brief.Type)
		require.NotNil(t, body.Brief.Brand)

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":      "req-1",
			"user_id": 7,
			"type":    "brand",
			"title":   body.Title,
			"brief":   body.Brief,
			"status":  "SUBMITTED",
		})
	}))
	defer srv.Close()

	req, err := New(srv.URL, nil).SubmitRequest(context.Background(), "Logo refresh", brandBrief())
	require.NoError(t, err)
	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, model.StatusSubmitted, req.Status)
	require.NotNil(t, req.Brief.Brand)
	assert.Equal(t, "Analytical Engines Ltd", req.Brief.Brand.BusinessName)
}

func TestListAssetsGrouped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/assets", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"assets": map[string]any{
				"logo": []map[string]any{
					{"id": "a1", "label": "Primary logo", "bucket": "logo"},
				},
				"color": []map[string]any{
					{"id": "a2", "label": "Palette", "bucket": "color"},
				},
			},
			"total": 2,
		})
	}))
	defer srv.Close()

	grouped, err := New(srv.URL, nil).ListAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Len(t, grouped["logo"], 1)
	assert.Equal(t, "Primary logo", grouped["logo"][0].Label)
}

func TestSignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/assets/a1/url", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"url": "https://signed.example/a1", "expires_in": 900})
	}))
	defer srv.Close()

	url, err := New(srv.URL, nil).SignedURL(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/a1", url)
}

func TestPresignUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/uploads/presign", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "brief.pdf", body["filename"])
		writeJSON(w, http.StatusOK, map[string]any{
			"url": "https://upload.example/put",
			"key": "user/7/abc.pdf",
		})
	}))
	defer srv.Close()

	url, key, err := New(srv.URL, nil).PresignUpload(context.Background(), "brief.pdf", "application/pdf", 1024)
	require.NoError(t, err)
	assert.Equal(t, "https://upload.example/put", url)
	assert.Equal(t, "user/7/abc.pdf", key)
}
