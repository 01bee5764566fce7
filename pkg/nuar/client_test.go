package nuar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "437242,115491,437671,115822", r.URL.Query().Get("bbox"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"asset_count": 184}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	res, err := c.AssetCount(context.Background(), "437242,115491,437671,115822")
	require.NoError(t, err)
	assert.Equal(t, 184, res.AssetCount)
	assert.Equal(t, "437242,115491,437671,115822", res.BBox)
}

func TestAssetCount_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	_, err := c.AssetCount(context.Background(), "0,0,1,1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
