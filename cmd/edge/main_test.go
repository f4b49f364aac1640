package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocknear/edge/pkg/assetcache"
)

func TestHandleFetchForwardsCredentialsOnBypass(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[string]http.Header)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Clone()
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer origin.Close()

	worker := assetcache.NewWorker(
		assetcache.NewMemoryStore(),
		assetcache.NewHTTPFetcher(origin.URL),
		assetcache.DefaultConfig(),
	)
	t.Cleanup(worker.Wait)

	h := handleFetch(worker, newOriginProxy(origin.URL, slog.Default()))

	t.Run("api request keeps its cookies and authorization", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://stocknear.com/api/portfolio", nil)
		req.Header.Set("Cookie", "pb_auth=secret-session")
		req.Header.Set("Authorization", "Bearer tok")

		rec := httptest.NewRecorder()
		h(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

		mu.Lock()
		header := seen["/api/portfolio"]
		mu.Unlock()
		require.NotNil(t, header)
		assert.Equal(t, "pb_auth=secret-session", header.Get("Cookie"))
		assert.Equal(t, "Bearer tok", header.Get("Authorization"))
	})

	t.Run("non-GET request is proxied with its headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://stocknear.com/submit", nil)
		req.Header.Set("Authorization", "Bearer tok")

		rec := httptest.NewRecorder()
		h(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		mu.Lock()
		header := seen["/submit"]
		mu.Unlock()
		require.NotNil(t, header)
		assert.Equal(t, "Bearer tok", header.Get("Authorization"))
	})
}
