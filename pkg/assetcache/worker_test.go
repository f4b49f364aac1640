package assetcache_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocknear/edge/pkg/assetcache"
)

// fakeFetcher serves canned entries and records every fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	entries map[string]assetcache.Entry
	calls   map[string]int
	fail    map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		entries: make(map[string]assetcache.Entry),
		calls:   make(map[string]int),
		fail:    make(map[string]error),
	}
}

func (f *fakeFetcher) serve(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = assetcache.Entry{Status: http.StatusOK, Body: []byte(body)}
}

func (f *fakeFetcher) failWith(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[key] = err
}

func (f *fakeFetcher) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeFetcher) Fetch(ctx context.Context, key string) (assetcache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++

	if err, ok := f.fail[key]; ok {
		return assetcache.Entry{}, err
	}
	if entry, ok := f.entries[key]; ok {
		return entry, nil
	}
	return assetcache.Entry{Status: http.StatusNotFound}, nil
}

func newWorker(t *testing.T, store assetcache.Store, fetcher assetcache.Fetcher, version string, opts ...assetcache.WorkerOption) *assetcache.Worker {
	t.Helper()

	cfg := assetcache.DefaultConfig()
	cfg.Version = version
	cfg.BatchDelay = time.Millisecond

	w := assetcache.NewWorker(store, fetcher, cfg, opts...)
	t.Cleanup(w.Wait)
	return w
}

func serveCriticals(f *fakeFetcher) {
	for _, key := range assetcache.DefaultCriticalAssets {
		f.serve(key, "critical:"+key)
	}
}

func TestInstall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("caches critical assets and signals skip waiting", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		serveCriticals(fetcher)

		w := newWorker(t, store, fetcher, "v1")
		require.NoError(t, w.Install(ctx))

		assert.Equal(t, assetcache.StateInstalled, w.State())
		assert.True(t, w.SkipWaiting())

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		for _, key := range assetcache.DefaultCriticalAssets {
			_, ok, err := cache.Match(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok, "critical asset %s missing", key)
		}
	})

	t.Run("fails when a critical asset cannot be fetched", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		serveCriticals(fetcher)
		fetcher.failWith("/favicon.png", errors.New("connection refused"))

		w := newWorker(t, store, fetcher, "v1")
		err := w.Install(ctx)
		assert.ErrorIs(t, err, assetcache.ErrCriticalAsset)
		assert.False(t, w.SkipWaiting())
	})

	t.Run("fails on upstream error status", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		serveCriticals(fetcher)
		fetcher.mu.Lock()
		fetcher.entries["/manifest.json"] = assetcache.Entry{Status: http.StatusInternalServerError}
		fetcher.mu.Unlock()

		w := newWorker(t, store, fetcher, "v1")
		assert.ErrorIs(t, w.Install(ctx), assetcache.ErrCriticalAsset)
	})
}

func TestActivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("purges caches from older versions", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		serveCriticals(fetcher)

		// Previous deployment left its cache behind.
		v1 := newWorker(t, store, fetcher, "v1")
		require.NoError(t, v1.Install(ctx))

		v2 := newWorker(t, store, fetcher, "v2")
		require.NoError(t, v2.Install(ctx))
		require.NoError(t, v2.Activate(ctx))
		v2.Wait()

		assert.Equal(t, assetcache.StateActive, v2.State())

		names, err := store.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"cache-v2"}, names)
	})

	t.Run("populates deferred assets in the background", func(t *testing.T) {
		t.Parallel()

		deferred := []string{"/_app/a.js", "/_app/b.js", "/_app/c.css"}
		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		serveCriticals(fetcher)
		for _, key := range deferred {
			fetcher.serve(key, "asset:"+key)
		}

		w := newWorker(t, store, fetcher, "v1", assetcache.WithDeferredAssets(deferred))
		require.NoError(t, w.Install(ctx))
		require.NoError(t, w.Activate(ctx))
		w.Wait()

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		for _, key := range deferred {
			_, ok, err := cache.Match(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok, "deferred asset %s missing", key)
		}
		assert.False(t, w.Populating())
	})

	t.Run("filtered assets are never fetched", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		serveCriticals(fetcher)
		fetcher.serve("/_app/a.js", "a")

		w := newWorker(t, store, fetcher, "v1", assetcache.WithDeferredAssets([]string{
			"/_app/a.js",
			"/senator/jane.png",
			"/img/big.png",
			"/data/quotes.json",
		}))
		require.NoError(t, w.Install(ctx))
		require.NoError(t, w.Activate(ctx))
		w.Wait()

		assert.Equal(t, 1, fetcher.callCount("/_app/a.js"))
		assert.Zero(t, fetcher.callCount("/senator/jane.png"))
		assert.Zero(t, fetcher.callCount("/img/big.png"))
		assert.Zero(t, fetcher.callCount("/data/quotes.json"))
	})

	t.Run("one broken asset does not abort its batch", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		serveCriticals(fetcher)
		fetcher.serve("/_app/a.js", "a")
		fetcher.failWith("/_app/broken.js", errors.New("boom"))
		fetcher.serve("/_app/c.js", "c")

		w := newWorker(t, store, fetcher, "v1", assetcache.WithDeferredAssets([]string{
			"/_app/a.js", "/_app/broken.js", "/_app/c.js",
		}))
		require.NoError(t, w.Install(ctx))
		require.NoError(t, w.Activate(ctx))
		w.Wait()

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)

		for _, key := range []string{"/_app/a.js", "/_app/c.js"} {
			_, ok, err := cache.Match(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		_, ok, err := cache.Match(ctx, "/_app/broken.js")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHandleFetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	request := func(method, url string) *http.Request {
		return httptest.NewRequest(method, url, nil)
	}

	t.Run("non-GET passes through", func(t *testing.T) {
		t.Parallel()

		w := newWorker(t, assetcache.NewMemoryStore(), newFakeFetcher(), "v1")
		_, err := w.HandleFetch(ctx, request(http.MethodPost, "http://stocknear.com/submit"))
		assert.ErrorIs(t, err, assetcache.ErrPassThrough)
	})

	t.Run("api paths pass through untouched", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		fetcher.serve("/api/quote", `{"price":1}`)

		// The worker must not re-issue the request itself: a fresh fetch
		// would drop the caller's cookies and authorization headers.
		w := newWorker(t, store, fetcher, "v1")
		req := request(http.MethodGet, "http://stocknear.com/api/quote")
		req.Header.Set("Cookie", "pb_auth=secret-session")
		req.Header.Set("Authorization", "Bearer tok")

		_, err := w.HandleFetch(ctx, req)
		assert.ErrorIs(t, err, assetcache.ErrPassThrough)
		assert.Zero(t, fetcher.callCount("/api/quote"))

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		_, ok, err := cache.Match(ctx, "/api/quote")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("local hosts pass through untouched", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		fetcher.serve("/page", "local")

		w := newWorker(t, store, fetcher, "v1")
		for _, host := range []string{"localhost:3000", "127.0.0.1:5173"} {
			_, err := w.HandleFetch(ctx, request(http.MethodGet, "http://"+host+"/page"))
			assert.ErrorIs(t, err, assetcache.ErrPassThrough)
		}
		assert.Zero(t, fetcher.callCount("/page"))

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		_, ok, err := cache.Match(ctx, "/page")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("miss serves network and stores the entry", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		fetcher.serve("/page", "fresh")

		w := newWorker(t, store, fetcher, "v1")
		entry, err := w.HandleFetch(ctx, request(http.MethodGet, "http://stocknear.com/page"))
		require.NoError(t, err)
		assert.Equal(t, "fresh", string(entry.Body))

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		got, ok, err := cache.Match(ctx, "/page")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "fresh", string(got.Body))
	})

	t.Run("hit serves stale immediately and revalidates", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		fetcher.serve("/page", "stale")

		w := newWorker(t, store, fetcher, "v1")

		// Seed the cache through a first fetch.
		_, err := w.HandleFetch(ctx, request(http.MethodGet, "http://stocknear.com/page"))
		require.NoError(t, err)

		// Upstream has moved on.
		fetcher.serve("/page", "fresh")

		entry, err := w.HandleFetch(ctx, request(http.MethodGet, "http://stocknear.com/page"))
		require.NoError(t, err)
		assert.Equal(t, "stale", string(entry.Body))

		w.Wait()

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		got, ok, err := cache.Match(ctx, "/page")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "fresh", string(got.Body))
	})

	t.Run("hit survives upstream failure", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		fetcher.serve("/page", "cached")

		w := newWorker(t, store, fetcher, "v1")
		_, err := w.HandleFetch(ctx, request(http.MethodGet, "http://stocknear.com/page"))
		require.NoError(t, err)

		fetcher.failWith("/page", errors.New("upstream down"))

		entry, err := w.HandleFetch(ctx, request(http.MethodGet, "http://stocknear.com/page"))
		require.NoError(t, err)
		assert.Equal(t, "cached", string(entry.Body))

		w.Wait()

		// The failed revalidation must not clobber the cached entry.
		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		got, ok, err := cache.Match(ctx, "/page")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "cached", string(got.Body))
	})

	t.Run("miss with network failure propagates", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		upstreamErr := errors.New("upstream down")
		fetcher.failWith("/page", upstreamErr)

		w := newWorker(t, assetcache.NewMemoryStore(), fetcher, "v1")
		_, err := w.HandleFetch(ctx, request(http.MethodGet, "http://stocknear.com/page"))
		assert.ErrorIs(t, err, upstreamErr)
	})

	t.Run("error statuses are served but never cached", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()

		w := newWorker(t, store, fetcher, "v1")
		entry, err := w.HandleFetch(ctx, request(http.MethodGet, "http://stocknear.com/nope"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, entry.Status)

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		_, ok, err := cache.Match(ctx, "/nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHandleMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("skip waiting", func(t *testing.T) {
		t.Parallel()

		w := newWorker(t, assetcache.NewMemoryStore(), newFakeFetcher(), "v1")
		assert.False(t, w.SkipWaiting())

		w.HandleMessage(ctx, assetcache.Message{Type: assetcache.MessageSkipWaiting})
		assert.True(t, w.SkipWaiting())
	})

	t.Run("cache urls warms the current store", func(t *testing.T) {
		t.Parallel()

		store := assetcache.NewMemoryStore()
		fetcher := newFakeFetcher()
		fetcher.serve("/warm/a", "a")
		fetcher.serve("/warm/b", "b")

		w := newWorker(t, store, fetcher, "v1")
		w.HandleMessage(ctx, assetcache.Message{
			Type:    assetcache.MessageCacheURLs,
			Payload: []string{"/warm/a", "/warm/b"},
		})

		cache, err := store.Open(ctx, "cache-v1")
		require.NoError(t, err)
		for _, key := range []string{"/warm/a", "/warm/b"} {
			_, ok, err := cache.Match(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	})

	t.Run("unknown message types are ignored", func(t *testing.T) {
		t.Parallel()

		w := newWorker(t, assetcache.NewMemoryStore(), newFakeFetcher(), "v1")
		w.HandleMessage(ctx, assetcache.Message{Type: "NOPE"})
		assert.False(t, w.SkipWaiting())
	})
}
