package assetcache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// State is the worker lifecycle phase.
type State int32

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "new"
	}
}

// Control message types understood by HandleMessage.
const (
	MessageSkipWaiting = "SKIP_WAITING"
	MessageCacheURLs   = "CACHE_URLS"
)

// Message is a control command sent to the worker.
type Message struct {
	Type    string   `json:"type"`
	Payload []string `json:"payload,omitempty"`
}

// Worker owns the versioned asset cache and its lifecycle.
type Worker struct {
	cfg      Config
	store    Store
	fetcher  Fetcher
	log      *slog.Logger
	critical []string
	deferred []string

	state       atomic.Int32
	skipWaiting atomic.Bool
	populating  atomic.Bool
	wg          sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// WithCriticalAssets overrides the critical asset set cached on install.
func WithCriticalAssets(assets []string) WorkerOption {
	return func(w *Worker) {
		w.critical = assets
	}
}

// WithDeferredAssets sets the deferred asset list. The exclusion filter
// is applied here, so population can never touch a filtered path.
func WithDeferredAssets(assets []string) WorkerOption {
	return func(w *Worker) {
		w.deferred = FilterDeferred(assets)
	}
}

// NewWorker creates a worker over the given store and upstream fetcher.
func NewWorker(store Store, fetcher Fetcher, cfg Config, opts ...WorkerOption) *Worker {
	w := &Worker{
		cfg:      cfg,
		store:    store,
		fetcher:  fetcher,
		log:      slog.Default(),
		critical: DefaultCriticalAssets,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// CacheName returns the versioned name of the worker's cache.
func (w *Worker) CacheName() string {
	return CacheName(w.cfg.Version)
}

// State returns the current lifecycle phase.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Populating reports whether deferred population is in flight.
func (w *Worker) Populating() bool {
	return w.populating.Load()
}

// SkipWaiting reports whether the worker has signaled it should
// supersede a previously waiting instance immediately.
func (w *Worker) SkipWaiting() bool {
	return w.skipWaiting.Load()
}

// Wait blocks until all tracked background work (deferred population,
// revalidations, cache warms) has finished. The runner must call it
// before tearing the worker down.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// track runs fn in a goroutine registered with the worker so Wait can
// hold the process open until it finishes.
func (w *Worker) track(fn func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

// Install caches the critical asset set synchronously into the current
// versioned cache. Any critical asset failure fails the install. On
// success the worker immediately signals skip-waiting; there is no
// manual activation step.
func (w *Worker) Install(ctx context.Context) error {
	w.state.Store(int32(StateInstalling))

	cache, err := w.store.Open(ctx, w.CacheName())
	if err != nil {
		return fmt.Errorf("assetcache: open %q: %w", w.CacheName(), err)
	}

	w.log.Info("caching critical assets", slog.Int("count", len(w.critical)))
	for _, key := range w.critical {
		entry, err := w.fetcher.Fetch(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCriticalAsset, key, err)
		}
		if !entry.OK() {
			return fmt.Errorf("%w: %s: upstream status %d", ErrCriticalAsset, key, entry.Status)
		}
		if err := cache.Put(ctx, key, entry); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCriticalAsset, key, err)
		}
	}

	w.state.Store(int32(StateInstalled))
	w.skipWaiting.Store(true)
	w.log.Info("installed with critical assets")
	return nil
}

// Activate purges every cache whose name differs from the current
// version, then kicks off deferred population in the background.
// Population never delays Activate's return.
func (w *Worker) Activate(ctx context.Context) error {
	w.state.Store(int32(StateActivating))

	names, err := w.store.Names(ctx)
	if err != nil {
		return fmt.Errorf("assetcache: list caches: %w", err)
	}

	current := w.CacheName()
	for _, name := range names {
		if name == current {
			continue
		}
		w.log.Info("deleting old cache", slog.String("name", name))
		if err := w.store.Drop(ctx, name); err != nil {
			return fmt.Errorf("assetcache: drop %q: %w", name, err)
		}
	}

	w.state.Store(int32(StateActive))

	detached := context.WithoutCancel(ctx)
	w.track(func() {
		w.populateDeferred(detached)
	})

	return nil
}

// populateDeferred bulk-adds the deferred asset list in fixed-size
// batches with a small delay between them. Per-asset failures inside a
// batch are swallowed so one broken asset cannot abort the batch.
func (w *Worker) populateDeferred(ctx context.Context) {
	w.populating.Store(true)
	defer w.populating.Store(false)

	cache, err := w.store.Open(ctx, w.CacheName())
	if err != nil {
		w.log.Warn("background caching aborted", slog.Any("error", err))
		return
	}

	batches := batchKeys(w.deferred, w.cfg.BatchSize)
	for i, batch := range batches {
		w.addAll(ctx, cache, batch)
		if i < len(batches)-1 {
			time.Sleep(w.cfg.BatchDelay)
		}
	}

	w.log.Info("background caching complete", slog.Int("assets", len(w.deferred)))
}

// addAll fetches and stores each key, logging and skipping failures.
func (w *Worker) addAll(ctx context.Context, cache Cache, keys []string) {
	for _, key := range keys {
		entry, err := w.fetcher.Fetch(ctx, key)
		if err != nil || !entry.OK() {
			w.log.Debug("asset skipped", slog.String("key", key), slog.Any("error", err))
			continue
		}
		if err := cache.Put(ctx, key, entry); err != nil {
			w.log.Debug("asset store failed", slog.String("key", key), slog.Any("error", err))
		}
	}
}

// HandleFetch serves one request through the cache.
//
// Non-GET requests, API paths and loopback/local hosts return
// ErrPassThrough: the caller must forward the original request upstream
// untouched, keeping its cookies and authorization headers. Everything
// else gets stale-while-revalidate: a cached entry is returned
// immediately while a tracked background fetch overwrites it on a 200;
// on a miss the network result is served (and stored on a 200); a
// network failure without a cached entry propagates.
func (w *Worker) HandleFetch(ctx context.Context, r *http.Request) (Entry, error) {
	if r.Method != http.MethodGet {
		return Entry{}, ErrPassThrough
	}

	if strings.Contains(r.URL.Path, "/api/") || isLocalHost(r.Host) {
		return Entry{}, ErrPassThrough
	}

	key := r.URL.RequestURI()

	cache, err := w.store.Open(ctx, w.CacheName())
	if err != nil {
		// Degraded mode: the store is down but upstream may not be.
		w.log.Warn("cache unavailable, serving from upstream", slog.Any("error", err))
		return w.fetcher.Fetch(ctx, key)
	}

	cached, ok, err := cache.Match(ctx, key)
	if err != nil {
		w.log.Debug("cache match failed", slog.String("key", key), slog.Any("error", err))
		ok = false
	}

	if ok {
		w.revalidate(ctx, cache, key)
		return cached, nil
	}

	entry, err := w.fetcher.Fetch(ctx, key)
	if err != nil {
		return Entry{}, err
	}
	if entry.OK() {
		if err := cache.Put(ctx, key, entry); err != nil {
			w.log.Debug("cache put failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return entry, nil
}

// revalidate refreshes a cached entry in the background. The fetch is
// detached from the request context; last writer wins on the key.
func (w *Worker) revalidate(ctx context.Context, cache Cache, key string) {
	detached := context.WithoutCancel(ctx)
	w.track(func() {
		entry, err := w.fetcher.Fetch(detached, key)
		if err != nil || !entry.OK() {
			return
		}
		if err := cache.Put(detached, key, entry); err != nil {
			w.log.Debug("revalidation store failed", slog.String("key", key), slog.Any("error", err))
		}
	})
}

// HandleMessage executes a control command. Unknown types are ignored.
func (w *Worker) HandleMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case MessageSkipWaiting:
		w.skipWaiting.Store(true)
		w.log.Info("skip waiting requested")
	case MessageCacheURLs:
		cache, err := w.store.Open(ctx, w.CacheName())
		if err != nil {
			w.log.Warn("cache warm failed", slog.Any("error", err))
			return
		}
		w.addAll(ctx, cache, msg.Payload)
	}
}

// isLocalHost reports whether the request host targets the local
// machine or a private LAN address; those requests are never cached.
func isLocalHost(host string) bool {
	h := host
	if splitHost, _, err := net.SplitHostPort(host); err == nil {
		h = splitHost
	}

	if strings.EqualFold(h, "localhost") {
		return true
	}

	if ip := net.ParseIP(strings.Trim(h, "[]")); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate()
	}

	return false
}
