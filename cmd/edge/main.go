package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stocknear/edge/pkg/assetcache"
	"github.com/stocknear/edge/pkg/config"
	"github.com/stocknear/edge/pkg/httpserver"
	"github.com/stocknear/edge/pkg/logger"
	"github.com/stocknear/edge/pkg/push"
	"github.com/stocknear/edge/pkg/redis"
	"github.com/stocknear/edge/pkg/session"
)

type appConfig struct {
	ServiceName    string   `env:"SERVICE_NAME" envDefault:"edge"`
	Environment    string   `env:"ENVIRONMENT" envDefault:"development"`
	OriginURL      string   `env:"ORIGIN_URL" envDefault:"http://localhost:3000"`
	DeferredAssets []string `env:"ASSET_CACHE_DEFERRED" envSeparator:","`
}

func main() {
	var (
		appCfg     appConfig
		httpCfg    httpserver.Config
		sessionCfg session.Config
		cacheCfg   assetcache.Config
		redisCfg   redis.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&sessionCfg)
	config.MustLoad(&cacheCfg)
	config.MustLoad(&redisCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, appCfg.ServiceName))
	logger.SetAsDefault(log)

	ctx := context.Background()

	// The asset cache prefers Redis so cached entries survive restarts
	// and are shared between replicas; without Redis it degrades to a
	// per-process in-memory store.
	var store assetcache.Store
	var readiness []func(context.Context) error
	if redisClient, err := redis.Connect(ctx, redisCfg); err != nil {
		log.Warn("redis unavailable, using in-memory asset cache", logger.Error(err))
		store = assetcache.NewMemoryStore()
	} else {
		defer redisClient.Close()
		store = assetcache.NewRedisStore(redisClient)
		readiness = append(readiness, redis.Healthcheck(redisClient))
	}

	fetcher := assetcache.NewHTTPFetcher(appCfg.OriginURL)
	worker := assetcache.NewWorker(store, fetcher, cacheCfg,
		assetcache.WithWorkerLogger(log.With(logger.Component("assetcache"))),
		assetcache.WithDeferredAssets(appCfg.DeferredAssets),
	)

	if err := worker.Install(ctx); err != nil {
		log.Error("install failed", logger.Error(err))
		os.Exit(1)
	}
	if err := worker.Activate(ctx); err != nil {
		log.Error("activate failed", logger.Error(err))
		os.Exit(1)
	}

	sessions := session.New(sessionCfg,
		session.WithLogger(log.With(logger.Component("session"))),
	)

	pushLog := log.With(logger.Component("push"))
	dispatcher, err := push.NewDispatcher(appCfg.OriginURL,
		logPresenter{log: pushLog}, nil,
		push.WithDispatcherLogger(pushLog),
	)
	if err != nil {
		log.Error("push dispatcher init failed", logger.Error(err))
		os.Exit(1)
	}

	proxy := newOriginProxy(appCfg.OriginURL, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log, readiness...))

	r.Post("/worker/message", handleWorkerMessage(worker))
	r.Get("/worker/state", handleWorkerState(worker))
	r.Post("/push", handlePush(dispatcher))

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware(session.RefreshBackground))
		r.Handle("/*", handleFetch(worker, proxy))
	})

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("edge listening", slog.String("addr", httpCfg.Addr), slog.String("cache", worker.CacheName()))
		}),
	)

	if err := srv.Run(ctx, r); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}

	// Let in-flight revalidations and deferred population land before exit.
	worker.Wait()
	log.Info("edge stopped cleanly")
}

// logPresenter records dispatched notifications in the service log; the
// edge binary has no display surface of its own.
type logPresenter struct {
	log *slog.Logger
}

func (p logPresenter) Show(ctx context.Context, n push.Notification) error {
	p.log.InfoContext(ctx, "notification dispatched",
		slog.String("notification_id", n.ID),
		slog.String("title", n.Title),
		slog.String("url", n.URL),
	)
	return nil
}

// newOriginProxy builds the pass-through proxy used for requests the
// cache refuses to serve.
func newOriginProxy(origin string, log *slog.Logger) *httputil.ReverseProxy {
	target, err := url.Parse(origin)
	if err != nil {
		panic(err)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error("origin proxy failed", logger.Error(err), slog.String("path", r.URL.Path))
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy
}

func handleFetch(worker *assetcache.Worker, proxy *httputil.ReverseProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := worker.HandleFetch(r.Context(), r)
		if errors.Is(err, assetcache.ErrPassThrough) {
			proxy.ServeHTTP(w, r)
			return
		}
		if err != nil {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}

		for key, values := range entry.Header {
			for _, v := range values {
				w.Header().Add(key, v)
			}
		}
		w.WriteHeader(entry.Status)
		w.Write(entry.Body)
	}
}

func handleWorkerMessage(worker *assetcache.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg assetcache.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, "invalid message", http.StatusBadRequest)
			return
		}
		worker.HandleMessage(r.Context(), msg)
		w.WriteHeader(http.StatusAccepted)
	}
}

func handleWorkerState(worker *assetcache.Worker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"state":      worker.State().String(),
			"cache":      worker.CacheName(),
			"populating": worker.Populating(),
			"timestamp":  time.Now().UTC(),
		})
	}
}

func handlePush(dispatcher *push.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := readBody(r)
		if err != nil {
			http.Error(w, "unreadable payload", http.StatusBadRequest)
			return
		}
		n := dispatcher.Dispatch(r.Context(), payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(n)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 64<<10))
}
