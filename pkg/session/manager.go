package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/stocknear/edge/pkg/async"
	"github.com/stocknear/edge/pkg/authstore"
	"github.com/stocknear/edge/pkg/cookie"
)

// usersCollection is the provider collection holding auth records.
const usersCollection = "users"

// Manager performs per-request session resolution, opportunistic token
// refresh and cookie finalization. It holds no per-request state itself
// and is safe for concurrent use.
type Manager struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for refresh diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithHTTPClient sets the HTTP client shared by the per-request
// provider clients. This is the provider connection pool; the manager
// owns nothing else across requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) {
		if hc != nil {
			m.httpClient = hc
		}
	}
}

// New creates a session manager from the given configuration.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Resolve builds a fresh provider client for this request, loads the
// auth cookie into its store and snapshots the resulting session. No
// network call happens here; validity comes from the decoded token.
func (m *Manager) Resolve(cookieHeader string) (*authstore.Client, Session) {
	client := authstore.New(m.cfg.BackendURL, authstore.WithHTTPClient(m.httpClient))
	store := client.AuthStore()

	if err := store.LoadFromCookie(cookieHeader); err != nil && err != cookie.ErrCookieNotFound {
		m.log.Debug("auth cookie unreadable", slog.Any("error", err))
	}

	if store.IsValid() {
		claims, err := store.Claims()
		if err != nil {
			// Unreachable for a valid store, but never fail the request
			// over claim decoding.
			return client, Session{}
		}
		return client, Session{
			Token:  store.Token(),
			Claims: claims,
			User:   store.Model(),
			Valid:  true,
		}
	}

	// A live token without a user record violates the store invariant;
	// drop it so the finalized cookie logs the client out cleanly.
	if claims, err := store.Claims(); err == nil && claims.ExpiresAt.After(m.now()) {
		if rec := store.Model(); rec == nil || rec.ID == "" {
			store.Clear()
		}
	}

	return client, Session{}
}

// MaybeRefresh attempts a token refresh when the session is valid and
// the token is close to expiry. It performs at most one attempt per
// request and never returns an error: every failure path degrades to a
// defined session state.
func (m *Manager) MaybeRefresh(ctx context.Context, client *authstore.Client, sess Session, mode RefreshMode) Session {
	if !sess.Valid {
		return sess
	}

	if sess.Claims.TimeUntilExpiry(m.now()) >= m.cfg.RefreshThreshold {
		return sess
	}

	if mode == RefreshSync {
		return m.refreshSync(ctx, client, sess)
	}

	m.refreshBackground(ctx, client)
	return sess
}

// refreshBackground fires the refresh and returns immediately. The
// future is dropped on purpose; the call outlives the request and
// mutates the shared store when it lands (last writer wins).
func (m *Manager) refreshBackground(ctx context.Context, client *authstore.Client) {
	detached := context.WithoutCancel(ctx)

	async.Go(detached, func(ctx context.Context) (struct{}, error) {
		_, err := client.Collection(usersCollection).AuthRefresh(ctx)
		switch {
		case err == nil:
			m.log.Debug("auth token refreshed in background")
		case authstore.IsAuthError(err):
			client.AuthStore().Clear()
			m.log.Info("auth refresh rejected, session cleared", slog.Any("error", err))
		default:
			m.log.Debug("transient auth refresh failure, session kept", slog.Any("error", err))
		}
		return struct{}{}, nil
	})
}

// refreshSync races the refresh against the configured timeout. The
// timeout cancels only the wait; a late completion still updates the
// store but is not reflected in this request's session or cookie.
func (m *Manager) refreshSync(ctx context.Context, client *authstore.Client, prior Session) Session {
	detached := context.WithoutCancel(ctx)

	future := async.Go(detached, func(ctx context.Context) (*authstore.Record, error) {
		return client.Collection(usersCollection).AuthRefresh(ctx)
	})

	_, err := future.AwaitWithTimeout(m.cfg.SyncRefreshTimeout)
	switch {
	case err == nil:
		return m.snapshot(client, prior)
	case authstore.IsAuthError(err):
		client.AuthStore().Clear()
		m.log.Info("auth refresh rejected, session cleared", slog.Any("error", err))
		return Session{}
	default:
		// Timeout, transport failure or an undecodable response: fail
		// open and keep serving with the prior token.
		m.log.Debug("transient auth refresh failure, session kept", slog.Any("error", err))
		return prior
	}
}

// snapshot re-reads the store after a confirmed refresh. Falls back to
// the prior session if the fresh token does not decode.
func (m *Manager) snapshot(client *authstore.Client, prior Session) Session {
	store := client.AuthStore()
	if !store.IsValid() {
		return prior
	}

	claims, err := store.Claims()
	if err != nil {
		return prior
	}

	return Session{
		Token:  store.Token(),
		Claims: claims,
		User:   store.Model(),
		Valid:  true,
	}
}

// Finalize exports the client's current credential state into the
// response cookie. Attributes are fixed; Secure is set only when the
// request host is not a loopback or private-LAN address. Calling it
// twice for the same store state appends identical cookies.
func (m *Manager) Finalize(w http.ResponseWriter, r *http.Request, client *authstore.Client) {
	opts := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
		cookie.WithMaxAge(int(m.cfg.CookieMaxAge.Seconds())),
	}

	if isProductionHost(r.Host) {
		opts = append(opts, cookie.WithSecure(true))
	}

	w.Header().Add("Set-Cookie", client.AuthStore().ExportToCookie(opts...))
}
