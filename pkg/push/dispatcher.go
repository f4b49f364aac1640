package push

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// Presenter displays a notification to the user.
type Presenter interface {
	Show(ctx context.Context, n Notification) error
}

// Window is one open browser window context.
type Window interface {
	URL() string
	Focus(ctx context.Context) error
}

// WindowClients enumerates and opens browser windows, focused or not.
type WindowClients interface {
	MatchAll(ctx context.Context) ([]Window, error)
	OpenWindow(ctx context.Context, url string) error
}

// Dispatcher converts push payloads into notifications and routes
// notification clicks.
type Dispatcher struct {
	origin    *url.URL
	presenter Presenter
	clients   WindowClients
	log       *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the dispatcher logger.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDispatcher creates a dispatcher bound to the app origin.
func NewDispatcher(origin string, presenter Presenter, clients WindowClients, opts ...DispatcherOption) (*Dispatcher, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("push: parse origin: %w", err)
	}

	d := &Dispatcher{
		origin:    u,
		presenter: presenter,
		clients:   clients,
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Parse builds a notification from raw payload bytes with icon and
// badge references resolved against the origin.
func (d *Dispatcher) Parse(raw []byte) Notification {
	title, body, target := parsePayload(raw)
	return newNotification(title, body, target, d.absolute(iconPath), d.absolute(badgePath))
}

// Dispatch parses the payload and shows the resulting notification.
// Presentation failures are logged, never returned: a push must not
// take anything else down with it.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) Notification {
	n := d.Parse(raw)

	if err := d.presenter.Show(ctx, n); err != nil {
		d.log.Warn("notification not shown",
			slog.String("notification_id", n.ID),
			slog.Any("error", err),
		)
	}

	return n
}

// HandleClick routes a click on a displayed notification: focus the
// first open window already at the exact target URL, otherwise open a
// new one there.
func (d *Dispatcher) HandleClick(ctx context.Context, n Notification) error {
	target := d.absolute(n.URL)

	windows, err := d.clients.MatchAll(ctx)
	if err != nil {
		return fmt.Errorf("push: enumerate windows: %w", err)
	}

	for _, w := range windows {
		if w.URL() == target {
			return w.Focus(ctx)
		}
	}

	return d.clients.OpenWindow(ctx, target)
}

// absolute resolves a path against the dispatcher origin. Already
// absolute URLs pass through unchanged.
func (d *Dispatcher) absolute(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return d.origin.String()
	}
	return d.origin.ResolveReference(ref).String()
}
