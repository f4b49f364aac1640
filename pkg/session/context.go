package session

import (
	"context"

	"github.com/stocknear/edge/pkg/authstore"
)

// Locals is the request-scoped view handed to downstream handlers:
// the resolved user (nil when anonymous) plus the backend connection
// parameters pages need to talk to the data APIs.
type Locals struct {
	User       *authstore.Record
	BackendURL string
	APIURL     string
	WSURL      string
	APIKey     string
}

type localsContextKey struct{}

// WithLocals attaches request locals to the context.
func WithLocals(ctx context.Context, locals Locals) context.Context {
	return context.WithValue(ctx, localsContextKey{}, locals)
}

// LocalsFromContext retrieves request locals from the context.
func LocalsFromContext(ctx context.Context) (Locals, bool) {
	locals, ok := ctx.Value(localsContextKey{}).(Locals)
	return locals, ok
}

// UserFromContext retrieves the resolved user, if any.
func UserFromContext(ctx context.Context) (*authstore.Record, bool) {
	locals, ok := LocalsFromContext(ctx)
	if !ok || locals.User == nil {
		return nil, false
	}
	return locals.User, true
}
