package session

import (
	"github.com/stocknear/edge/pkg/authstore"
)

// Session is the per-request identity snapshot handed to downstream
// consumers. It is a projection of the request's credential store at the
// moment it was taken; a later background refresh does not change it.
type Session struct {
	Token  string
	Claims authstore.Claims
	User   *authstore.Record
	Valid  bool
}

// RefreshMode selects how a due token refresh is executed.
type RefreshMode int

const (
	// RefreshBackground detaches the refresh from the request: the
	// response is produced immediately and the refreshed token becomes
	// visible starting with the next request.
	RefreshBackground RefreshMode = iota

	// RefreshSync races the refresh against the configured timeout so
	// protected content is served with a confirmed token when the
	// provider answers in time.
	RefreshSync
)
