package assetcache

import "net/http"

// Entry is a cached response document: status, headers and body bytes.
// Entries are immutable once stored; overwriting one with a fresh copy
// of the same resource is always safe.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body,omitempty"`
}

// OK reports whether the entry carries a cacheable success response.
func (e Entry) OK() bool {
	return e.Status == http.StatusOK
}
