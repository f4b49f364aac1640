package session

import (
	"net/http"
)

// Middleware returns per-request session handling with the given
// refresh mode: resolve the cookie, refresh if due, expose locals to
// downstream handlers and finalize the outgoing cookie.
//
// The cookie is written before the next handler runs, so it reflects
// only the credential state known at that point. A detached refresh
// landing later is picked up by the following request.
func (m *Manager) Middleware(mode RefreshMode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, sess := m.Resolve(r.Header.Get("Cookie"))
			sess = m.MaybeRefresh(r.Context(), client, sess, mode)

			locals := Locals{
				User:       sess.User,
				BackendURL: m.cfg.BackendURL,
				APIURL:     m.cfg.APIURL,
				WSURL:      m.cfg.WSURL,
				APIKey:     m.cfg.APIKey,
			}

			m.Finalize(w, r, client)
			next.ServeHTTP(w, r.WithContext(WithLocals(r.Context(), locals)))
		})
	}
}
