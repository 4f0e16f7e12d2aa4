package httpserver

import (
	"net/http"

	"evcharge/backend/libs/httpmw"
	"evcharge/backend/services/sessions-service/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Sessions       *handlers.SessionsHandlers
	Health         http.HandlerFunc
	Metrics        http.Handler
	Authenticate   func(http.Handler) http.Handler
	RequestLogging func(http.Handler) http.Handler
}

// NewRouter registers endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", method(http.MethodGet, deps.Health))
	if deps.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.Metrics))
	}

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return httpmw.Chain(handler, deps.Authenticate)
	}

	mux.Handle("/sessions/start", method(http.MethodPost, authenticated(deps.Sessions.Start)))
	mux.Handle("/sessions/me", method(http.MethodGet, authenticated(deps.Sessions.Me)))
	mux.Handle("/sessions/active", method(http.MethodGet, authenticated(deps.Sessions.Active)))
	mux.Handle("/sessions/{id}/receipt", method(http.MethodPost, authenticated(deps.Sessions.Receipt)))
	mux.Handle("/sessions/{id}/finalize", method(http.MethodPost, authenticated(deps.Sessions.Finalize)))
	mux.Handle("/sessions/{id}/cancel", method(http.MethodPost, authenticated(deps.Sessions.Cancel)))

	if deps.RequestLogging == nil {
		return mux
	}
	return deps.RequestLogging(mux)
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
