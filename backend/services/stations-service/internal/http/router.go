package httpserver

import (
	"net/http"

	"evcharge/backend/libs/httpmw"
	"evcharge/backend/services/stations-service/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Stations       *handlers.StationsHandlers
	Refresh        http.HandlerFunc
	Health         http.HandlerFunc
	Metrics        http.Handler
	AdminOnly      func(http.Handler) http.Handler
	RequestLogging func(http.Handler) http.Handler
}

// NewRouter registers endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", method(http.MethodGet, deps.Health))
	if deps.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.Metrics))
	}

	mux.Handle("/stations", method(http.MethodGet, http.HandlerFunc(deps.Stations.List)))
	mux.Handle("/stations/nearby", method(http.MethodGet, http.HandlerFunc(deps.Stations.Nearby)))
	mux.Handle("/stations/{id}", method(http.MethodGet, http.HandlerFunc(deps.Stations.Detail)))
	if deps.Refresh != nil {
		mux.Handle("/admin/stations/refresh", method(http.MethodPost, httpmw.Chain(deps.Refresh, deps.AdminOnly)))
	}

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
