package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// AdminTokenHeader carries the operator token.
const AdminTokenHeader = "X-Admin-Token"

// AdminToken guards operator routes. An empty token leaves them open.
func AdminToken(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.Warn("rejected admin request", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "admin token required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
