package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

// EmailResolver maps a token subject (email) to a user id when the token carries no user_id claim.
type EmailResolver interface {
	FindIDByEmail(ctx context.Context, email string) (int64, error)
}

// AuthMiddleware validates HMAC signed JWTs and puts the user id in the request context.
func AuthMiddleware(secret string, resolver EmailResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "invalid authorization header")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, keyFunc)
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			userID, err := extractUserID(claims)
			if err != nil && resolver != nil {
				userID, err = resolveSubject(r.Context(), claims, resolver)
			}
			if err != nil {
				logger.Debug("token without resolvable user", zap.Error(err))
				unauthorized(w, "user id not found")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, "{\"error\":%q}\n", message)
}

func extractUserID(claims jwt.MapClaims) (int64, error) {
	switch v := claims["user_id"].(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("user_id not present")
	}
}

func resolveSubject(ctx context.Context, claims jwt.MapClaims, resolver EmailResolver) (int64, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, fmt.Errorf("subject not present")
	}
	return resolver.FindIDByEmail(ctx, sub)
}

// WithUserID stores the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves userID from request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
