package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
	requestIDKey
)

const RoleAdmin = "admin"

// AuthMiddleware trusts identity resolved upstream: the gateway in front of
// this service validates the token and forwards the stable user id and role
// as headers. This service never authenticates on its own.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}

		role := r.Header.Get("X-User-Role")
		if role == "" {
			role = "customer"
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if roleFromContext(r.Context()) != RoleAdmin {
			respondError(w, http.StatusForbidden, "permission_denied", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) uuid.UUID {
	if userID, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return userID
	}
	return uuid.Nil
}

func roleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

func isAdmin(ctx context.Context) bool {
	return roleFromContext(ctx) == RoleAdmin
}
