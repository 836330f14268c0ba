// Package mw contains HTTP middleware for the kindred-api.
package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/jmylchreest/kindred-api/internal/auth"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserClaimsKey is the context key for user claims.
	UserClaimsKey ContextKey = "user_claims"
)

// UserClaims is the authenticated identity attached to a request. Plan and
// admin state are deliberately absent: they are resolved server-side per
// request so a stale token never grants paid or admin access.
type UserClaims struct {
	UserID string // Clerk user ID (sub claim)
	Email  string
	Name   string
}

// Auth returns middleware that verifies a Clerk session JWT from the
// Authorization header and attaches claims to the request context.
func Auth(verifier *auth.ClerkVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			clerkClaims, err := verifier.VerifyToken(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			claims := &UserClaims{
				UserID: clerkClaims.UserID,
				Email:  clerkClaims.Email,
				Name:   clerkClaims.DisplayName(),
			}
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserClaims retrieves user claims from context.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, ok := ctx.Value(UserClaimsKey).(*UserClaims)
	if !ok {
		return nil
	}
	return claims
}

// entitlementResolver is the slice of EntitlementService the middleware
// needs.
type entitlementResolver interface {
	Resolve(ctx context.Context, userID string) (service.Entitlement, error)
}

// RequireAdmin returns middleware that only passes users whose is_admin
// flag is set. Must run after Auth.
func RequireAdmin(entitlements entitlementResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r.Context())
			if claims == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			ent, err := entitlements.Resolve(r.Context(), claims.UserID)
			if err != nil {
				http.Error(w, `{"error":"failed to resolve entitlement"}`, http.StatusInternalServerError)
				return
			}
			if !ent.IsAdmin {
				http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
