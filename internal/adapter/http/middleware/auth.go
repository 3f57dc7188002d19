package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// PrincipalContextKey is the context key for the authenticated caller
	PrincipalContextKey ContextKey = "principal"
)

// AuthFailureRecorder counts rejected credentials.
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// AuthMiddleware creates an authentication middleware. recorder may be nil.
func AuthMiddleware(jwtManager *auth.JWTManager, recorder AuthFailureRecorder) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, reason, message string) {
		if recorder != nil {
			recorder.RecordAuthFailure(reason)
		}
		http.Error(w, message, http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, "missing", "missing authorization header")
				return
			}

			// Parse Bearer token
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				reject(w, "malformed", "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				if errors.Is(err, domain.ErrExpiredToken) {
					reject(w, "expired", "token expired")
					return
				}
				reject(w, "invalid", "invalid token")
				return
			}

			ctx := WithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal stores the caller identity in ctx.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// GetPrincipalFromContext extracts the authenticated caller from context.
// It returns nil when authentication is disabled.
func GetPrincipalFromContext(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(PrincipalContextKey).(*domain.Principal)
	return p
}
