package middleware

import (
	"context"
	"net/http"
	"strings"

	"intercept/internal/auth"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// identityKey is the context key for the verified caller identity.
const identityKey contextKey = "identity"

// Verifier checks a bearer token and returns the identity it carries.
type Verifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Authenticate verifies the Authorization bearer token, if present, and
// stores the caller's identity in the request context. It does NOT
// enforce authentication — requests without a token pass through
// anonymous. A token that is present but invalid is rejected outright so
// a caller never silently degrades to anonymous.
func Authenticate(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no verified identity.
// Must be applied after Authenticate in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromCtx(r.Context()) == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the caller is not an admin.
// Must be applied after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromCtx(r.Context())
		if identity == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !identity.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromCtx extracts the verified identity from the request context.
// Returns nil for anonymous requests.
func IdentityFromCtx(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

// WithIdentity returns a context carrying the given identity. Used by
// tests to call handlers without going through the middleware.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
