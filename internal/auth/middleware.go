package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/openlecture/internal/authz"
)

// contextKey is unexported so no other package can read or shadow the
// identity stored under it.
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id authz.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller stored by OptionalAuth or
// RequireAuth. A request without a valid token yields the anonymous
// (zero) Identity.
func IdentityFromContext(ctx context.Context) authz.Identity {
	id, _ := ctx.Value(identityKey).(authz.Identity)
	return id
}

// OptionalAuth resolves the caller if a valid bearer token is present and
// otherwise lets the request through as anonymous. A malformed or expired
// token is treated the same as no token.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := identityFromRequest(r, tokens); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth answers 401 unless the request carries a valid bearer token.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identityFromRequest(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// errNoBearer is returned when the Authorization header is missing or is
// not a bearer credential.
type errNoBearer struct{}

func (errNoBearer) Error() string { return "auth: no bearer token" }

// identityFromRequest reads "Authorization: Bearer <jwt>" and verifies it.
func identityFromRequest(r *http.Request, tokens *TokenService) (authz.Identity, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return authz.Identity{}, errNoBearer{}
	}
	return tokens.Verify(strings.TrimSpace(token))
}
