package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the authenticated user placed by Middleware.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// WithUser returns a context carrying the user. Exposed for handler tests.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Middleware extracts and verifies the bearer token, rejecting the request
// with 401 when it is missing or invalid. The storefront client treats a 401
// as a redirect to the login page.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		user, err := v.Verify(token)
		if err != nil {
			http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
