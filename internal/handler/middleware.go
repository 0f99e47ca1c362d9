package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	u "github.com/riteshkumar/bank-ledger/internal/utils"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthMiddleware resolves the caller from the Bearer token and stores the
// Principal in the request context. Requests without a valid token proceed
// with no principal; handlers that require one reject with 401.
func AuthMiddleware(tokens *auth.TokenIssuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				u.WriteError(w, http.StatusUnauthorized, "unauthenticated", "invalid authorization header format")
				return
			}

			principal, err := tokens.Parse(parts[1])
			if err != nil {
				u.WriteError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the resolved caller, or (nil, false) when
// the request carried no valid token.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(auth.Principal)
	return principal, ok
}

// requirePrincipal fetches the caller or writes 401 and returns false.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return nil, false
	}
	return principal, true
}
