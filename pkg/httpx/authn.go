package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gather/pkg/jwtx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer token and places its Principal on
// the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = WithPrincipal(ctx, Principal{
				Subject: claims.Subject,
				Name:    claims.Name,
				Phone:   claims.PhoneNumber,
			})
			ctx = slogx.WithAccount(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header, falling back to an
// access_token query parameter for EventSource clients that cannot set
// headers.
func bearerToken(r *http.Request) (string, bool) {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		return raw, raw != ""
	}
	if r.Method == http.MethodGet {
		if raw := r.URL.Query().Get("access_token"); raw != "" {
			return raw, true
		}
	}
	return "", false
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
