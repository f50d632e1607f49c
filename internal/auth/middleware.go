package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Middleware requires a valid bearer token and stores its principal in the
// request context.
func Middleware(tokens *TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, logger, "authenticate", shared.ErrUnauthorized)
				return
			}
			principal, err := tokens.Parse(raw)
			if err != nil {
				httpx.RespondError(w, logger, "authenticate", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects principals whose role is not listed.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, logger, "authorize", shared.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, logger, "authorize", shared.ErrForbidden)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
