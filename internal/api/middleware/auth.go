package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/skillboard/skillboard/internal/api/respond"
	"github.com/skillboard/skillboard/internal/identity"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity carries the authenticated caller through the request context.
type Identity struct {
	Email       string
	Token       string
	TokenTenant string
}

// TokenVerifier validates a bearer token and returns the caller's email.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RequireIdentity verifies the Authorization bearer token against the
// portal's identity provider and injects the resulting Identity into the
// request context. Requests without a valid token never reach the handler.
func RequireIdentity(v TokenVerifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			email, err := v.Verify(r.Context(), token)
			if err != nil {
				respond.Error(w, err)
				return
			}

			id := Identity{
				Email:       email,
				Token:       token,
				TokenTenant: identity.TenantClaim(token),
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next(w, r.WithContext(ctx))
		}
	}
}

// IdentityFromContext returns the Identity stored by RequireIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// extractBearerToken pulls the token out of the Authorization header. The
// "Bearer" scheme is matched case-insensitively; anything else is treated
// as an absent token.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
