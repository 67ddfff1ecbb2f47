package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "docregistry/pkg/domain"
	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/platform/httputil"
	"docregistry/pkg/requestcontext"
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is the subset of token claims the gate needs.
type Claims struct {
	AccountID string
	Role      string
	Name      string
}

// RequireAuth rejects requests without a valid bearer token and stores the caller's
// principal on the context. A missing header is "unauthorized"; a token that fails
// signature, expiry or claim checks is "invalid_credential".
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired token"))
				return
			}

			principal, err := toPrincipal(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed token claims",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

func toPrincipal(claims *Claims) (id.Principal, error) {
	accountID, err := id.ParseAccountID(claims.AccountID)
	if err != nil {
		return id.Principal{}, err
	}
	role := id.Role(claims.Role)
	if !role.IsValid() {
		return id.Principal{}, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	return id.Principal{AccountID: accountID, Role: role, Name: claims.Name}, nil
}
