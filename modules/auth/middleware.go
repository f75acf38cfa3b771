package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/platefeed/platefeed/core"
	"github.com/platefeed/platefeed/pkg/jwt"
	"github.com/platefeed/platefeed/pkg/logger"
)

// Gatekeeper guards routes that require an authenticated session. It
// extracts the bearer token, validates it and loads the account, then
// places the hash-stripped user into the request context.
//
// A missing token is a client mistake (400), a token that fails
// validation is unauthorized (401), and a valid token for an account
// that no longer exists is not found (404).
func Gatekeeper(tokens *jwt.Service, store Store, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Noop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := jwt.BearerTokenExtractor(r)
			if err != nil {
				httpErr := core.ErrUnauthorized.WithMessage("invalid authorization header")
				if errors.Is(err, jwt.ErrMissingToken) {
					httpErr = core.ErrBadRequest.WithMessage("token is not provided")
				}
				core.Render(w, r, core.JSONError(httpErr))
				return
			}

			claims := &Claims{}
			if err := tokens.Parse(tokenString, claims); err != nil {
				core.Render(w, r, core.JSONError(
					core.ErrUnauthorized.WithMessage("invalid or expired token"),
				))
				return
			}

			user, err := store.ByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					core.Render(w, r, core.JSONError(
						core.ErrNotFound.WithMessage("user does not exist"),
					))
					return
				}
				log.Error("gatekeeper user lookup failed",
					logger.UserID(claims.UserID),
					logger.Error(err),
					logger.Component("auth"),
				)
				core.Render(w, r, core.JSONError(core.ErrInternalServerError))
				return
			}

			ctx := WithUser(r.Context(), user.Sanitized())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
