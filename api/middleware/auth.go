package middleware

import (
	"net/http"

	"github.com/eliasfjaere/utlaan-backend/api/responses"
	"github.com/eliasfjaere/utlaan-backend/api/validators"
	pkgAuth "github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/auth/session"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
)

type deniedRecorder interface {
	IncAuthDenied(reason string)
}

// Auth validates a bearer token and seeds the request context with the actor.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, metrics deniedRecorder, logg *logger.Logger) func(http.Handler) http.Handler {
	deny := func(reason string) {
		if metrics != nil {
			metrics.IncAuthDenied(reason)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := validators.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				deny("missing_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				deny("invalid_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				deny("missing_session_id")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					deny("revoked_session")
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			actor := pkgAuth.Actor{
				UserID:   claims.UserID,
				Username: claims.Username,
				IsAdmin:  claims.IsAdmin,
			}
			ctx := WithActor(r.Context(), actor)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":  actor.UserID.String(),
					"username": actor.Username,
					"is_admin": actor.IsAdmin,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose actor lacks the admin flag. Services
// enforce the same rule; this keeps non-admins from reaching admin routes
// at all.
func RequireAdmin(metrics deniedRecorder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if !actor.Known() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing"))
				return
			}
			if !actor.IsAdmin {
				if metrics != nil {
					metrics.IncAuthDenied("not_admin")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
