package controllers

import (
	"net/http"

	"github.com/eliasfjaere/utlaan-backend/api/responses"
	"github.com/eliasfjaere/utlaan-backend/api/validators"
	"github.com/eliasfjaere/utlaan-backend/internal/auth"
	pkgAuth "github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session behind the presented bearer token. A request
// without a valid token is a no-op success; the token is dead either way.
func AuthLogout(svc auth.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := validators.BearerToken(r.Header.Get("Authorization"))
		if token != "" {
			if claims, err := pkgAuth.ParseAccessToken(jwtCfg, token); err == nil {
				if err := svc.Logout(r.Context(), claims.ID); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged out"})
	}
}
