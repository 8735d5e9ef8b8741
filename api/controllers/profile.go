package controllers

import (
	"net/http"

	"github.com/eliasfjaere/utlaan-backend/api/middleware"
	"github.com/eliasfjaere/utlaan-backend/api/responses"
	"github.com/eliasfjaere/utlaan-backend/api/validators"
	"github.com/eliasfjaere/utlaan-backend/internal/users"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
)

type updateProfileRequest struct {
	Username        string `json:"username" validate:"required"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func ProfileFetch(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Profile(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ProfileUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), middleware.ActorFromContext(r.Context()), users.UpdateProfileInput{
			Username:        body.Username,
			CurrentPassword: body.CurrentPassword,
			NewPassword:     body.NewPassword,
			ConfirmPassword: body.ConfirmPassword,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
