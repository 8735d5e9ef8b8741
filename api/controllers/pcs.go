package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eliasfjaere/utlaan-backend/api/middleware"
	"github.com/eliasfjaere/utlaan-backend/api/responses"
	"github.com/eliasfjaere/utlaan-backend/api/validators"
	"github.com/eliasfjaere/utlaan-backend/internal/registry"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
)

type pcRequest struct {
	OKNumber string `json:"ok_number" validate:"required"`
	Model    string `json:"model"`
	Notes    string `json:"notes"`
}

func PCList(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pcs, err := svc.ListPCs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pcs)
	}
}

func PCCreate(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body pcRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pc, err := svc.CreatePC(r.Context(), middleware.ActorFromContext(r.Context()), registry.CreatePCInput{
			OKNumber: body.OKNumber,
			Model:    body.Model,
			Notes:    body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pc)
	}
}

func PCUpdate(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "pcId"), "pcId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pcRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pc, err := svc.UpdatePC(r.Context(), middleware.ActorFromContext(r.Context()), id, registry.UpdatePCInput{
			OKNumber: body.OKNumber,
			Model:    body.Model,
			Notes:    body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pc)
	}
}

func PCDelete(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "pcId"), "pcId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePC(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
