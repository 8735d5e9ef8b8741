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

type itemRequest struct {
	Name  string `json:"name" validate:"required"`
	Total int    `json:"total" validate:"min=0"`
}

func ItemList(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ItemCreate(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body itemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), middleware.ActorFromContext(r.Context()), registry.CreateItemInput{
			Name:  body.Name,
			Total: body.Total,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func ItemUpdate(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body itemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), middleware.ActorFromContext(r.Context()), id, registry.UpdateItemInput{
			Name:  body.Name,
			Total: body.Total,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ItemDelete(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
