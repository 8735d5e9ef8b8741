package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eliasfjaere/utlaan-backend/api/middleware"
	"github.com/eliasfjaere/utlaan-backend/api/responses"
	"github.com/eliasfjaere/utlaan-backend/api/validators"
	"github.com/eliasfjaere/utlaan-backend/internal/ledger"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
	"github.com/eliasfjaere/utlaan-backend/pkg/pagination"
)

// loanRequest is the JSON body shared by create and edit. Field rules beyond
// presence (item-or-stock, due date format) live in the ledger service.
type loanRequest struct {
	BorrowerName  string     `json:"borrower_name" validate:"required"`
	BorrowerPhone string     `json:"borrower_phone"`
	ClassLabel    string     `json:"class_label"`
	Item          string     `json:"item"`
	Reason        string     `json:"reason"`
	ValueLabel    string     `json:"value_label"`
	DueDate       string     `json:"due_date"`
	PCID          *uuid.UUID `json:"pc_id"`
	StockItemID   *uuid.UUID `json:"stock_item_id"`
}

func (b loanRequest) toInput() ledger.LoanInput {
	return ledger.LoanInput{
		BorrowerName:  b.BorrowerName,
		BorrowerPhone: b.BorrowerPhone,
		ClassLabel:    b.ClassLabel,
		Item:          b.Item,
		Reason:        b.Reason,
		ValueLabel:    b.ValueLabel,
		DueDate:       b.DueDate,
		PCID:          b.PCID,
		StockItemID:   b.StockItemID,
	}
}

func LoanList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := ledger.ListFilters{State: strings.TrimSpace(r.URL.Query().Get("state"))}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		list, err := svc.ListLoans(r.Context(), middleware.ActorFromContext(r.Context()), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func LoanCreate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.CreateLoan(r.Context(), middleware.ActorFromContext(r.Context()), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, loan)
	}
}

func LoanDetail(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "loanId"), "loanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.GetLoan(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loan)
	}
}

func LoanUpdate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "loanId"), "loanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.EditLoan(r.Context(), middleware.ActorFromContext(r.Context()), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loan)
	}
}

func LoanReturn(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "loanId"), "loanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReturnLoan(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func LoanDelete(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "loanId"), "loanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteLoan(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// BorrowerLast returns auto-fill defaults from a borrower's latest loan.
func BorrowerLast(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			err := pkgerrors.New(pkgerrors.CodeValidation, "query parameter name is required")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		defaults, err := svc.FindLastLoanByBorrower(r.Context(), middleware.ActorFromContext(r.Context()), name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, defaults)
	}
}
