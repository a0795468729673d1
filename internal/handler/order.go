package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/model"
	"bookshelf/internal/mw"
	"bookshelf/internal/service"
	"bookshelf/internal/validate"
)

func CreateOrderHandler(orderSvc *service.OrderService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.CreateOrderInput
		if err := decodeJSON(w, r, &req); err != nil {
			errs.Write(w, r, err)
			return
		}

		order, err := orderSvc.Create(r.Context(), mw.UserFromContext(r.Context()), req)
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

func MyOrdersHandler(orderSvc *service.OrderService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := orderSvc.ListMine(r.Context(), mw.UserFromContext(r.Context()))
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		if orders == nil {
			orders = []model.Order{}
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

func ListOrdersHandler(orderSvc *service.OrderService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := readPage(r)
		if err != nil {
			errs.Write(w, r, err)
			return
		}

		orders, err := orderSvc.List(r.Context(), page)
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		if orders == nil {
			orders = []model.Order{}
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

func CancelOrderHandler(orderSvc *service.OrderService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := orderSvc.Cancel(r.Context(), mw.UserFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func AcceptOrderHandler(orderSvc *service.OrderService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderSvc.Accept(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func CompleteOrderHandler(orderSvc *service.OrderService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := orderSvc.Complete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// readPage parses the optional skip and limit query parameters. Missing
// values fall back to the page defaults.
func readPage(r *http.Request) (model.Page, error) {
	var page model.Page
	var violations []validate.Violation

	q := r.URL.Query()
	if raw := q.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			violations = append(violations, validate.Violation{Field: "skip", Rule: "min", Param: "0"})
		}
		page.Skip = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			violations = append(violations, validate.Violation{Field: "limit", Rule: "min", Param: "1"})
		}
		page.Limit = n
	}

	if len(violations) > 0 {
		return model.Page{}, &validate.Error{Violations: violations}
	}
	return page, nil
}
