package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/mw"
	"bookshelf/internal/service"
	"bookshelf/internal/validate"
)

type setAdminRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

func ListUsersHandler(userSvc *service.UserService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := userSvc.List(r.Context())
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func GetUserHandler(userSvc *service.UserService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func SetAdminHandler(userSvc *service.UserService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setAdminRequest
		if err := decodeJSON(w, r, &req); err != nil {
			errs.Write(w, r, err)
			return
		}
		if req.IsAdmin == nil {
			errs.Write(w, r, &validate.Error{Violations: []validate.Violation{{Field: "isAdmin", Rule: "required"}}})
			return
		}

		user, err := userSvc.SetAdmin(r.Context(), mw.UserFromContext(r.Context()), chi.URLParam(r, "id"), *req.IsAdmin)
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
