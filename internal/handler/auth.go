package handler

import (
	"net/http"

	"bookshelf/internal/mw"
	"bookshelf/internal/service"
)

type loginResponse struct {
	Token string `json:"token"`
}

func LoginHandler(authSvc *service.AuthService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.LoginInput
		if err := decodeJSON(w, r, &req); err != nil {
			errs.Write(w, r, err)
			return
		}

		_, token, err := authSvc.Login(r.Context(), req)
		if err != nil {
			errs.Write(w, r, err)
			return
		}

		w.Header().Set("Authorization", "Bearer "+token)
		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}

// MeHandler returns the caller's own account.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, mw.UserFromContext(r.Context()))
	}
}
