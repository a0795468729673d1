package handler

import (
	"net/http"

	"bookshelf/internal/model"
	"bookshelf/internal/service"
)

type registerResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func RegisterHandler(authSvc *service.AuthService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.RegisterInput
		if err := decodeJSON(w, r, &req); err != nil {
			errs.Write(w, r, err)
			return
		}

		user, token, err := authSvc.Register(r.Context(), req)
		if err != nil {
			errs.Write(w, r, err)
			return
		}

		w.Header().Set("Authorization", "Bearer "+token)
		writeJSON(w, http.StatusCreated, registerResponse{User: user, Token: token})
	}
}
