package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookshelf/internal/service"
)

func ListBooksHandler(bookSvc *service.BookService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books, err := bookSvc.List(r.Context())
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, books)
	}
}

func GetBookHandler(bookSvc *service.BookService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		book, err := bookSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	}
}

func CreateBookHandler(bookSvc *service.BookService, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.BookInput
		if err := decodeJSON(w, r, &req); err != nil {
			errs.Write(w, r, err)
			return
		}

		book, err := bookSvc.Create(r.Context(), req)
		if err != nil {
			errs.Write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, book)
	}
}
