package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bookshelf/internal/mw"
	"bookshelf/internal/service"
)

type Services struct {
	Auth   *service.AuthService
	Users  *service.UserService
	Books  *service.BookService
	Orders *service.OrderService
}

type RouterOptions struct {
	Production bool
	LoginRPS   float64
	LoginBurst int
}

func NewRouter(svc Services, opts RouterOptions) http.Handler {
	errs := Errors{Production: opts.Production}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.SecurityHeaders(opts.Production))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.LegacyTokenHeader},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	authenticate := mw.Authenticate(svc.Auth)

	r.Get("/health", HealthHandler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", RegisterHandler(svc.Auth, errs))
		r.With(mw.RateLimit(opts.LoginRPS, opts.LoginBurst)).Post("/login", LoginHandler(svc.Auth, errs))
		r.With(authenticate).Get("/", MeHandler())
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", ListBooksHandler(svc.Books, errs))
		r.Get("/{id}", GetBookHandler(svc.Books, errs))
		r.With(authenticate, mw.RequireAdmin).Post("/new", CreateBookHandler(svc.Books, errs))
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.With(mw.RequireAdmin).Get("/", ListUsersHandler(svc.Users, errs))
		r.Get("/{id}", GetUserHandler(svc.Users, errs))
		r.With(mw.RequireAdmin).Put("/{id}/admin", SetAdminHandler(svc.Users, errs))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/new", CreateOrderHandler(svc.Orders, errs))
		r.Get("/my", MyOrdersHandler(svc.Orders, errs))
		r.Put("/{id}/cancel", CancelOrderHandler(svc.Orders, errs))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)
			r.Get("/", ListOrdersHandler(svc.Orders, errs))
			r.Put("/{id}/accept", AcceptOrderHandler(svc.Orders, errs))
			r.Delete("/{id}/complete", CompleteOrderHandler(svc.Orders, errs))
		})
	})

	return r
}
