package mw

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bookshelf/internal/model"
	"bookshelf/internal/service"
)

type contextKey string

const UserCtxKey contextKey = "user"

// LegacyTokenHeader is the header older clients send the raw token in.
const LegacyTokenHeader = "x-auth-token"

type Resolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// UserFromContext returns the user Authenticate attached, or nil.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserCtxKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserCtxKey, user)
}

func deny(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": http.StatusText(status)})
}

func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return parts[1]
	}
	return r.Header.Get(LegacyTokenHeader)
}

// Authenticate resolves the request's bearer token to a user and stores
// it in the request context.
func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				deny(w, http.StatusUnauthorized)
				return
			}

			user, err := resolver.Resolve(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					deny(w, http.StatusUnauthorized)
					return
				}
				slog.Error("failed to resolve token", "error", err)
				deny(w, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must be mounted after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			deny(w, http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin {
			deny(w, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
