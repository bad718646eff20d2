// Package middlewarectx содержит HTTP middleware приложения.
//
// JWTMiddleware проверяет bearer-токен в заголовке Authorization и кладёт
// найденного пользователя в контекст запроса. Обработчики достают его
// через UserFromContext.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User задаёт ключ аутентифицированного пользователя в контексте.
const User Key = "user"

// Authenticator проверяет токен и возвращает его владельца.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// JWTMiddleware возвращает middleware, который пропускает дальше только
// запросы с действительным токеном. Ошибки проверки отдаются через
// response.Fail, поэтому причина (истёк, неверный формат, нет пользователя)
// попадает в тело ответа.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				response.Fail(w, r, log, apperr.Unauthenticated("No token provided"))
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				response.Fail(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), User, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserFromContext возвращает пользователя, сохранённого JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(User).(*models.User)
	return user, ok && user != nil
}

// WithUser кладёт пользователя в контекст. Используется в тестах обработчиков.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, User, user)
}
