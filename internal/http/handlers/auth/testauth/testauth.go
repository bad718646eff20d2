// Package testauth отдаёт владельца токена; помогает отлаживать
// заголовок Authorization на стороне клиента.
package testauth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
)

// UserInfo описывает публичные поля владельца токена.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Response описывает тело ответа проверки токена.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

// Handler проверяет, что токен принят.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Проверка токена
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse "Токен отсутствует, истёк или неверен"
// @Router /auth/test-auth [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "handlers.auth.testauth"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.Unauthenticated("No token provided"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, Response{
		Success: true,
		Message: "Your token is valid!",
		User:    UserInfo{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}
