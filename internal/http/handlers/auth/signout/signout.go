// Package signout реализует выход пользователя. Токены не хранятся на
// сервере, поэтому выход сводится к ответу 200; клиент сам забывает токен.
package signout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
)

// Service описывает выход пользователя.
type Service interface {
	SignOut(ctx context.Context) error
}

// Handler обрабатывает запросы выхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Router /auth/sign-out [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "handlers.auth.signout"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.SignOut(r.Context()); err != nil {
		response.Fail(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "User signed out successfully", nil)
}
