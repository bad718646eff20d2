// Package list реализует HTTP-обработчик получения списка пользователей.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service описывает выборку всех пользователей.
type Service interface {
	List(ctx context.Context) ([]*models.User, error)
}

// Handler обрабатывает GET /users.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Возвращает всех пользователей в порядке регистрации. Хэши паролей не выводятся.
// @Tags Users
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.User}
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	users, err := h.service.List(r.Context())
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("users listed", slog.Int("count", len(users)))
	response.JSON(w, r, http.StatusOK, "", users)
}
