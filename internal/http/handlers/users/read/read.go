// Package read реализует HTTP-обработчик получения пользователя по ID.
//
// ID берётся из URL; некорректный UUID и отсутствующий пользователь
// отдаются как 404. Пароль в ответ не попадает.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает запросы на получение пользователя.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис пользователей
}

// Service описывает интерфейс чтения пользователя.
type Service interface {
	GetCached(ctx context.Context, id string) (*models.User, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Пользователь по ID
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, err := h.service.GetCached(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, "User retrieved successfully", user)
}
