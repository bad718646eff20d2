// Package read реализует HTTP-обработчик для получения подписки по ID.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает запросы на получение подписки по уникальному идентификатору.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения подписки.
type Service interface {
	Get(ctx context.Context, requesterID, id string) (*models.Subscription, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подписка по ID
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Success 200 {object} response.Response{data=models.Subscription}
// @Failure 401 {object} response.ErrorResponse "Подписка другого пользователя"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /subscriptions/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.Unauthenticated("No token provided"))
		return
	}

	sub, err := h.service.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, "", sub)
}
