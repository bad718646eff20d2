// Package cancel реализует HTTP-обработчик отмены подписки.
//
// Отмена проходит через те же правила сохранения, что и создание: если
// дата продления уже прошла, подписка получит статус expired.
package cancel

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

// Service описывает отмену подписки.
type Service interface {
	Cancel(ctx context.Context, requesterID, id string) (*models.Subscription, error)
}

// Handler обрабатывает PUT /subscriptions/{id}/cancel.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Success 200 {object} response.Response{data=models.Subscription}
// @Failure 401 {object} response.ErrorResponse "Подписка другого пользователя"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /subscriptions/{id}/cancel [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.Unauthenticated("No token provided"))
		return
	}

	sub, err := h.service.Cancel(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("subscription cancelled", slog.String("id", sub.ID), slog.String("status", sub.Status))
	response.JSON(w, r, http.StatusOK, "Subscription cancelled successfully", sub)
}
