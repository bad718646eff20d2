// Package listbyowner реализует HTTP-обработчик получения подписок
// пользователя. Запросить можно только собственные подписки.
package listbyowner

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

// Service описывает выборку подписок владельца.
type Service interface {
	ListByOwner(ctx context.Context, requesterID, ownerID string) ([]*models.Subscription, error)
}

// Handler обрабатывает GET /subscriptions/user/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписки пользователя
// @Description Возвращает подписки пользователя в порядке создания. ID в пути должен совпадать с владельцем токена.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=[]models.Subscription}
// @Failure 401 {object} response.ErrorResponse "Чужие подписки или нет токена"
// @Router /subscriptions/user/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.listbyowner"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.Unauthenticated("No token provided"))
		return
	}

	subs, err := h.service.ListByOwner(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("subscriptions listed", slog.Int("count", len(subs)))
	response.JSON(w, r, http.StatusOK, "", subs)
}
