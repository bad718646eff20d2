// Package upcoming реализует HTTP-обработчик ближайших продлений
// подписок текущего пользователя.
package upcoming

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service описывает выборку ближайших продлений.
type Service interface {
	UpcomingRenewals(ctx context.Context, requesterID string, days int) ([]*models.Subscription, error)
}

// Handler обрабатывает GET /subscriptions/upcoming-renewals.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Ближайшие продления
// @Description Активные подписки, которые продлеваются в ближайшие days дней (по умолчанию 7), по возрастанию даты.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param days query int false "Окно в днях, 1..365"
// @Success 200 {object} response.Response{data=[]models.Subscription}
// @Failure 400 {object} response.ErrorResponse "Некорректный параметр days"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Router /subscriptions/upcoming-renewals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.upcoming"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.Unauthenticated("No token provided"))
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(w, r, log, apperr.Wrap(apperr.KindValidation, "days must be an integer", err))
			return
		}
		// умолчание действует только без параметра, явный 0 вне диапазона
		if n == 0 {
			n = -1
		}
		days = n
	}

	subs, err := h.service.UpcomingRenewals(r.Context(), user.ID, days)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, "", subs)
}
