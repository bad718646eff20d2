// Package create реализует HTTP-обработчик создания подписки.
//
// Владельцем подписки всегда становится пользователь из токена; поле user
// в теле запроса игнорируется. Значения по умолчанию, дата продления и
// статус вычисляются в сервисе.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler управляет HTTP-запросами на создание новых подписок.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики для создания подписок
}

// Service описывает интерфейс бизнес-логики создания подписки.
type Service interface {
	Create(ctx context.Context, ownerID string, in models.SubscriptionInput) (*models.Subscription, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Создать новую подписку
// @Description Создает подписку текущего пользователя. Дата продления вычисляется по частоте, если не передана.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.SubscriptionInput true "Данные новой подписки"
// @Success 201 {object} response.Response{data=models.Subscription} "Подписка создана"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании подписки"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.Unauthenticated("No token provided"))
		return
	}

	var req models.SubscriptionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, log, response.BadBody(err))
		return
	}

	sub, err := h.service.Create(r.Context(), user.ID, req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("subscription created", slog.String("id", sub.ID))
	response.JSON(w, r, http.StatusCreated, "", sub)
}
