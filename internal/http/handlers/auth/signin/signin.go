// Package signin реализует HTTP-обработчик входа пользователя.
//
// Неизвестная почта даёт 404 "User not found", неверный пароль — 401
// "Invalid password". При успехе возвращается токен и пользователь.
package signin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис аутентификации
}

// New создает новый экземпляр Handler с указанными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет почту и пароль. Возвращает JWT и пользователя.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.SignInInput true "Учетные данные пользователя"
// @Success 200 {object} response.Response{data=signup.Data} "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверный пароль"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/sign-in [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SignInInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, log, response.BadBody(err))
		return
	}

	token, user, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("login success", slog.String("user_id", user.ID))
	response.JSON(w, r, http.StatusOK, "User signed in successfully", signup.Data{Token: token, User: user})
}
