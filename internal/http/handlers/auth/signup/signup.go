// Package signup реализует HTTP-обработчик регистрации пользователя.
//
// Обработчик декодирует JSON с именем, почтой и паролем, передаёт их в
// сервис аутентификации и возвращает 201 с токеном и созданным
// пользователем. Валидация и проверка уникальности почты выполняются
// в сервисе, ошибки отдаются через response.Fail.
package signup

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Data описывает полезную нагрузку успешной регистрации или входа.
type Data struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Handler обрабатывает запросы регистрации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.SignUpInput true "Имя, почта и пароль"
// @Success 201 {object} response.Response{data=Data} "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/sign-up [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, log, response.BadBody(err))
		return
	}

	token, user, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	log.Info("user signed up", slog.String("user_id", user.ID))
	response.JSON(w, r, http.StatusCreated, "User created successfully", Data{Token: token, User: user})
}
