// Package response формирует единые JSON-ответы HTTP-обработчиков.
//
// Успешный ответ: {"success":true,"message":...,"data":...}.
// Ошибка: {"success":false,"error":...}; код статуса выбирается по виду
// apperr.Kind в Fail, обработчики сами тела ошибок не пишут.
package response

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Response описывает успешный JSON-ответ сервера.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"User created successfully"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse описывает тело ответа с ошибкой.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"User not found"`
}

// DeniedResponse описывает тело отказа фильтра входящих запросов.
type DeniedResponse struct {
	Error string `json:"error" example:"Rate limit exceeded"`
}

// OK возвращает успешный Response.
func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}

// JSON пишет успешный ответ с кодом status.
func JSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	render.Status(r, status)
	render.JSON(w, r, OK(message, data))
}

// Fail — единый транслятор ошибок: логирует причину, выбирает код
// по виду ошибки и пишет {"success":false,"error":...}.
// Для неклассифицированных ошибок клиент получает "Server Error".
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.Int("status", status), sl.Err(err))
	} else {
		log.Warn("request rejected", slog.Int("status", status), sl.Err(err))
	}

	render.Status(r, status)
	render.JSON(w, r, Error(apperr.PublicMessage(err)))
}

// Deny пишет отказ фильтра входящих запросов.
func Deny(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, DeniedResponse{Error: msg})
}

// BadBody оборачивает ошибку разбора тела запроса.
func BadBody(err error) error {
	return apperr.Wrap(apperr.KindValidation, "Invalid request body", err)
}
