// Package health содержит служебные обработчики: приветствие на корне
// и проверку готовности хранилища.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Welcome отвечает текстом на GET /.
func Welcome(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "Welcome to API")
}

// Checker проверяет доступность зависимости.
type Checker interface {
	CheckDatabaseReady(ctx context.Context) error
}

// Handler отвечает на проверку готовности.
type Handler struct {
	log     *slog.Logger
	checker Checker
}

// New создает новый Handler.
func New(log *slog.Logger, checker Checker) *Handler {
	return &Handler{
		log:     log,
		checker: checker,
	}
}

// ServeHTTP отвечает 200, если хранилище доступно и схема применена,
// иначе 503.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := h.checker.CheckDatabaseReady(r.Context()); err != nil {
		h.log.Error("database is not ready",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database is not ready"))
		return
	}

	response.JSON(w, r, http.StatusOK, "ok", nil)
}
