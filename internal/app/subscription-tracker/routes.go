// Package subscriptiontracker собирает HTTP-приложение: хранилище, кэш,
// публикацию событий, сервисы и маршруты.
package subscriptiontracker

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/subscription-tracker/docs" // swagger spec
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signin"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signout"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/testauth"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/listbyowner"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/upcoming"
	userlist "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/users/list"
	userread "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/users/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	subservice "github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	userservice "github.com/magabrotheeeer/subscription-tracker/internal/services/user"
)

// Services содержит зависимости обработчиков.
type Services struct {
	Auth          *authservice.AuthService
	Users         *userservice.UserService
	Subscriptions *subservice.SubscriptionService
	Health        health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.Admission, reg prometheus.Registerer, gatherer prometheus.Gatherer, svc Services) {
	metrics := middlewarectx.NewMetrics(reg)
	admission := middlewarectx.NewAdmission(cfg, logger, metrics)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
		cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}).Handler,
	)

	r.Get("/", health.Welcome)
	r.Get("/health", health.New(logger, svc.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(admission.Middleware)
		authenticated := middlewarectx.JWTMiddleware(svc.Auth, logger)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-up", signup.New(logger, svc.Auth).ServeHTTP)
			r.Post("/sign-in", signin.New(logger, svc.Auth).ServeHTTP)
			r.Post("/sign-out", signout.New(logger, svc.Auth).ServeHTTP)
			r.With(authenticated).Get("/test-auth", testauth.New(logger).ServeHTTP)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userlist.New(logger, svc.Users).ServeHTTP)
			r.With(authenticated).Get("/{id}", userread.New(logger, svc.Users).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", create.New(logger, svc.Subscriptions).ServeHTTP)
			r.Get("/upcoming-renewals", upcoming.New(logger, svc.Subscriptions).ServeHTTP)
			r.Get("/user/{id}", listbyowner.New(logger, svc.Subscriptions).ServeHTTP)
			r.Get("/{id}", read.New(logger, svc.Subscriptions).ServeHTTP)
			r.Put("/{id}/cancel", cancel.New(logger, svc.Subscriptions).ServeHTTP)
		})
	})
}
