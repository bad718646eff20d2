package subscriptiontracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/migrations"
	authservice "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	schedulerservice "github.com/magabrotheeeer/subscription-tracker/internal/services/scheduler"
	subservice "github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	userservice "github.com/magabrotheeeer/subscription-tracker/internal/services/user"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-tracker/internal/subscription"
)

// App содержит HTTP-сервер и все его зависимости.
type App struct {
	server          *http.Server
	logger          *slog.Logger
	db              *repository.Storage
	cache           *cache.Cache
	publisher       rabbitmq.EventPublisher
	scheduler       *schedulerservice.SchedulerService
	shutdownTimeout time.Duration
}

// New подключается к хранилищу, применяет миграции, поднимает
// необязательные кэш и публикацию событий и собирает роутер.
// Пустой адрес Redis или RabbitMQ отключает соответствующую часть.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &App{logger: logger, db: db, shutdownTimeout: cfg.ShutdownTimeout}

	var userCache userservice.Cache
	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.cache = c
		userCache = c
	} else {
		logger.Info("redis address is empty, user cache disabled")
	}

	a.publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.ConnectRetries, 2*time.Second)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetSubscriptionQueues())
		if err != nil {
			_ = conn.Close()
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.publisher = rabbitmq.NewPublisher(conn, ch, cfg.Exchange)
	} else {
		logger.Info("rabbitmq url is empty, subscription events disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	engine := subscription.NewEngine(time.Now)
	userService := userservice.NewUserService(db, userCache, cfg.UserTTL, logger)

	svc := Services{
		Auth:          authservice.NewAuthService(db, authservice.StorageTx{Storage: db}, userService, jwtMaker),
		Users:         userService,
		Subscriptions: subservice.NewSubscriptionService(db, engine, a.publisher, logger),
		Health:        db,
	}

	if cfg.SchedulerEnabled {
		a.scheduler = schedulerservice.NewSchedulerService(db, engine, a.publisher, cfg.SweepInterval, logger)
	} else {
		logger.Info("scheduler disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.Admission, reg, reg, svc)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run запускает сервер и планировщик и останавливает их при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.scheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.scheduler.Run(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, stop := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer stop()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		wg.Wait()
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq publisher", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
