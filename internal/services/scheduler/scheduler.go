// Package services содержит фоновую обработку подписок: перевод
// просроченных подписок в expired и уведомления о ближайших продлениях.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	subservice "github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-tracker/internal/subscription"
)

// SubscriptionRepository описывает выборки и запись, нужные планировщику.
type SubscriptionRepository interface {
	ListLapsedSubscriptions(ctx context.Context, now time.Time) ([]*models.Subscription, error)
	ListDueRenewals(ctx context.Context, from, to time.Time) ([]*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
}

// SchedulerService периодически обходит подписки всех пользователей.
type SchedulerService struct {
	repo     SubscriptionRepository
	engine   *subscription.Engine
	events   subservice.EventPublisher
	interval time.Duration
	log      *slog.Logger
}

// Result описывает итог одного прохода.
type Result struct {
	Expired int
	Due     int
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// events == nil отключает публикацию событий.
func NewSchedulerService(repo SubscriptionRepository, engine *subscription.Engine, events subservice.EventPublisher, interval time.Duration, log *slog.Logger) *SchedulerService {
	if events == nil {
		events = rabbitmq.NoopPublisher{}
	}
	return &SchedulerService{
		repo:     repo,
		engine:   engine,
		events:   events,
		interval: interval,
		log:      log.With(sl.Op("services.scheduler")),
	}
}

// Run выполняет проход сразу и затем раз в interval, пока не отменён ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("scheduler pass failed", sl.Err(err))
		return
	}
	s.log.Info("scheduler pass finished", slog.Int("expired", res.Expired), slog.Int("due", res.Due))
}

// RunOnce переводит подписки с прошедшей датой продления в expired и
// публикует renewal_due для активных подписок, продлевающихся до
// следующего прохода.
func (s *SchedulerService) RunOnce(ctx context.Context) (Result, error) {
	const op = "services.scheduler.RunOnce"

	var res Result
	now := s.engine.Now()

	lapsed, err := s.repo.ListLapsedSubscriptions(ctx, now)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	for _, sub := range lapsed {
		if err := s.engine.BeforeSave(sub); err != nil {
			s.log.Warn("skipping invalid subscription", slog.String("id", sub.ID), sl.Err(err))
			continue
		}
		if sub.Status != models.StatusExpired {
			continue
		}
		if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		res.Expired++
		s.publish(ctx, rabbitmq.RoutingSubscriptionExpired, sub, now)
	}

	due, err := s.repo.ListDueRenewals(ctx, now, now.Add(s.interval))
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	for _, sub := range due {
		res.Due++
		s.publish(ctx, rabbitmq.RoutingRenewalDue, sub, now)
	}

	return res, nil
}

func (s *SchedulerService) publish(ctx context.Context, routingKey string, sub *models.Subscription, at time.Time) {
	if err := s.events.Publish(ctx, routingKey, subservice.NewEvent(routingKey, sub, at)); err != nil {
		s.log.Warn("failed to publish subscription event",
			slog.String("routing_key", routingKey), slog.String("id", sub.ID), sl.Err(err))
	}
}
