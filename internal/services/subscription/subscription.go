// Package services содержит бизнес-логику для управления подписками.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-tracker/internal/subscription"
)

// Параметры выборки ближайших продлений.
const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 365
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription добавляет новую подписку и заполняет её ID.
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	// UpdateSubscription перезаписывает подписку.
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	// GetSubscription возвращает подписку по ID.
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	// ListSubscriptionsByOwner возвращает подписки владельца в порядке создания.
	ListSubscriptionsByOwner(ctx context.Context, ownerID string) ([]*models.Subscription, error)
	// ListUpcomingRenewals возвращает активные подписки с продлением в [from, to].
	ListUpcomingRenewals(ctx context.Context, ownerID string, from, to time.Time) ([]*models.Subscription, error)
}

// EventPublisher отправляет события подписок во внешнюю шину.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Event описывает сообщение об изменении подписки.
type Event struct {
	Type           string     `json:"type"`
	SubscriptionID string     `json:"subscriptionId"`
	UserID         string     `json:"userId"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Price          float64    `json:"price"`
	Currency       string     `json:"currency"`
	RenewalDate    *time.Time `json:"renewalDate,omitempty"`
	OccurredAt     time.Time  `json:"occurredAt"`
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo   SubscriptionRepository
	engine *subscription.Engine
	events EventPublisher
	log    *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
// events == nil отключает публикацию событий.
func NewSubscriptionService(repo SubscriptionRepository, engine *subscription.Engine, events EventPublisher, log *slog.Logger) *SubscriptionService {
	if events == nil {
		events = rabbitmq.NoopPublisher{}
	}
	return &SubscriptionService{
		repo:   repo,
		engine: engine,
		events: events,
		log:    log,
	}
}

// Create создаёт подписку владельца ownerID. Поле user из запроса
// не используется.
func (s *SubscriptionService) Create(ctx context.Context, ownerID string, in models.SubscriptionInput) (*models.Subscription, error) {
	const op = "services.subscription.Create"

	sub, err := s.engine.New(ownerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created new subscription", slog.String("id", sub.ID), slog.String("user", ownerID))
	s.publish(ctx, rabbitmq.RoutingSubscriptionCreated, sub)
	return sub, nil
}

// ListByOwner возвращает подписки ownerID. Запросить можно только свои подписки.
func (s *SubscriptionService) ListByOwner(ctx context.Context, requesterID, ownerID string) ([]*models.Subscription, error) {
	if requesterID != ownerID {
		return nil, apperr.Unauthorized("You are not authorized to view these subscriptions")
	}
	subs, err := s.repo.ListSubscriptionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("services.subscription.ListByOwner: %w", err)
	}
	return subs, nil
}

// Get возвращает подписку, если она принадлежит requesterID.
func (s *SubscriptionService) Get(ctx context.Context, requesterID, id string) (*models.Subscription, error) {
	return s.owned(ctx, requesterID, id, "You are not authorized to view this subscription")
}

// Cancel переводит подписку в статус cancelled. Запись проходит через
// те же правила, что и создание, поэтому подписка с прошедшей датой
// продления получит статус expired.
func (s *SubscriptionService) Cancel(ctx context.Context, requesterID, id string) (*models.Subscription, error) {
	const op = "services.subscription.Cancel"

	sub, err := s.owned(ctx, requesterID, id, "You are not authorized to cancel this subscription")
	if err != nil {
		return nil, err
	}

	sub.Status = models.StatusCancelled
	if err := s.save(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription cancelled", slog.String("id", sub.ID), slog.String("status", sub.Status))
	s.publish(ctx, rabbitmq.RoutingSubscriptionCancelled, sub)
	return sub, nil
}

// UpcomingRenewals возвращает активные подписки requesterID, которые
// продлеваются в ближайшие days дней, по возрастанию даты продления.
func (s *SubscriptionService) UpcomingRenewals(ctx context.Context, requesterID string, days int) ([]*models.Subscription, error) {
	if days == 0 {
		days = DefaultUpcomingDays
	}
	if days < 1 || days > MaxUpcomingDays {
		return nil, apperr.Validation([]string{"days"}, map[string]string{
			"days": fmt.Sprintf("days must be between 1 and %d", MaxUpcomingDays),
		})
	}

	now := s.engine.Now()
	subs, err := s.repo.ListUpcomingRenewals(ctx, requesterID, now, now.Add(time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("services.subscription.UpcomingRenewals: %w", err)
	}
	return subs, nil
}

func (s *SubscriptionService) owned(ctx context.Context, requesterID, id, deniedMsg string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Subscription not found")
	}
	if err != nil {
		return nil, fmt.Errorf("services.subscription.Get: %w", err)
	}
	if sub.UserID != requesterID {
		return nil, apperr.Unauthorized(deniedMsg)
	}
	return sub, nil
}

// save повторно применяет правила подписки и сохраняет её.
func (s *SubscriptionService) save(ctx context.Context, sub *models.Subscription) error {
	if err := s.engine.BeforeSave(sub); err != nil {
		return err
	}
	return s.repo.UpdateSubscription(ctx, sub)
}

// NewEvent собирает событие eventType для подписки sub.
func NewEvent(eventType string, sub *models.Subscription, at time.Time) Event {
	return Event{
		Type:           eventType,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Name:           sub.Name,
		Status:         sub.Status,
		Price:          sub.Price,
		Currency:       sub.Currency,
		RenewalDate:    sub.RenewalDate,
		OccurredAt:     at.UTC(),
	}
}

// publish отправляет событие. Ошибка брокера не отменяет запись.
func (s *SubscriptionService) publish(ctx context.Context, routingKey string, sub *models.Subscription) {
	event := NewEvent(routingKey, sub, s.engine.Now())
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		s.log.Warn("failed to publish subscription event",
			slog.String("routing_key", routingKey), slog.String("id", sub.ID), sl.Err(err))
	}
}
