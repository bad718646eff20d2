package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const subscriptionColumns = `id, name, price, currency, frequency, category, payment_method,
	status, start_date, renewal_date, user_id, created_at, updated_at`

func scanSubscription(row scanner, sub *models.Subscription) error {
	var renewal sql.NullTime
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Price, &sub.Currency, &sub.Frequency,
		&sub.Category, &sub.PaymentMethod, &sub.Status, &sub.StartDate, &renewal,
		&sub.UserID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return err
	}
	sub.RenewalDate = nil
	if renewal.Valid {
		t := renewal.Time
		sub.RenewalDate = &t
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// CreateSubscription вставляет подписку. Идентификатор и метки времени
// заполняются в переданной структуре.
func (s *Storage) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	query := `INSERT INTO subscriptions (id, name, price, currency, frequency, category,
			      payment_method, status, start_date, renewal_date, user_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING created_at, updated_at`
	err := s.q.QueryRowContext(ctx, query,
		sub.ID, sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category,
		sub.PaymentMethod, sub.Status, sub.StartDate, nullTime(sub.RenewalDate), sub.UserID,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return translate(op, err)
	}
	return nil
}

// UpdateSubscription перезаписывает изменяемые поля подписки.
// Владелец не меняется.
func (s *Storage) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.UpdateSubscription"
	if err := parseID("id", sub.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE subscriptions
			  SET name = $1, price = $2, currency = $3, frequency = $4, category = $5,
			      payment_method = $6, status = $7, start_date = $8, renewal_date = $9,
			      updated_at = now()
			  WHERE id = $10
			  RETURNING updated_at`
	err := s.q.QueryRowContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category,
		sub.PaymentMethod, sub.Status, sub.StartDate, nullTime(sub.RenewalDate), sub.ID,
	).Scan(&sub.UpdatedAt)
	if err != nil {
		return translate(op, err)
	}
	return nil
}

// GetSubscription возвращает подписку по идентификатору.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	if err := parseID("id", id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub := &models.Subscription{}
	if err := scanSubscription(s.q.QueryRowContext(ctx, query, id), sub); err != nil {
		return nil, translate(op, err)
	}
	return sub, nil
}

// ListSubscriptionsByOwner возвращает подписки владельца в порядке создания.
func (s *Storage) ListSubscriptionsByOwner(ctx context.Context, ownerID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByOwner"
	if err := parseID("id", ownerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY seq`
	return s.listSubscriptions(ctx, op, query, ownerID)
}

// ListUpcomingRenewals возвращает активные подписки владельца с датой
// продления в интервале [from, to], по возрастанию даты.
func (s *Storage) ListUpcomingRenewals(ctx context.Context, ownerID string, from, to time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListUpcomingRenewals"
	if err := parseID("id", ownerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			    AND status = $2
			    AND renewal_date BETWEEN $3 AND $4
			  ORDER BY renewal_date, seq`
	return s.listSubscriptions(ctx, op, query, ownerID, models.StatusActive, from, to)
}

// ListLapsedSubscriptions возвращает подписки всех пользователей, дата
// продления которых раньше now, но статус ещё не expired.
func (s *Storage) ListLapsedSubscriptions(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListLapsedSubscriptions"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status <> $1
			    AND renewal_date < $2
			  ORDER BY renewal_date, seq`
	return s.listSubscriptions(ctx, op, query, models.StatusExpired, now)
}

// ListDueRenewals возвращает активные подписки всех пользователей с датой
// продления в интервале [from, to).
func (s *Storage) ListDueRenewals(ctx context.Context, from, to time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListDueRenewals"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = $1
			    AND renewal_date >= $2
			    AND renewal_date < $3
			  ORDER BY renewal_date, seq`
	return s.listSubscriptions(ctx, op, query, models.StatusActive, from, to)
}

func (s *Storage) listSubscriptions(ctx context.Context, op, query string, args ...any) ([]*models.Subscription, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Subscription, 0)
	for rows.Next() {
		sub := &models.Subscription{}
		if err := scanSubscription(rows, sub); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
