package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, u *models.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
}

// CreateUser сохраняет нового пользователя. Идентификатор и метки времени
// заполняются в переданной структуре.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, name, email, password_hash)
			  VALUES ($1, $2, $3, $4)
			  RETURNING created_at, updated_at`
	if err := s.q.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return translate(op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u := &models.User{}
	if err := scanUser(s.q.QueryRowContext(ctx, query, email), u); err != nil {
		return nil, translate(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := parseID("id", id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u := &models.User{}
	if err := scanUser(s.q.QueryRowContext(ctx, query, id), u); err != nil {
		return nil, translate(op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"

	query := `SELECT ` + userColumns + ` FROM users ORDER BY seq`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0)
	for rows.Next() {
		u := &models.User{}
		if err := scanUser(rows, u); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
