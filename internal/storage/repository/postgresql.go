// Package repository реализует хранилище пользователей и подписок
// на основе PostgreSQL. Ошибки драйвера переводятся в apperr:
// нарушение уникального индекса становится Conflict, неразбираемый
// идентификатор — NotFound с именем параметра.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
)

// ErrNotFound возвращается, если запись не найдена.
var ErrNotFound = errors.New("record not found")

const uniqueViolation = "23505"

// uniqueFields сопоставляет имя ограничения полю, которое попадает в сообщение.
var uniqueFields = map[string]string{
	"users_email_key": "email",
}

// querier покрывает общие методы *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage инкапсулирует соединение с PostgreSQL.
// Внутри WithTx те же методы выполняются в транзакции.
type Storage struct {
	DB *sql.DB
	q  querier
}

// New открывает пул соединений и проверяет доступность базы.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithDB(db), nil
}

// NewWithDB оборачивает уже открытый *sql.DB.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{DB: db, q: db}
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// WithTx выполняет fn в одной транзакции. Транзакция фиксируется, только
// если fn вернула nil, иначе откатывается.
func (s *Storage) WithTx(ctx context.Context, fn func(tx *Storage) error) error {
	const op = "storage.WithTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(&Storage{DB: s.DB, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("%s: rollback: %w", op, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.q.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: required table subscriptions missing")
	}
	return nil
}

// parseID проверяет, что значение параметра path является UUID.
func parseID(path, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.InvalidID(path, err)
	}
	return nil
}

// translate приводит ошибку драйвера к виду, понятному сервисам.
func translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := uniqueFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return fmt.Errorf("%s: %w", op,
			apperr.Wrap(apperr.KindConflict, "Duplicate field value entered: "+field, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
