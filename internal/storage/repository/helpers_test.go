package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-tracker/internal/migrations"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const pgPort = nat.Port("5432/tcp")

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(t *testing.T, name, email string) *models.User {
	u := &models.User{Name: name, Email: email, PasswordHash: "hashedpassword"}
	require.NoError(t, f.storage.CreateUser(context.Background(), u))
	return u
}

// CreateSubscription создает тестовую подписку
func (f *TestDataFactory) CreateSubscription(t *testing.T, ownerID, name string, start time.Time, renewal *time.Time, status string) *models.Subscription {
	sub := &models.Subscription{
		Name:          name,
		Price:         9.99,
		Currency:      "USD",
		Frequency:     "monthly",
		Category:      "Video",
		PaymentMethod: "Credit Card",
		Status:        status,
		StartDate:     start,
		RenewalDate:   renewal,
		UserID:        ownerID,
	}
	require.NoError(t, f.storage.CreateSubscription(context.Background(), sub))
	return sub
}

// countUsers возвращает количество строк в users
func countUsers(t *testing.T, storage *Storage) int {
	var count int
	require.NoError(t, storage.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	return count
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(pgPort)},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(pgPort),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err, "Failed to get host")
	port, err := postgresContainer.MappedPort(ctx, pgPort)
	require.NoError(t, err, "Failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(ctx, connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.Close()
		}
		_ = postgresContainer.Terminate(ctx)
	}

	return storage, cleanup
}
