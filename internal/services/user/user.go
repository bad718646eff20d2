// Package services содержит чтение пользователей с кэшированием в Redis.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// DefaultCacheTTL задаёт время жизни записи пользователя в кэше.
const DefaultCacheTTL = 10 * time.Minute

// UserRepository определяет чтение пользователей из хранилища.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет ключ.
	Invalidate(ctx context.Context, key string) error
}

// UserService возвращает пользователей. cache может быть nil.
type UserService struct {
	repo  UserRepository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, ttl time.Duration, log *slog.Logger) *UserService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &UserService{repo: repo, cache: cache, ttl: ttl, log: log}
}

func cacheKey(id string) string {
	return "user:" + id
}

// List возвращает всех пользователей.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("services.user.List: %w", err)
	}
	return users, nil
}

// Get возвращает пользователя по ID напрямую из хранилища.
// Если пользователя больше нет, его запись удаляется и из кэша.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.forget(ctx, id)
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("services.user.Get: %w", err)
	}
	return user, nil
}

// GetCached возвращает пользователя, сначала проверяя кэш. Запись живёт
// не дольше ttl, поэтому для проверки токена используется Get.
// Ошибки кэша не прерывают запрос: они логируются, и чтение идёт в хранилище.
func (s *UserService) GetCached(ctx context.Context, id string) (*models.User, error) {
	if s.cache == nil {
		return s.Get(ctx, id)
	}

	key := cacheKey(id)
	var cached models.User
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read user from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, user, s.ttl); err != nil {
		s.log.Warn("failed to add user to cache", slog.String("key", key), sl.Err(err))
	}
	return user, nil
}

func (s *UserService) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	key := cacheKey(id)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove user from cache", slog.String("key", key), sl.Err(err))
	}
}
