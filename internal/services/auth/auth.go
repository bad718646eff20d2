// Package services содержит логику регистрации, входа и проверки токенов.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/validation"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

var signUpMessages = validation.Messages{
	"name":              "User name is required",
	"name.min":          "User name must be at least 3 characters long",
	"name.max":          "User name must be at most 50 characters long",
	"email":             "User email is required",
	"email.emailfmt":    "Please fill a valid email address",
	"password":          "User password is required",
	"password.min":      "Password must be at least 6 characters long",
	"password.maxbytes": "Password must be at most 72 bytes long",
}

var signInMessages = validation.Messages{
	"email":    "Email is required",
	"password": "Password is required",
}

// signInRules проверяет только наличие полей; формат адреса при входе не важен.
type signInRules struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и заполняет его ID.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail возвращает пользователя по почте или repository.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TxRunner выполняет функцию в транзакции хранилища.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(users UserRepository) error) error
}

// UserLookup находит пользователя по ID для проверки токена.
// Чтение идёт в хранилище, чтобы токен удалённого пользователя сразу отклонялся.
type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// AuthService отвечает за регистрацию, вход и проверку JWT.
type AuthService struct {
	users     UserRepository
	tx        TxRunner
	lookup    UserLookup
	jwtMaker  jwt.Maker
	validator *validation.Validator
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, tx TxRunner, lookup UserLookup, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:     users,
		tx:        tx,
		lookup:    lookup,
		jwtMaker:  jwtMaker,
		validator: validation.New(nil),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp создаёт пользователя и выдаёт токен. Проверка уникальности,
// вставка и выпуск токена выполняются в одной транзакции: при любой
// ошибке пользователь не сохраняется.
func (s *AuthService) SignUp(ctx context.Context, in models.SignUpInput) (string, *models.User, error) {
	const op = "services.auth.SignUp"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in, signUpMessages); err != nil {
		return "", nil, err
	}

	var (
		token string
		user  *models.User
	)
	err := s.tx.RunInTx(ctx, func(users UserRepository) error {
		_, err := users.GetUserByEmail(ctx, in.Email)
		switch {
		case err == nil:
			return apperr.Conflict("User already exists")
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		hashed, err := password.GetHash(in.Password)
		if err != nil {
			return apperr.Internal(err)
		}

		u := &models.User{Name: in.Name, Email: in.Email, PasswordHash: hashed}
		if err := users.CreateUser(ctx, u); err != nil {
			return err
		}

		token, err = s.jwtMaker.GenerateToken(u.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		user = u
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// SignIn проверяет пароль и выдаёт токен. Неизвестная почта и неверный
// пароль различаются: 404 и 401 соответственно.
func (s *AuthService) SignIn(ctx context.Context, in models.SignInInput) (string, *models.User, error) {
	const op = "services.auth.SignIn"

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(signInRules(in), signInMessages); err != nil {
		return "", nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if !password.Matches(user.PasswordHash, in.Password) {
		return "", nil, apperr.Unauthorized("Invalid password")
	}

	token, err := s.jwtMaker.GenerateToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, apperr.Internal(err))
	}
	return token, user, nil
}

// SignOut ничего не делает: токены не хранятся на сервере.
func (s *AuthService) SignOut(_ context.Context) error {
	return nil
}

// Authenticate проверяет bearer-токен и возвращает его владельца.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "Token expired", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "Invalid token format", err)
	}

	user, err := s.lookup.Get(ctx, claims.UserID)
	if apperr.Is(err, apperr.KindNotFound) || errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "User not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("services.auth.Authenticate: %w", err)
	}
	return user, nil
}

// StorageTx запускает транзакции на repository.Storage.
type StorageTx struct {
	Storage *repository.Storage
}

// RunInTx реализует TxRunner.
func (t StorageTx) RunInTx(ctx context.Context, fn func(users UserRepository) error) error {
	return t.Storage.WithTx(ctx, func(tx *repository.Storage) error {
		return fn(tx)
	})
}
