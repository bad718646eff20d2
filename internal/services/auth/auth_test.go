package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	customjwt "github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	services "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = "0f5a3c7e-4a51-4a8e-9d3b-0c1d2e3f4a5b"
	}
	return args.Error(0)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// TxMock выполняет функцию на том же репозитории и запоминает результат
type TxMock struct {
	repo      *UserRepoMock
	calls     int
	committed bool
}

func (m *TxMock) RunInTx(_ context.Context, fn func(users services.UserRepository) error) error {
	m.calls++
	err := fn(m.repo)
	m.committed = err == nil
	return err
}

// Мок для UserLookup
type LookupMock struct {
	mock.Mock
}

func (m *LookupMock) Get(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.Claims), args.Error(1)
}

type fixture struct {
	repo   *UserRepoMock
	tx     *TxMock
	lookup *LookupMock
	jwt    *JwtMakerMock
	svc    *services.AuthService
}

func newFixture() *fixture {
	repo := new(UserRepoMock)
	f := &fixture{
		repo:   repo,
		tx:     &TxMock{repo: repo},
		lookup: new(LookupMock),
		jwt:    new(JwtMakerMock),
	}
	f.svc = services.NewAuthService(f.repo, f.tx, f.lookup, f.jwt)
	return f
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Kind
}

func notFound() error {
	return fmt.Errorf("storage.GetUserByEmail: %w", repository.ErrNotFound)
}

func TestAuthService_SignUp(t *testing.T) {
	valid := models.SignUpInput{Name: " John Doe ", Email: " John@Example.COM ", Password: "secret123"}

	t.Run("successful registration", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetUserByEmail", mock.Anything, "john@example.com").Return(nil, notFound()).Once()
		f.repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Name == "John Doe" &&
				u.Email == "john@example.com" &&
				password.Matches(u.PasswordHash, "secret123")
		})).Return(nil).Once()
		f.jwt.On("GenerateToken", "0f5a3c7e-4a51-4a8e-9d3b-0c1d2e3f4a5b").Return("jwt-token-123", nil).Once()

		token, user, err := f.svc.SignUp(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "jwt-token-123", token)
		assert.Equal(t, "0f5a3c7e-4a51-4a8e-9d3b-0c1d2e3f4a5b", user.ID)
		assert.True(t, f.tx.committed)

		f.repo.AssertExpectations(t)
		f.jwt.AssertExpectations(t)
	})

	t.Run("72-byte password is accepted", func(t *testing.T) {
		long := strings.Repeat("a", 72)
		f := newFixture()
		f.repo.On("GetUserByEmail", mock.Anything, "john@example.com").Return(nil, notFound()).Once()
		f.repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return password.Matches(u.PasswordHash, long)
		})).Return(nil).Once()
		f.jwt.On("GenerateToken", mock.Anything).Return("jwt-token-123", nil).Once()

		in := valid
		in.Password = long
		_, _, err := f.svc.SignUp(context.Background(), in)
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetUserByEmail", mock.Anything, "john@example.com").
			Return(&models.User{ID: "existing"}, nil).Once()

		_, _, err := f.svc.SignUp(context.Background(), valid)
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, kindOf(t, err))
		assert.Equal(t, "User already exists", apperr.PublicMessage(err))
		assert.False(t, f.tx.committed)
		f.repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("concurrent insert hits unique index", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetUserByEmail", mock.Anything, "john@example.com").Return(nil, notFound()).Once()
		f.repo.On("CreateUser", mock.Anything, mock.Anything).
			Return(apperr.Conflict("Duplicate field value entered: email")).Once()

		_, _, err := f.svc.SignUp(context.Background(), valid)
		assert.Equal(t, apperr.KindConflict, kindOf(t, err))
		assert.False(t, f.tx.committed)
	})

	t.Run("token error rolls back", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetUserByEmail", mock.Anything, "john@example.com").Return(nil, notFound()).Once()
		f.repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil).Once()
		f.jwt.On("GenerateToken", mock.Anything).Return("", errors.New("token error")).Once()

		_, _, err := f.svc.SignUp(context.Background(), valid)
		assert.Equal(t, apperr.KindInternal, kindOf(t, err))
		assert.False(t, f.tx.committed)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()

		_, _, err := f.svc.SignUp(context.Background(), valid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error")
	})

	validationCases := []struct {
		name    string
		in      models.SignUpInput
		wantMsg string
	}{
		{
			name:    "short name",
			in:      models.SignUpInput{Name: "Jo", Email: "jo@example.com", Password: "secret123"},
			wantMsg: "User name must be at least 3 characters long",
		},
		{
			name:    "bad email",
			in:      models.SignUpInput{Name: "John", Email: "john@", Password: "secret123"},
			wantMsg: "Please fill a valid email address",
		},
		{
			name:    "short password",
			in:      models.SignUpInput{Name: "John", Email: "john@example.com", Password: "123"},
			wantMsg: "Password must be at least 6 characters long",
		},
		{
			name:    "password longer than bcrypt accepts",
			in:      models.SignUpInput{Name: "John", Email: "john@example.com", Password: strings.Repeat("a", 80)},
			wantMsg: "Password must be at most 72 bytes long",
		},
		{
			name:    "multibyte password over 72 bytes",
			in:      models.SignUpInput{Name: "John", Email: "john@example.com", Password: strings.Repeat("пароль", 7)},
			wantMsg: "Password must be at most 72 bytes long",
		},
		{
			name:    "everything missing",
			in:      models.SignUpInput{},
			wantMsg: "User name is required, User email is required, User password is required",
		},
	}
	for _, tt := range validationCases {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, _, err := f.svc.SignUp(context.Background(), tt.in)
			assert.Equal(t, apperr.KindValidation, kindOf(t, err))
			assert.Equal(t, tt.wantMsg, apperr.PublicMessage(err))
			assert.Zero(t, f.tx.calls)
		})
	}
}

func TestAuthService_SignIn(t *testing.T) {
	rawPassword := "correctpassword"
	hashedPassword, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	testUser := &models.User{
		ID:           "user-1",
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: hashedPassword,
	}

	tests := []struct {
		name       string
		in         models.SignInInput
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantKind   apperr.Kind
		wantErr    bool
		errMsg     string
	}{
		{
			name: "successful login",
			in:   models.SignInInput{Email: "Test@Example.com", Password: rawPassword},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "user-1").Return("jwt-token-123", nil).Once()
			},
			wantToken: "jwt-token-123",
		},
		{
			name: "user not found",
			in:   models.SignInInput{Email: "nobody@example.com", Password: "password"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, notFound()).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindNotFound,
			errMsg:   "User not found",
		},
		{
			name: "wrong password",
			in:   models.SignInInput{Email: "test@example.com", Password: "wrongpassword"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindUnauthorized,
			errMsg:   "Invalid password",
		},
		{
			name:       "missing password",
			in:         models.SignInInput{Email: "test@example.com"},
			setupMocks: func(_ *UserRepoMock, _ *JwtMakerMock) {},
			wantErr:    true,
			wantKind:   apperr.KindValidation,
			errMsg:     "Password is required",
		},
		{
			name: "token generation error",
			in:   models.SignInInput{Email: "test@example.com", Password: rawPassword},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "user-1").Return("", errors.New("token error")).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindInternal,
			errMsg:   "token error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setupMocks(f.repo, f.jwt)

			token, user, err := f.svc.SignIn(context.Background(), tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, kindOf(t, err))
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, testUser, user)
			}

			f.repo.AssertExpectations(t)
			f.jwt.AssertExpectations(t)
		})
	}
}

func TestAuthService_SignOut(t *testing.T) {
	f := newFixture()
	assert.NoError(t, f.svc.SignOut(context.Background()))
}

func TestAuthService_Authenticate(t *testing.T) {
	user := &models.User{ID: "user-1", Name: "Test", Email: "test@example.com"}

	tests := []struct {
		name       string
		setupMocks func(j *JwtMakerMock, l *LookupMock)
		wantUser   *models.User
		wantMsg    string
	}{
		{
			name: "valid token",
			setupMocks: func(j *JwtMakerMock, l *LookupMock) {
				j.On("ParseToken", "token").Return(&customjwt.Claims{UserID: "user-1"}, nil).Once()
				l.On("Get", mock.Anything, "user-1").Return(user, nil).Once()
			},
			wantUser: user,
		},
		{
			name: "expired token",
			setupMocks: func(j *JwtMakerMock, _ *LookupMock) {
				j.On("ParseToken", "token").Return(nil, fmt.Errorf("jwt.ParseToken: %w", customjwt.ErrTokenExpired)).Once()
			},
			wantMsg: "Token expired",
		},
		{
			name: "malformed token",
			setupMocks: func(j *JwtMakerMock, _ *LookupMock) {
				j.On("ParseToken", "token").Return(nil, customjwt.ErrInvalidSignature).Once()
			},
			wantMsg: "Invalid token format",
		},
		{
			name: "user deleted",
			setupMocks: func(j *JwtMakerMock, l *LookupMock) {
				j.On("ParseToken", "token").Return(&customjwt.Claims{UserID: "user-1"}, nil).Once()
				l.On("Get", mock.Anything, "user-1").Return(nil, apperr.NotFound("User not found")).Once()
			},
			wantMsg: "User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setupMocks(f.jwt, f.lookup)

			got, err := f.svc.Authenticate(context.Background(), "token")
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUser, got)
			} else {
				assert.Nil(t, got)
				assert.Equal(t, apperr.KindUnauthenticated, kindOf(t, err))
				assert.Equal(t, tt.wantMsg, apperr.PublicMessage(err))
			}

			f.jwt.AssertExpectations(t)
			f.lookup.AssertExpectations(t)
		})
	}
}
