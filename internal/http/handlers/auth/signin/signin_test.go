package signin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) SignIn(ctx context.Context, in models.SignInInput) (string, *models.User, error) {
	args := m.Called(ctx, in)
	user, _ := args.Get(1).(*models.User)
	return args.String(0), user, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSignInHandler_ServeHTTP(t *testing.T) {
	creds := models.SignInInput{Email: "alice@example.com", Password: "secret1"}
	alice := &models.User{ID: "u-1", Name: "Alice", Email: "alice@example.com"}

	tests := []struct {
		name           string
		mockToken      string
		mockUser       *models.User
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid login",
			mockToken:      "tok",
			mockUser:       alice,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unknown email",
			mockErr:        apperr.NotFound("User not found"),
			wantStatusCode: http.StatusNotFound,
			wantError:      "User not found",
		},
		{
			name:           "wrong password",
			mockErr:        apperr.Unauthorized("Invalid password"),
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "Invalid password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			svc.On("SignIn", mock.Anything, creds).Return(tt.mockToken, tt.mockUser, tt.mockErr).Once()

			b, err := json.Marshal(creds)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in", bytes.NewReader(b))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, "User signed in successfully", body["message"])
			data := body["data"].(map[string]any)
			assert.Equal(t, "tok", data["token"])
			assert.Equal(t, "u-1", data["user"].(map[string]any)["id"])
		})
	}
}

func TestSignInHandler_InvalidJSON(t *testing.T) {
	svc := new(AuthServiceMock)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in", bytes.NewReader([]byte("nope")))
	rec := httptest.NewRecorder()

	New(newNoopLogger(), svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything)
}
