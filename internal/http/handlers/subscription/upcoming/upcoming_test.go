package upcoming

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) UpcomingRenewals(ctx context.Context, requesterID string, days int) ([]*models.Subscription, error) {
	args := m.Called(ctx, requesterID, days)
	subs, _ := args.Get(0).([]*models.Subscription)
	return subs, args.Error(1)
}

func TestUpcomingHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		query          string
		wantDays       int
		callService    bool
		mockErr        error
		wantStatusCode int
	}{
		{name: "default window", query: "", wantDays: 0, callService: true, wantStatusCode: http.StatusOK},
		{name: "custom window", query: "?days=30", wantDays: 30, callService: true, wantStatusCode: http.StatusOK},
		{name: "explicit zero", query: "?days=0", wantDays: -1, callService: true,
			mockErr: apperr.Validation([]string{"days"}, map[string]string{"days": "days must be between 1 and 365"}), wantStatusCode: http.StatusBadRequest},
		{name: "not a number", query: "?days=week", wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("UpcomingRenewals", mock.Anything, "owner-1", tt.wantDays).
					Return([]*models.Subscription{}, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/upcoming-renewals"+tt.query, nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{ID: "owner-1"}))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
