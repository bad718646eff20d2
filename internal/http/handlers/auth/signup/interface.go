package signup

import (
	"context"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service описывает регистрацию пользователя.
type Service interface {
	SignUp(ctx context.Context, in models.SignUpInput) (string, *models.User, error)
}
