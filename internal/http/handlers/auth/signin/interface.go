package signin

import (
	"context"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service описывает вход по почте и паролю.
type Service interface {
	SignIn(ctx context.Context, in models.SignInInput) (string, *models.User, error)
}
