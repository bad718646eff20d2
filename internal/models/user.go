// Package models содержит доменные структуры пользователя и подписки,
// а также входные структуры, которые принимают HTTP-обработчики.
package models

import "time"

// User представляет зарегистрированного пользователя.
// Хэш пароля никогда не попадает в JSON-ответы.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SignUpInput описывает данные для регистрации.
type SignUpInput struct {
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,emailfmt"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// SignInInput описывает учетные данные для входа.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
