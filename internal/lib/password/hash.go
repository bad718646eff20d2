// Package password реализует хеширование и проверку паролей через bcrypt.
//
// GetHash создаёт bcrypt-хеш со случайной солью (cost 10),
// CompareHash и Matches проверяют введённый пароль по сохранённому хешу.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost задаёт стоимость bcrypt при регистрации.
const Cost = bcrypt.DefaultCost

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Matches сообщает, соответствует ли пароль хэшу.
func Matches(originalHash, externalPassword string) bool {
	return CompareHash(originalHash, externalPassword) == nil
}
