package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims описывает данные, хранящиеся в токене.
type Claims struct {
	UserID               string `json:"userId"`
	jwt.RegisteredClaims        // IssuedAt, ExpiresAt
}

// GenerateToken создаёт токен для пользователя userID.
func (j *MakerImpl) GenerateToken(userID string) (string, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена.
//
// Подпись проверяется раньше срока, поэтому подделанный просроченный токен
// получает ErrInvalidSignature, а честный просроченный — ErrTokenExpired.
func (j *MakerImpl) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
	return claims, nil
}
