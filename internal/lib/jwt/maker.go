// Package jwt реализует выпуск и проверку подписанных bearer-токенов.
//
// Токен содержит идентификатор пользователя и стандартные поля iat/exp,
// подписывается HS256 общим секретом процесса. Смена секрета делает
// недействительными все выданные токены.
package jwt

import (
	"errors"
	"time"
)

// DefaultTTL используется, если срок жизни токена не задан в конфиге.
const DefaultTTL = time.Hour

var (
	// ErrTokenExpired возвращается для корректно подписанного, но просроченного токена.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidSignature возвращается для повреждённого, чужого или нераспознанного токена.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(userID string) (string, error)
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl. TTL <= 0 заменяется на DefaultTTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (j *MakerImpl) WithClock(now func() time.Time) *MakerImpl {
	j.now = now
	return j
}

// TTL возвращает срок жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
