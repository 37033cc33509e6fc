// Package jwt реализует выпуск и проверку подписанных JWT токенов с идентификатором
// учётной записи, ролью и уникальным идентификатором токена (jti).
package jwt

import (
	"errors"
	"time"
)

var (
	// ErrTokenExpired: срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed: токен повреждён, подписан чужим ключом или имеет неверный формат.
	ErrTokenMalformed = errors.New("token malformed")
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для учётной записи с заданной ролью.
	GenerateToken(accountID, role string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на общем секретном ключе (HS256).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
	issuer    string
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа, TTL и издателя.
func NewJWTMaker(secretKey string, ttl time.Duration, issuer string) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		issuer:    issuer,
		now:       time.Now,
	}
}
