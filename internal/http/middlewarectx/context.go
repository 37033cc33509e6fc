package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AccountKey: ключ для аутентифицированной учётной записи в контексте.
	AccountKey Key = "account"
	// ClaimsKey: ключ для claims предъявленного токена.
	ClaimsKey Key = "claims"
)

// WithAccount кладёт учётную запись и claims в контекст.
func WithAccount(ctx context.Context, account *models.Account, claims *jwt.CustomClaims) context.Context {
	ctx = context.WithValue(ctx, AccountKey, account)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// AccountFrom возвращает учётную запись, положенную Authenticate.
func AccountFrom(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(AccountKey).(*models.Account)
	return a, ok && a != nil
}

// ClaimsFrom возвращает claims токена текущего запроса.
func ClaimsFrom(ctx context.Context) (*jwt.CustomClaims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwt.CustomClaims)
	return c, ok && c != nil
}
