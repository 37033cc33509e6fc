// Package middlewarectx содержит HTTP middleware контроля доступа.
//
// Authenticate проверяет bearer-токен из заголовка Authorization, находит
// активную учётную запись и кладёт её в контекст запроса. Authorize пропускает
// только учётные записи с разрешёнными ролями.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/storage"
)

// TokenParser проверяет токен и возвращает его claims.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// AccountGetter находит учётную запись по id.
type AccountGetter interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// RevocationChecker сообщает, отозван ли токен при выходе.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// FailureRecorder учитывает отказы в аутентификации по причине.
type FailureRecorder interface {
	AuthFailure(reason string)
}

// Authenticator проверяет токены и находит их владельцев.
type Authenticator struct {
	log      *slog.Logger
	tokens   TokenParser
	accounts AccountGetter
	revoked  RevocationChecker
	failures FailureRecorder
}

// AuthOption настраивает Authenticator.
type AuthOption func(*Authenticator)

// WithRevocation включает проверку отозванных токенов.
func WithRevocation(rc RevocationChecker) AuthOption {
	return func(a *Authenticator) { a.revoked = rc }
}

// WithFailureRecorder включает учёт отказов.
func WithFailureRecorder(fr FailureRecorder) AuthOption {
	return func(a *Authenticator) { a.failures = fr }
}

// NewAuthenticator создаёт Authenticator.
func NewAuthenticator(log *slog.Logger, tokens TokenParser, accounts AccountGetter, opts ...AuthOption) *Authenticator {
	a := &Authenticator{log: log, tokens: tokens, accounts: accounts}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate возвращает middleware, пропускающий только запросы с действующим
// токеном активной учётной записи.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middlewarectx.Authenticate"

		log := a.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		account, claims, reason, err := a.resolve(r)
		if err != nil {
			if reason != "" {
				log.Info("authentication rejected", slog.String("reason", reason))
				if a.failures != nil {
					a.failures.AuthFailure(reason)
				}
			}
			response.Fail(w, r, log, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account, claims)))
	})
}

// resolve возвращает учётную запись и claims либо ошибку с причиной отказа.
// Пустая причина означает внутреннюю ошибку.
func (a *Authenticator) resolve(r *http.Request) (*models.Account, *jwt.CustomClaims, string, error) {
	ctx := r.Context()

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, nil, "missing_token", apperr.ErrUnauthorized
	}

	claims, err := a.tokens.ParseToken(strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, "token_expired", apperr.ErrTokenExpired
		}
		return nil, nil, "token_invalid", apperr.ErrTokenInvalid
	}

	account, err := a.accounts.GetAccount(ctx, claims.AccountID())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, "account_not_found", apperr.ErrUnauthorized
		}
		return nil, nil, "", err
	}
	if !account.IsActive {
		return nil, nil, "account_inactive", apperr.ErrUnauthorized
	}

	if a.revoked != nil && claims.ID != "" {
		revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, "", err
		}
		if revoked {
			return nil, nil, "token_revoked", apperr.ErrTokenInvalid
		}
	}

	return account.Public(), claims, "", nil
}

// Authorize возвращает middleware, пропускающий только учётные записи с одной
// из ролей roles. Должен стоять после Authenticate.
func Authorize(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFrom(r.Context())
			if !ok {
				response.Fail(w, r, sl.Discard(), apperr.ErrUnauthorized)
				return
			}
			if !slices.Contains(roles, account.Role) {
				response.Fail(w, r, sl.Discard(), apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
