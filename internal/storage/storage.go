// Package storage описывает контракт хранилища учётных записей и профилей студентов
// и общие ошибки, к которым драйверы (MongoDB, PostgreSQL) приводят свои собственные.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/student-records/internal/models"
)

var (
	// ErrNotFound: запись не найдена.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate: нарушено ограничение уникальности.
	ErrDuplicate = errors.New("storage: duplicate key")
)

// AccountStore: хранилище учётных записей.
type AccountStore interface {
	// CreateAccount сохраняет новую учётную запись. Email должен быть уникальным.
	CreateAccount(ctx context.Context, account *models.Account) error
	// GetAccount возвращает учётную запись без хэша пароля.
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	// GetAccountWithCredentials возвращает учётную запись по email вместе с хэшем пароля.
	GetAccountWithCredentials(ctx context.Context, email string) (*models.Account, error)
	// UpdateAccount применяет заданные поля к учётной записи.
	UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) error
	// SetLastLogin фиксирует время последнего успешного входа.
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	// DeleteAccount удаляет учётную запись.
	DeleteAccount(ctx context.Context, id string) error
}

// ProfileStore: хранилище профилей студентов.
// Профили возвращаются вместе с публичными полями связанной учётной записи.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error)
	// ProfileEmailExists проверяет, занят ли email каким‑либо профилем.
	ProfileEmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
	DeleteProfile(ctx context.Context, id string) error
	// ListProfiles возвращает страницу профилей, отсортированных по дате создания (новые первыми),
	// и общее количество профилей, удовлетворяющих фильтру.
	ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, int64, error)
	ProfileStats(ctx context.Context) (*models.Stats, error)
}

// Store объединяет оба хранилища и транзакции поверх них.
type Store interface {
	AccountStore
	ProfileStore
	// InTx выполняет fn в одной транзакции. Все операции хранилища, вызванные
	// с переданным в fn контекстом, фиксируются или откатываются вместе.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close() error
}
