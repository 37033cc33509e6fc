package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/student-records/internal/models"
)

// publicProjection исключает хэш пароля из выборки.
var publicProjection = bson.D{{Key: "password_hash", Value: 0}}

// CreateAccount сохраняет новую учётную запись.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	const op = "mongostore.CreateAccount"
	if err := insertOne(ctx, s.col(ColAccounts), account); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetAccount возвращает учётную запись по id без хэша пароля.
func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "mongostore.GetAccount"
	a, err := findOne[models.Account](ctx, s.col(ColAccounts),
		bson.D{{Key: "_id", Value: id}},
		options.FindOne().SetProjection(publicProjection))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// GetAccountWithCredentials возвращает учётную запись по email вместе с хэшем пароля.
func (s *Store) GetAccountWithCredentials(ctx context.Context, email string) (*models.Account, error) {
	const op = "mongostore.GetAccountWithCredentials"
	a, err := findOne[models.Account](ctx, s.col(ColAccounts), bson.D{{Key: "email", Value: email}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// UpdateAccount меняет имя и/или email. Незаданные поля не изменяются.
func (s *Store) UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) error {
	const op = "mongostore.UpdateAccount"

	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *upd.Email})
	}
	if err := updateFields(ctx, s.col(ColAccounts), id, set); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetLastLogin фиксирует время последнего входа.
func (s *Store) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	const op = "mongostore.SetLastLogin"
	if err := updateFields(ctx, s.col(ColAccounts), id, bson.D{{Key: "last_login", Value: at}}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteAccount удаляет учётную запись. Профиль удаляется вызывающим в той же транзакции.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	const op = "mongostore.DeleteAccount"
	if err := deleteByID(ctx, s.col(ColAccounts), id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// accountSummaries загружает публичные поля учётных записей по списку id.
func (s *Store) accountSummaries(ctx context.Context, ids []string) (map[string]*models.AccountSummary, error) {
	result := make(map[string]*models.AccountSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	accounts, err := findMany[models.Account](ctx, s.col(ColAccounts),
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}},
		options.Find().SetProjection(publicProjection))
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		result[a.ID] = a.Summary()
	}
	return result, nil
}
