package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/student-records/internal/models"
)

// CreateAccount сохраняет новую учётную запись.
func (s *Storage) CreateAccount(ctx context.Context, a *models.Account) error {
	const op = "postgresql.CreateAccount"

	query := `INSERT INTO accounts (id, name, email, password_hash, role, is_active,
			      last_login, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.q(ctx).ExecContext(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.IsActive,
		a.LastLogin, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapError(err))
	}
	return nil
}

const accountColumns = `id, name, email, password_hash, role, is_active, last_login, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		a         models.Account
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.IsActive,
		&lastLogin, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		a.LastLogin = &t
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

// GetAccount возвращает учётную запись по id без хэша пароля.
func (s *Storage) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "postgresql.GetAccount"

	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, wrapError(err))
	}
	return a.Public(), nil
}

// GetAccountWithCredentials возвращает учётную запись по email вместе с хэшем пароля.
func (s *Storage) GetAccountWithCredentials(ctx context.Context, email string) (*models.Account, error) {
	const op = "postgresql.GetAccountWithCredentials"

	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, wrapError(err))
	}
	return a, nil
}

// UpdateAccount меняет имя и/или email. Незаданные поля не изменяются.
func (s *Storage) UpdateAccount(ctx context.Context, id string, upd models.AccountUpdate) error {
	const op = "postgresql.UpdateAccount"

	query := `UPDATE accounts
			  SET name = COALESCE($2, name),
			      email = COALESCE($3, email),
			      updated_at = now()
			  WHERE id = $1`
	res, err := s.q(ctx).ExecContext(ctx, query, id, upd.Name, upd.Email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapError(err))
	}
	if err := expectAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetLastLogin фиксирует время последнего входа.
func (s *Storage) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	const op = "postgresql.SetLastLogin"

	res, err := s.q(ctx).ExecContext(ctx, `UPDATE accounts SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapError(err))
	}
	if err := expectAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteAccount удаляет учётную запись. Профиль удаляется каскадно.
func (s *Storage) DeleteAccount(ctx context.Context, id string) error {
	const op = "postgresql.DeleteAccount"

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapError(err))
	}
	if err := expectAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
