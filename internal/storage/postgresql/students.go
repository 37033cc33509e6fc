package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/student-records/internal/models"
)

// CreateProfile сохраняет профиль студента.
func (s *Storage) CreateProfile(ctx context.Context, p *models.Profile) error {
	const op = "postgresql.CreateProfile"

	query := `INSERT INTO students (id, name, email, course, enrollment_date, is_active,
			      account_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.q(ctx).ExecContext(ctx, query,
		p.ID, p.Name, p.Email, p.Course, p.EnrollmentDate, p.IsActive,
		p.AccountID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapError(err))
	}
	return nil
}

const profileSelect = `SELECT s.id, s.name, s.email, s.course, s.enrollment_date, s.is_active,
		       s.account_id, s.created_at, s.updated_at,
		       a.id, a.name, a.email, a.role, a.is_active, a.last_login
		  FROM students s
		  JOIN accounts a ON a.id = s.account_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*models.Profile, error) {
	var (
		p         models.Profile
		a         models.AccountSummary
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Course, &p.EnrollmentDate, &p.IsActive,
		&p.AccountID, &p.CreatedAt, &p.UpdatedAt,
		&a.ID, &a.Name, &a.Email, &role, &a.IsActive, &lastLogin); err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		a.LastLogin = &t
	}
	p.EnrollmentDate = p.EnrollmentDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Account = &a
	return &p, nil
}

// GetProfile возвращает профиль по id.
func (s *Storage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	const op = "postgresql.GetProfile"

	p, err := scanProfile(s.q(ctx).QueryRowContext(ctx, profileSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, wrapError(err))
	}
	return p, nil
}

// GetProfileByAccount возвращает профиль, принадлежащий учётной записи.
func (s *Storage) GetProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error) {
	const op = "postgresql.GetProfileByAccount"

	p, err := scanProfile(s.q(ctx).QueryRowContext(ctx, profileSelect+` WHERE s.account_id = $1`, accountID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, wrapError(err))
	}
	return p, nil
}

// ProfileEmailExists проверяет, занят ли email профилем.
func (s *Storage) ProfileEmailExists(ctx context.Context, email string) (bool, error) {
	const op = "postgresql.ProfileEmailExists"

	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// UpdateProfile применяет заданные поля. nil-поля не изменяются.
func (s *Storage) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	const op = "postgresql.UpdateProfile"

	query := `UPDATE students
			  SET name = COALESCE($2, name),
			      email = COALESCE($3, email),
			      course = COALESCE($4, course),
			      enrollment_date = COALESCE($5, enrollment_date),
			      is_active = COALESCE($6, is_active),
			      updated_at = now()
			  WHERE id = $1`
	res, err := s.q(ctx).ExecContext(ctx, query, id,
		upd.Name, upd.Email, upd.Course, upd.EnrollmentDate, upd.IsActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapError(err))
	}
	if err := expectAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteProfile удаляет профиль. Учётная запись остаётся.
func (s *Storage) DeleteProfile(ctx context.Context, id string) error {
	const op = "postgresql.DeleteProfile"

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapError(err))
	}
	if err := expectAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern возвращает шаблон ILIKE для подстроки, пустая строка означает «без фильтра».
func searchPattern(search string) string {
	if search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(search) + "%"
}

const searchWhere = ` WHERE ($1 = '' OR s.name ILIKE $1 OR s.email ILIKE $1 OR s.course ILIKE $1)`

// ListProfiles возвращает страницу профилей (новые первыми) и общее количество совпадений.
func (s *Storage) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, int64, error) {
	const op = "postgresql.ListProfiles"

	pattern := searchPattern(filter.Search)

	var total int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM students s`+searchWhere, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	limit := sql.NullInt64{Int64: int64(filter.Limit), Valid: filter.Limit > 0}
	rows, err := s.q(ctx).QueryContext(ctx,
		profileSelect+searchWhere+` ORDER BY s.created_at DESC, s.id DESC LIMIT $2 OFFSET $3`,
		pattern, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := []*models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ProfileStats считает общее и активное количество студентов и распределение по курсам.
func (s *Storage) ProfileStats(ctx context.Context) (*models.Stats, error) {
	const op = "postgresql.ProfileStats"

	stats := &models.Stats{CourseStats: []models.CourseStat{}}
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM students`).
		Scan(&stats.TotalStudents, &stats.ActiveStudents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.InactiveStudents = stats.TotalStudents - stats.ActiveStudents

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT course, COUNT(*) AS cnt FROM students GROUP BY course ORDER BY cnt DESC, course ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs models.CourseStat
		if err := rows.Scan(&cs.Course, &cs.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats.CourseStats = append(stats.CourseStats, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.TotalCourses = len(stats.CourseStats)
	return stats, nil
}
