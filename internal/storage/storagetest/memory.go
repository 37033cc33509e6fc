// Package storagetest содержит хранилище в памяти, реализующее storage.Store.
// Используется в тестах сервисов и HTTP-слоя вместо MongoDB/PostgreSQL.
package storagetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/storage"
)

type profileRow struct {
	profile models.Profile
	seq     int
}

// Memory: потокобезопасное хранилище в памяти.
// InTx откатывает все изменения, если fn вернула ошибку.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	profiles map[string]profileRow
	seq      int

	failOn map[string]error
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]models.Account),
		profiles: make(map[string]profileRow),
		failOn:   make(map[string]error),
	}
}

var _ storage.Store = (*Memory)(nil)

// FailOn заставляет метод method возвращать err. nil снимает ошибку.
func (m *Memory) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, method)
		return
	}
	m.failOn[method] = err
}

func (m *Memory) fail(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failOn[method]
}

// InTx выполняет fn и восстанавливает снимок данных при ошибке.
func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	accounts := make(map[string]models.Account, len(m.accounts))
	for k, v := range m.accounts {
		accounts[k] = v
	}
	profiles := make(map[string]profileRow, len(m.profiles))
	for k, v := range m.profiles {
		profiles[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.accounts = accounts
		m.profiles = profiles
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return m.fail("Ping") }

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateAccount(_ context.Context, account *models.Account) error {
	if err := m.fail("CreateAccount"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, a := range m.accounts {
		if a.Email == account.Email {
			return storage.ErrDuplicate
		}
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*models.Account, error) {
	if err := m.fail("GetAccount"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a.Public(), nil
}

func (m *Memory) GetAccountWithCredentials(_ context.Context, email string) (*models.Account, error) {
	if err := m.fail("GetAccountWithCredentials"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			cp := a
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Memory) UpdateAccount(_ context.Context, id string, upd models.AccountUpdate) error {
	if err := m.fail("UpdateAccount"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return storage.ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range m.accounts {
			if otherID != id && other.Email == *upd.Email {
				return storage.ErrDuplicate
			}
		}
		a.Email = *upd.Email
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	a.UpdatedAt = time.Now().UTC()
	m.accounts[id] = a
	return nil
}

func (m *Memory) SetLastLogin(_ context.Context, id string, at time.Time) error {
	if err := m.fail("SetLastLogin"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return storage.ErrNotFound
	}
	a.LastLogin = &at
	m.accounts[id] = a
	return nil
}

// SetAccountActive меняет флаг активности учётной записи. Через API флаг не меняется.
func (m *Memory) SetAccountActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.IsActive = active
		m.accounts[id] = a
	}
}

// AccountCount возвращает количество учётных записей.
func (m *Memory) AccountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *Memory) DeleteAccount(_ context.Context, id string) error {
	if err := m.fail("DeleteAccount"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *Memory) CreateProfile(_ context.Context, profile *models.Profile) error {
	if err := m.fail("CreateProfile"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.profiles {
		if row.profile.ID == profile.ID || row.profile.Email == profile.Email ||
			row.profile.AccountID == profile.AccountID {
			return storage.ErrDuplicate
		}
	}
	m.seq++
	p := *profile
	p.Account = nil
	m.profiles[p.ID] = profileRow{profile: p, seq: m.seq}
	return nil
}

// joined вызывается под блокировкой.
func (m *Memory) joined(p models.Profile) *models.Profile {
	if a, ok := m.accounts[p.AccountID]; ok {
		p.Account = a.Summary()
	}
	return &p
}

func (m *Memory) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	if err := m.fail("GetProfile"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return m.joined(row.profile), nil
}

func (m *Memory) GetProfileByAccount(_ context.Context, accountID string) (*models.Profile, error) {
	if err := m.fail("GetProfileByAccount"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.profiles {
		if row.profile.AccountID == accountID {
			return m.joined(row.profile), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Memory) ProfileEmailExists(_ context.Context, email string) (bool, error) {
	if err := m.fail("ProfileEmailExists"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.profiles {
		if row.profile.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) error {
	if err := m.fail("UpdateProfile"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.profiles[id]
	if !ok {
		return storage.ErrNotFound
	}
	p := row.profile
	if upd.Email != nil {
		for otherID, other := range m.profiles {
			if otherID != id && other.profile.Email == *upd.Email {
				return storage.ErrDuplicate
			}
		}
		p.Email = *upd.Email
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Course != nil {
		p.Course = *upd.Course
	}
	if upd.EnrollmentDate != nil {
		p.EnrollmentDate = *upd.EnrollmentDate
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
	row.profile = p
	m.profiles[id] = row
	return nil
}

func (m *Memory) DeleteProfile(_ context.Context, id string) error {
	if err := m.fail("DeleteProfile"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

func matches(p models.Profile, search string) bool {
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.Name), s) ||
		strings.Contains(strings.ToLower(p.Email), s) ||
		strings.Contains(strings.ToLower(p.Course), s)
}

func (m *Memory) ListProfiles(_ context.Context, filter models.ProfileFilter) ([]*models.Profile, int64, error) {
	if err := m.fail("ListProfiles"); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []profileRow
	for _, row := range m.profiles {
		if matches(row.profile, filter.Search) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].profile.CreatedAt.Equal(rows[j].profile.CreatedAt) {
			return rows[i].profile.CreatedAt.After(rows[j].profile.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	total := int64(len(rows))
	start := min(filter.Offset, len(rows))
	end := len(rows)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(rows))
	}

	result := make([]*models.Profile, 0, end-start)
	for _, row := range rows[start:end] {
		result = append(result, m.joined(row.profile))
	}
	return result, total, nil
}

func (m *Memory) ProfileStats(_ context.Context) (*models.Stats, error) {
	if err := m.fail("ProfileStats"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.Stats{CourseStats: []models.CourseStat{}}
	counts := make(map[string]int64)
	for _, row := range m.profiles {
		stats.TotalStudents++
		if row.profile.IsActive {
			stats.ActiveStudents++
		}
		counts[row.profile.Course]++
	}
	stats.InactiveStudents = stats.TotalStudents - stats.ActiveStudents
	stats.TotalCourses = len(counts)
	for course, count := range counts {
		stats.CourseStats = append(stats.CourseStats, models.CourseStat{Course: course, Count: count})
	}
	SortCourseStats(stats.CourseStats)
	return stats, nil
}

// SortCourseStats упорядочивает статистику по убыванию количества, затем по названию курса.
func SortCourseStats(cs []models.CourseStat) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Count != cs[j].Count {
			return cs[i].Count > cs[j].Count
		}
		return cs[i].Course < cs[j].Course
	})
}
