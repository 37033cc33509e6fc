package storagetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/storage"
)

// Factory создаёт тестовые учётные записи и профили в хранилище.
type Factory struct {
	Store storage.Store
	base  time.Time
	n     int
}

// NewFactory создаёт фабрику тестовых данных.
func NewFactory(s storage.Store) *Factory {
	return &Factory{Store: s, base: time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)}
}

// Account создаёт учётную запись с заданной ролью.
func (f *Factory) Account(t *testing.T, email string, role models.Role) *models.Account {
	t.Helper()
	f.n++
	now := f.base.Add(time.Duration(f.n) * time.Second)
	a := &models.Account{
		ID:           uuid.NewString(),
		Name:         "User " + email,
		Email:        email,
		PasswordHash: "hash-" + email,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.Store.CreateAccount(context.Background(), a))
	return a
}

// Student создаёт пару учётная запись + профиль. Каждый следующий профиль
// создан позже предыдущего.
func (f *Factory) Student(t *testing.T, name, email, course string) *models.Profile {
	t.Helper()
	a := f.Account(t, email, models.RoleStudent)
	p := &models.Profile{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		Course:         course,
		EnrollmentDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
		AccountID:      a.ID,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.CreatedAt,
	}
	require.NoError(t, f.Store.CreateProfile(context.Background(), p))
	return p
}

// RunStoreTests проверяет общий контракт storage.Store. newStore должен
// возвращать пустое хранилище.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("account not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetAccount(ctx, uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.GetAccountWithCredentials(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.UpdateAccount(ctx, uuid.NewString(), models.AccountUpdate{}), storage.ErrNotFound)
		assert.ErrorIs(t, s.DeleteAccount(ctx, uuid.NewString()), storage.ErrNotFound)
	})

	t.Run("credentials only by email lookup", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		a := f.Account(t, "admin@example.com", models.RoleAdmin)

		got, err := s.GetAccount(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, got.PasswordHash)
		assert.Equal(t, models.RoleAdmin, got.Role)

		withCreds, err := s.GetAccountWithCredentials(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, a.PasswordHash, withCreds.PasswordHash)
	})

	t.Run("duplicate account email", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		f.Account(t, "dup@example.com", models.RoleStudent)

		err := s.CreateAccount(ctx, &models.Account{
			ID: uuid.NewString(), Email: "dup@example.com", PasswordHash: "x",
			Role: models.RoleStudent, IsActive: true,
		})
		assert.ErrorIs(t, err, storage.ErrDuplicate)

		other := f.Account(t, "other@example.com", models.RoleStudent)
		email := "dup@example.com"
		err = s.UpdateAccount(ctx, other.ID, models.AccountUpdate{Email: &email})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})

	t.Run("update account and last login", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		a := f.Account(t, "a@example.com", models.RoleStudent)

		name := "Renamed"
		require.NoError(t, s.UpdateAccount(ctx, a.ID, models.AccountUpdate{Name: &name}))
		at := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, s.SetLastLogin(ctx, a.ID, at))

		got, err := s.GetAccount(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "a@example.com", got.Email)
		require.NotNil(t, got.LastLogin)
		assert.True(t, at.Equal(*got.LastLogin))
	})

	t.Run("profile joined with account", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		p := f.Student(t, "John Doe", "john@example.com", "Computer Science")

		got, err := s.GetProfile(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Computer Science", got.Course)
		require.NotNil(t, got.Account)
		assert.Equal(t, p.AccountID, got.Account.ID)
		assert.Equal(t, models.RoleStudent, got.Account.Role)

		byAccount, err := s.GetProfileByAccount(ctx, p.AccountID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, byAccount.ID)

		exists, err := s.ProfileEmailExists(ctx, "john@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = s.ProfileEmailExists(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("profile not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetProfile(ctx, uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.GetProfileByAccount(ctx, uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.DeleteProfile(ctx, uuid.NewString()), storage.ErrNotFound)
		name := "x"
		assert.ErrorIs(t, s.UpdateProfile(ctx, uuid.NewString(), models.ProfileUpdate{Name: &name}), storage.ErrNotFound)
	})

	t.Run("update profile fields", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		p := f.Student(t, "Jane", "jane@example.com", "Mathematics")

		course := "Physics"
		active := false
		date := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.UpdateProfile(ctx, p.ID, models.ProfileUpdate{
			Course: &course, IsActive: &active, EnrollmentDate: &date,
		}))

		got, err := s.GetProfile(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Physics", got.Course)
		assert.False(t, got.IsActive)
		assert.True(t, date.Equal(got.EnrollmentDate))
		assert.Equal(t, "Jane", got.Name)
	})

	t.Run("list newest first with search and paging", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		for i := range 15 {
			course := "Mathematics"
			if i%5 == 0 {
				course = "Physics"
			}
			f.Student(t, fmt.Sprintf("Student %02d", i), fmt.Sprintf("s%02d@example.com", i), course)
		}

		page, total, err := s.ListProfiles(ctx, models.ProfileFilter{Limit: 10, Offset: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 15, total)
		require.Len(t, page, 5)
		assert.Equal(t, "Student 04", page[0].Name)
		assert.Equal(t, "Student 00", page[4].Name)
		assert.NotNil(t, page[0].Account)

		first, _, err := s.ListProfiles(ctx, models.ProfileFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, "Student 14", first[0].Name)

		found, total, err := s.ListProfiles(ctx, models.ProfileFilter{Search: "physics", Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		for _, p := range found {
			assert.Equal(t, "Physics", p.Course)
		}

		none, total, err := s.ListProfiles(ctx, models.ProfileFilter{Search: "(.*)", Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, none)
	})

	t.Run("stats", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		f.Student(t, "A", "a@example.com", "Physics")
		f.Student(t, "B", "b@example.com", "Mathematics")
		c := f.Student(t, "C", "c@example.com", "Mathematics")
		inactive := false
		require.NoError(t, s.UpdateProfile(ctx, c.ID, models.ProfileUpdate{IsActive: &inactive}))

		stats, err := s.ProfileStats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, stats.TotalStudents)
		assert.EqualValues(t, 2, stats.ActiveStudents)
		assert.EqualValues(t, 1, stats.InactiveStudents)
		assert.Equal(t, 2, stats.TotalCourses)
		assert.Equal(t, []models.CourseStat{
			{Course: "Mathematics", Count: 2},
			{Course: "Physics", Count: 1},
		}, stats.CourseStats)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		s := newStore(t)
		boom := errors.New("boom")
		accountID := uuid.NewString()

		err := s.InTx(ctx, func(ctx context.Context) error {
			if err := s.CreateAccount(ctx, &models.Account{
				ID: accountID, Name: "Tx", Email: "tx@example.com", PasswordHash: "x",
				Role: models.RoleStudent, IsActive: true,
			}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.GetAccount(ctx, accountID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("transaction commit", func(t *testing.T) {
		s := newStore(t)
		f := NewFactory(s)
		p := f.Student(t, "Bob", "bob@example.com", "Physics")

		err := s.InTx(ctx, func(ctx context.Context) error {
			if err := s.DeleteProfile(ctx, p.ID); err != nil {
				return err
			}
			return s.DeleteAccount(ctx, p.AccountID)
		})
		require.NoError(t, err)

		_, err = s.GetProfile(ctx, p.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.GetAccount(ctx, p.AccountID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
