package postgresql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/student-records/internal/migrations"
	"github.com/magabrotheeeer/student-records/internal/storage"
	"github.com/magabrotheeeer/student-records/internal/storage/storagetest"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, migrations.Run(s.DB, "../../../migrations"))
	return s
}

func TestStorage(t *testing.T) {
	s := setupTestDatabase(t)

	storagetest.RunStoreTests(t, func(t *testing.T) storage.Store {
		_, err := s.DB.Exec(`TRUNCATE students, accounts CASCADE`)
		require.NoError(t, err, "failed to truncate tables")
		return s
	})
}

func TestStorage_InvalidIDIsNotFound(t *testing.T) {
	s := setupTestDatabase(t)

	_, err := s.GetAccount(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetProfile(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_DeleteAccountCascades(t *testing.T) {
	s := setupTestDatabase(t)
	f := storagetest.NewFactory(s)
	p := f.Student(t, "John", "john@example.com", "Computer Science")

	require.NoError(t, s.DeleteAccount(context.Background(), p.AccountID))

	_, err := s.GetProfile(context.Background(), p.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	exists, err := s.ProfileEmailExists(context.Background(), p.Email)
	require.NoError(t, err)
	assert.False(t, exists)

}
