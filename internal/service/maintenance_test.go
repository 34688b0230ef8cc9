package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/flowforms/internal/database"
	"github.com/jask/flowforms/internal/database/repository"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPruneRemovesOldEntries(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := repository.NewSubmissionRepo(db)

	require.NoError(t, repo.Insert(ctx, repository.Submission{ID: "new", Widget: "addons", Payload: "{}"}))
	require.NoError(t, repo.Insert(ctx, repository.Submission{ID: "old", Widget: "addons", Payload: "{}"}))
	_, err := db.ExecContext(ctx, `UPDATE submissions SET created_at = '2020-01-01 00:00:00' WHERE id = 'old'`)
	require.NoError(t, err)

	svc := &MaintenanceService{DB: db}
	n, err := svc.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	require.Nil(t, got)
	got, err = repo.Get(ctx, "new")
	require.NoError(t, err)
	require.NotNil(t, got)

	n, err = svc.Prune(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestResetKeepsSchema(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := repository.NewSubmissionRepo(db)
	require.NoError(t, repo.Insert(ctx, repository.Submission{ID: "s1", Widget: "booking", Payload: "{}"}))

	require.NoError(t, (&MaintenanceService{DB: db}).Reset(ctx))

	all, err := repo.List(ctx, repository.SubmissionFilters{})
	require.NoError(t, err)
	require.Empty(t, all)
	require.NoError(t, repo.Insert(ctx, repository.Submission{ID: "s2", Widget: "booking", Payload: "{}"}))
}

func TestMaintenanceRequiresDB(t *testing.T) {
	_, err := (&MaintenanceService{}).Prune(context.Background(), time.Hour)
	require.Error(t, err)
	require.Error(t, (&MaintenanceService{}).Reset(context.Background()))
}
