package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"depremkit/internal/config"
	"depremkit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	logger := zerolog.Nop()
	ctx := context.Background()

	db := New(filepath.Join(tempDir, "kit.db"), &logger)
	require.NoError(t, db.Initialize(ctx))
	t.Cleanup(func() { _ = db.Close() })

	_, err := db.Add(ctx, models.NewItem{Name: "Su", Category: models.CategoryWater, Quantity: 6, Unit: "L"})
	require.NoError(t, err)

	storagePath := filepath.Join(tempDir, "backups")
	s := NewBackupService(db, config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(ctx)
		require.NoError(t, err)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 1)

		snapshot, err := sql.Open("sqlite3", path)
		require.NoError(t, err)
		defer snapshot.Close()

		var name string
		require.NoError(t, snapshot.QueryRow(`SELECT name FROM items`).Scan(&name))
		assert.Equal(t, "Su", name)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, backupPrefix+"old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		foreign := filepath.Join(storagePath, "notes.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))

		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))

		s.CleanupOldBackups()

		_, err := os.Stat(oldFile)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(foreign)
		assert.NoError(t, err)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})
}

func TestBackupService_NotInitialized(t *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(New(":memory:", &logger), config.BackupConfig{StoragePath: t.TempDir()}, &logger)

	_, err := s.PerformBackup(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBackupService_Disabled(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(New(":memory:", &logger), config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}
