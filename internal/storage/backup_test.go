package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	raws := createTestTransactions(3)
	_, err := store.SaveRawTransactions(ctx, raws)
	require.NoError(t, err)

	dest := BackupPath(store.Path(), 2)
	require.NoError(t, store.Backup(ctx, dest))

	backup, err := NewSQLiteStorage(dest)
	require.NoError(t, err)
	defer func() { _ = backup.Close() }()

	version, err := backup.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	got, err := backup.GetRawTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	err = store.Backup(ctx, dest)
	require.Error(t, err, "existing backups are never overwritten")
	assert.Contains(t, err.Error(), "already exists")
}

func TestBackup_InvalidPaths(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	tests := []struct {
		name string
		path string
	}{
		{"relative", "ledger.bak"},
		{"parent traversal", t.TempDir() + "/../ledger.bak"},
		{"quote", filepath.Join(t.TempDir(), "led'ger.bak")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Backup(context.Background(), tt.path)
			require.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestBackup_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.Backup(context.Background(), filepath.Join(t.TempDir(), "ledger.bak"))
	require.Error(t, err)
}

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "/data/ledger.db.v2.bak", BackupPath("/data/ledger.db", 2))
}
