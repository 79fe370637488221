package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_Save(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())
	ctx := context.Background()

	t.Run("saves artifact and creates parent directories", func(t *testing.T) {
		content := []byte("%PDF-1.3 invoice")

		err := fs.Save(ctx, filepath.Join("2025-03-25", "Invoice_INV-1_Acme.pdf"), content)

		require.NoError(t, err)
		saved, err := os.ReadFile(filepath.Join(tempDir, "2025-03-25", "Invoice_INV-1_Acme.pdf"))
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("overwrites existing artifact", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "again.pdf", []byte("original")))
		require.NoError(t, fs.Save(ctx, "again.pdf", []byte("updated")))

		content, err := fs.Read(ctx, "again.pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, filepath.Join("clean", "a.xlsx"), []byte("PK")))

		entries, err := os.ReadDir(filepath.Join(tempDir, "clean"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a.xlsx", entries[0].Name())
	})

	t.Run("saves empty file", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "empty.pdf", []byte{}))

		info, err := os.Stat(filepath.Join(tempDir, "empty.pdf"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Size())
	})

	t.Run("rejects traversal", func(t *testing.T) {
		err := fs.Save(ctx, filepath.Join("..", "..", "escape.pdf"), []byte("x"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes base directory")
	})
}

func TestLocalFileStorage_ExistsAndDelete(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "x.pdf", []byte("x")))
	assert.True(t, fs.Exists(ctx, "x.pdf"))
	assert.False(t, fs.Exists(ctx, "missing.pdf"))
	assert.False(t, fs.Exists(ctx, "../x.pdf"))

	require.NoError(t, fs.Delete(ctx, "x.pdf"))
	assert.False(t, fs.Exists(ctx, "x.pdf"))

	// Idempotent
	assert.NoError(t, fs.Delete(ctx, "x.pdf"))
}

func TestLocalFileStorage_ValidatePath(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	t.Run("accepts path within base", func(t *testing.T) {
		assert.NoError(t, fs.ValidatePath(filepath.Join(tempDir, "day", "file.pdf")))
	})

	t.Run("rejects path outside base", func(t *testing.T) {
		err := fs.ValidatePath("/etc/passwd")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes base directory")
	})

	t.Run("rejects path with similar prefix", func(t *testing.T) {
		err := fs.ValidatePath(tempDir + "_malicious/file.txt")
		assert.Error(t, err)
	})

	t.Run("rejects the base directory itself", func(t *testing.T) {
		assert.Error(t, fs.ValidatePath(tempDir))
	})
}
