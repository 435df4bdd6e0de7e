package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add retailers table", "add_retailers_table"},
		{"Add-Invoice-Index", "add_invoice_index"},
		{"ADD__PAYMENT__NOTE", "add_payment_note"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- test"), 0o644))
	}
}

func TestCreate(t *testing.T) {
	t.Run("first migration in an empty directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		f, err := Create(dir, "init ledger")
		require.NoError(t, err)
		assert.Equal(t, uint(1), f.Version)
		assert.Equal(t, "000001_init_ledger", f.Base())
		assert.Equal(t, filepath.Join(dir, "000001_init_ledger.up.sql"), f.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_init_ledger.down.sql"), f.DownPath)

		up, err := os.ReadFile(f.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "init_ledger")
		down, err := os.ReadFile(f.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback of init_ledger")
	})

	t.Run("continues the sequence", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"000001_init.up.sql", "000001_init.down.sql",
			"000009_notifications.up.sql", "000009_notifications.down.sql",
		)

		f, err := Create(dir, "payment notes")
		require.NoError(t, err)
		assert.Equal(t, "000010_payment_notes", f.Base())
	})

	t.Run("rejects empty names", func(t *testing.T) {
		_, err := Create(t.TempDir(), "!!!")
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	t.Run("sorted by version", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"000010_late.up.sql", "000010_late.down.sql",
			"000002_second.up.sql", "000002_second.down.sql",
			"000001_first.up.sql", "000001_first.down.sql",
		)

		bases, err := List(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_first", "000002_second", "000010_late"}, bases)
	})

	t.Run("ignores other files and directories", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "000001_init.up.sql", "000001_init.down.sql", "README.md", "embed.go", ".gitkeep")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000002_dir.up.sql"), 0o755))

		bases, err := List(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, bases)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		bases, err := List("/nonexistent/path/to/migrations")
		require.NoError(t, err)
		assert.Empty(t, bases)
	})
}

func TestEmbedded(t *testing.T) {
	bases, err := Embedded()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init_ledger", "000002_notifications"}, bases)
}
