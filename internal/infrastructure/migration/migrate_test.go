package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	t.Run("returns sorted up migrations", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000002_expenses.up.sql", "000002_expenses.down.sql",
			"000001_init.up.sql", "000001_init.down.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init", "000002_expenses"}, names)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestFindPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, DefaultPath), 0o755))
	nested := filepath.Join(root, "internal", "infrastructure")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, filepath.Join(root, DefaultPath), FindPath(nested))
}

func TestRepositoryMigrations(t *testing.T) {
	path := FindPath(".")
	require.NotEmpty(t, path, "repository migrations directory should be reachable")

	names, err := ListMigrations(path)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, name := range names {
		assert.FileExists(t, filepath.Join(path, name+".down.sql"))
	}
}
