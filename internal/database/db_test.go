package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pliu/attention-tracker/internal/config"
	"github.com/pliu/attention-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesQueryableStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	t.Setenv(config.EnvDBPath, path)
	t.Setenv(config.EnvDatabaseURL, "")

	require.NoError(t, Init())

	_, err := os.Stat(path)
	require.NoError(t, err, "database file should exist after Init")

	s, err := Open(&config.Config{DBPath: path})
	require.NoError(t, err)
	defer s.Close()

	items, err := s.ListItems("")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInit_Repeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	t.Setenv(config.EnvDBPath, path)
	t.Setenv(config.EnvDatabaseURL, "")

	require.NoError(t, Init())

	s, err := Open(&config.Config{DBPath: path})
	require.NoError(t, err)
	require.NoError(t, s.CreateItem(&models.Item{Title: "kept"}))
	require.NoError(t, s.Close())

	require.NoError(t, Init())

	s, err = Open(&config.Config{DBPath: path})
	require.NoError(t, err)
	defer s.Close()
	items, err := s.ListItems("")
	require.NoError(t, err)
	assert.Len(t, items, 1, "a second Init must not drop existing rows")
}

func TestInitWith_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	require.NoError(t, InitWith(&config.Config{DBPath: path}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestInitWith_UnusablePathFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := InitWith(&config.Config{DBPath: filepath.Join(blocker, "test.db")})
	assert.Error(t, err)
}

func TestInitWith_FileURI(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	path := filepath.Join(dir, "nested", "test.db")

	require.NoError(t, InitWith(&config.Config{DBPath: "file:" + path + "?mode=rwc"}))

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file should be created at the URI path")

	_, err = os.Stat("file:")
	assert.True(t, os.IsNotExist(err), "no directory named after the URI scheme")
}

func TestSqliteFile(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"/data/test.db", "/data/test.db"},
		{"file:/data/test.db?mode=rwc", "/data/test.db"},
		{"file:/data/test.db", "/data/test.db"},
		{":memory:", ""},
		{"file::memory:?cache=shared", ""},
		{"file:mem.db?mode=memory", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteFile(tt.dsn), tt.dsn)
	}
}
