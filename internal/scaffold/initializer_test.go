package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/veil/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Run("fresh initialization", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "veil.yml")

		require.NoError(t, Initialize(path, Params{Session: "design-review"}, false))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "design-review", cfg.Session)
		assert.Empty(t, cfg.RedisURL)
		assert.Equal(t, config.Default().Policy(), cfg.Policy())
		assert.Equal(t, 0, *cfg.Pseudonym.TargetBucket)
		assert.Equal(t, "anon_", cfg.Pseudonym.Prefix)
	})

	t.Run("creates missing directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "veil.yml")
		require.NoError(t, Initialize(path, Params{}, false))
		assert.FileExists(t, path)
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "veil.yml")
		require.NoError(t, os.WriteFile(path, []byte("old content"), 0644))

		require.Error(t, Initialize(path, Params{}, false))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "old content", string(content))
	})

	t.Run("force overwrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "veil.yml")
		require.NoError(t, os.WriteFile(path, []byte("old content"), 0644))

		require.NoError(t, Initialize(path, Params{RedisURL: "redis://localhost:6390"}, true))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "default", cfg.Session)
		assert.Equal(t, "redis://localhost:6390", cfg.RedisURL)
	})
}

func TestRender(t *testing.T) {
	content, err := Render(Params{Session: "s1"})
	require.NoError(t, err)
	assert.Contains(t, string(content), "session: s1")
	assert.Contains(t, string(content), "# redis_url:")

	content, err = Render(Params{Session: "s1", RedisURL: "redis://h:1"})
	require.NoError(t, err)
	assert.Contains(t, string(content), "\nredis_url: redis://h:1")
}
