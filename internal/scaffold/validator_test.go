package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExisting(t *testing.T) {
	t.Run("no existing file", func(t *testing.T) {
		assert.NoError(t, CheckExisting(filepath.Join(t.TempDir(), "veil.yml")))
	})

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "veil.yml")
		require.NoError(t, os.WriteFile(path, []byte("version: '1.0'"), 0644))

		err := CheckExisting(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
		assert.Contains(t, err.Error(), "veil init --force")
	})
}
