package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/statetrie/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "./testdata/statetrie.test.yml"

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(testConfigPath)
	require.NoError(t, err)

	require.Equal(t, map[string]uint32{
		"Orchid":    0,
		"Orchid060": 10,
		"Wasabi100": 20,
	}, cfg.ProtocolConfiguration.Hardforks)
	require.Equal(t, "debug", cfg.ApplicationConfiguration.LogLevel)
	require.Equal(t, dbconfig.LevelDB, cfg.ApplicationConfiguration.DBConfiguration.Type)
	require.Equal(t, "./chains/test", cfg.ApplicationConfiguration.DBConfiguration.LevelDBOptions.DataDirectoryPath)
	require.Equal(t, 100, cfg.ApplicationConfiguration.Trie.NodeCacheSize)
	// Not set in the file.
	require.Equal(t, DefaultKeyCacheSize, cfg.ApplicationConfiguration.Trie.KeyCacheSize)
}

func TestLoadFileErrors(t *testing.T) {
	write := func(t *testing.T, content string) string {
		p := filepath.Join(t.TempDir(), "cfg.yml")
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFile(write(t, "ApplicationConfiguration:\n  Unknown: 1\n"))
		require.Error(t, err)
	})
	t.Run("unknown hardfork", func(t *testing.T) {
		_, err := LoadFile(write(t, "ProtocolConfiguration:\n  Hardforks:\n    Lovell: 1\n"))
		require.ErrorIs(t, err, ErrInvalidHardforks)
	})
	t.Run("negative cache", func(t *testing.T) {
		_, err := LoadFile(write(t, "ApplicationConfiguration:\n  Trie:\n    NodeCacheSize: -1\n"))
		require.Error(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		cfg, err := LoadFile(write(t, ""))
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})
}
