package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiremani/calculon/logging"
	"github.com/thiremani/calculon/types"
)

func TestLoadMissingOptional(t *testing.T) {
	t.Setenv(RealEnv, "")
	cfg, err := Load(filepath.Join(t.TempDir(), FileName), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Len(t, cfg.JITOptions(), 3)
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(RealEnv, "")
	path := filepath.Join(t.TempDir(), FileName)
	cfg := &Config{Real: "float", OptLevel: 1, InlineThreshold: 50, CacheDir: "/tmp/c", LogLevel: "debug"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, types.F32, loaded.Width())
	assert.Equal(t, logging.LevelDebug, loaded.Level())
	assert.Equal(t, "/tmp/c", loaded.Cache())
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(RealEnv, "")
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("opt_level = 0\n"), 0644))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.OptLevel)
	assert.Equal(t, Default().InlineThreshold, cfg.InlineThreshold)
	assert.Equal(t, "double", cfg.Real)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv(RealEnv, "f32")
	cfg, err := Load(filepath.Join(t.TempDir(), FileName), true)
	require.NoError(t, err)
	assert.Equal(t, types.F32, cfg.Width())
}

func TestInvalid(t *testing.T) {
	t.Setenv(RealEnv, "")
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"bad real", "real = \"quad\"\n"},
		{"bad level", "opt_level = 7\n"},
		{"bad toml", "opt_level = \n"},
		{"bad log level", "log_level = \"loud\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := Load(path, false)
			assert.Error(t, err)
		})
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv(CacheEnv, "/custom/cache")
	assert.Equal(t, "/custom/cache", DefaultCacheDir())
	assert.Equal(t, "/custom/cache", Default().Cache())

	if runtime.GOOS == "linux" {
		t.Setenv(CacheEnv, "")
		t.Setenv("XDG_CACHE_HOME", "/xdg")
		assert.Equal(t, filepath.Join("/xdg", "calculon"), DefaultCacheDir())
	}
}
