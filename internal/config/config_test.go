package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/config"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 16, cfg.InitialPoolSize)
	assert.Equal(t, 1024, cfg.MaxPoolSize)
	assert.Equal(t, 1000, cfg.StreamWindowSize)
	assert.Equal(t, 100, cfg.OutputFlushInterval)
	assert.Empty(t, cfg.PackagePaths)
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		config        config.Config
		expectedError string
	}{
		{
			name:          "valid config",
			config:        config.NewConfig(),
			expectedError: "",
		},
		{
			name: "negative initial pool size",
			config: config.Config{
				InitialPoolSize:     -1,
				MaxPoolSize:         8,
				StreamWindowSize:    100,
				OutputFlushInterval: 10,
			},
			expectedError: "InitialPoolSize must be non-negative, got -1",
		},
		{
			name: "initial exceeds max",
			config: config.Config{
				InitialPoolSize:     64,
				MaxPoolSize:         8,
				StreamWindowSize:    100,
				OutputFlushInterval: 10,
			},
			expectedError: "InitialPoolSize 64 exceeds MaxPoolSize 8",
		},
		{
			name: "zero stream window",
			config: config.Config{
				InitialPoolSize:     1,
				MaxPoolSize:         8,
				OutputFlushInterval: 10,
			},
			expectedError: "StreamWindowSize must be positive, got 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			}
		})
	}
}

func TestLoadFromJSON(t *testing.T) {
	data := []byte(`{"initial_pool_size": 4, "max_pool_size": 32}`)
	cfg, err := config.LoadFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.InitialPoolSize)
	assert.Equal(t, 32, cfg.MaxPoolSize)
	// Unset fields fall back to defaults.
	assert.Equal(t, config.DefaultStreamWindowSize, cfg.StreamWindowSize)
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowlang.yaml")
	content := "stream_window_size: 250\noutput_flush_interval: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.StreamWindowSize)
	assert.Equal(t, 50, cfg.OutputFlushInterval)
	assert.Equal(t, config.DefaultInitialPoolSize, cfg.InitialPoolSize)
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowlang.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

	_, err := config.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROWLANG_STREAM_WINDOW_SIZE", "77")
	t.Setenv("ROWLANG_MAX_POOL_SIZE", "256")
	t.Setenv("ROWLANG_PACKAGE_PATHS", "pkgs"+string(os.PathListSeparator)+"more")

	cfg := config.LoadFromEnv()
	assert.Equal(t, 77, cfg.StreamWindowSize)
	assert.Equal(t, 256, cfg.MaxPoolSize)
	assert.Equal(t, []string{"pkgs", "more"}, cfg.PackagePaths)
	// Untouched fields keep their defaults.
	assert.Equal(t, config.DefaultInitialPoolSize, cfg.InitialPoolSize)
}

func TestLoadFromEnv_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("ROWLANG_MAX_POOL_SIZE", "not-a-number")

	cfg := config.LoadFromEnv()
	assert.Equal(t, config.DefaultMaxPoolSize, cfg.MaxPoolSize)
}
