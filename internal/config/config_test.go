package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FEA_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "configs/analyzers.yaml", cfg.AnalyzersConfigPath)
	assert.Equal(t, 10*time.Second, cfg.AnalyzerTimeout)
	assert.Equal(t, 4, cfg.ScanWorkers)
	assert.InDelta(t, 20.0, cfg.MarketAvgPE, 1e-9)
	assert.False(t, cfg.Export.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FEA_DATA_DIR", t.TempDir())
	t.Setenv("FEA_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("FEA_ANALYZER_TIMEOUT", "3s")
	t.Setenv("FEA_SCAN_WORKERS", "8")
	t.Setenv("FEA_MARKET_AVG_PE", "18.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 3*time.Second, cfg.AnalyzerTimeout)
	assert.Equal(t, 8, cfg.ScanWorkers)
	assert.InDelta(t, 18.5, cfg.MarketAvgPE, 1e-9)
}

func TestLoadCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("FEA_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.DirExists(t, cfg.DataDir)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("FEA_DATA_DIR", t.TempDir())
	t.Setenv("FEA_SCAN_WORKERS", "many")
	t.Setenv("FEA_ANALYZER_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.ScanWorkers)
	assert.Equal(t, 10*time.Second, cfg.AnalyzerTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Port = -1 },
			wantErr: "invalid port",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.ScanWorkers = 0 },
			wantErr: "scan workers",
		},
		{
			name: "export without bucket",
			mutate: func(c *Config) {
				c.Export.Enabled = true
				c.Export.Bucket = ""
			},
			wantErr: "FEA_EXPORT_BUCKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Port: 8010, ScanWorkers: 4}
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
