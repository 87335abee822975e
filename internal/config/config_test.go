package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "sqlite" },
			wantErr: true,
		},
		{
			name: "file backend without data dir",
			mutate: func(c *Config) {
				c.Storage.Backend = "file"
				c.Storage.DataDir = ""
			},
			wantErr: true,
		},
		{
			name: "in-memory badger needs no data dir",
			mutate: func(c *Config) {
				c.Storage.Backend = "badger"
				c.Storage.DataDir = ""
				c.Storage.Badger.InMemory = true
			},
			wantErr: false,
		},
		{
			name: "in-memory flag does not exempt file backend",
			mutate: func(c *Config) {
				c.Storage.Backend = "file"
				c.Storage.DataDir = ""
				c.Storage.Badger.InMemory = true
			},
			wantErr: true,
		},
		{
			name:    "unknown block compression",
			mutate:  func(c *Config) { c.Storage.Badger.Compression = "lz4" },
			wantErr: true,
		},
		{
			name:    "invalid timezone",
			mutate:  func(c *Config) { c.Storage.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name: "etcd registry without endpoints",
			mutate: func(c *Config) {
				c.Registry.Backend = "etcd"
				c.Etcd.Endpoints = nil
			},
			wantErr: true,
		},
		{
			name:    "etcd section ignored for memory registry",
			mutate:  func(c *Config) { c.Etcd.Endpoints = nil },
			wantErr: false,
		},
		{
			name:    "unknown compression",
			mutate:  func(c *Config) { c.Ingest.Compression = "lz4" },
			wantErr: true,
		},
		{
			name: "async ingest without subject",
			mutate: func(c *Config) {
				c.Ingest.Async = true
				c.Ingest.Subject = ""
			},
			wantErr: true,
		},
		{
			name:    "negative ingest chunk size",
			mutate:  func(c *Config) { c.Ingest.ChunkSize = -1 },
			wantErr: true,
		},
		{
			name:    "chunking disabled",
			mutate:  func(c *Config) { c.Ingest.ChunkSize = 0 },
			wantErr: false,
		},
		{
			name:    "unknown anomaly strategy",
			mutate:  func(c *Config) { c.Analytics.Anomaly.DefaultStrategy = "zscore" },
			wantErr: true,
		},
		{
			name:    "contamination out of range",
			mutate:  func(c *Config) { c.Analytics.Anomaly.Contamination = 0.9 },
			wantErr: true,
		},
		{
			name:    "horizon above cap",
			mutate:  func(c *Config) { c.Analytics.Forecast.Horizon = 100 },
			wantErr: true,
		},
		{
			name:    "inverted correlation bands",
			mutate:  func(c *Config) { c.Analytics.Thresholds.Correlation.Strong = 0.2 },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5000, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "isolation_forest", cfg.Analytics.Anomaly.DefaultStrategy)
	assert.Equal(t, int64(42), cfg.Analytics.Anomaly.Seed)
	assert.Equal(t, 6, cfg.Analytics.Forecast.Horizon)
	assert.Equal(t, 3, cfg.Analytics.Forecast.MultiHorizon)
	assert.Equal(t, 28.0, cfg.Analytics.Thresholds.Classification.TempHigh)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesAndKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: 8088
storage:
  timezone: "+09:00"
analytics:
  anomaly:
    default_strategy: iqr
  thresholds:
    classification:
      temp_high: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.HTTPPort)
	assert.Equal(t, "iqr", cfg.Analytics.Anomaly.DefaultStrategy)
	assert.Equal(t, 30.0, cfg.Analytics.Thresholds.Classification.TempHigh)
	// siblings of an overridden key keep their defaults
	assert.Equal(t, 15.0, cfg.Analytics.Thresholds.Classification.TempLow)
	assert.Equal(t, 0.7, cfg.Analytics.Thresholds.Correlation.Strong)
	assert.Equal(t, 100, cfg.Analytics.Anomaly.Trees)

	_, offset := time.Unix(0, 0).In(cfg.Storage.Location()).Zone()
	assert.Equal(t, 9*3600, offset)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CLIMATIX_SERVER_HTTP_PORT", "9099")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9099, cfg.Server.HTTPPort)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)

	cfg := LoadOrDefault(path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.IsProduction())

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	assert.True(t, cfg.IsDevelopment())

	assert.Equal(t, "data/readings.csv", cfg.GetDataPath("readings.csv"))
	assert.Equal(t, "0.0.0.0:5000", cfg.GetServerAddress())
	assert.Equal(t, "data/wal", cfg.Storage.WALDir())
}

func TestEnsureDirectories_WAL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()

	require.NoError(t, cfg.EnsureDirectories())
	_, err := os.Stat(cfg.Storage.WALDir())
	assert.True(t, os.IsNotExist(err))

	cfg.Storage.MemoryStore.WAL.Enabled = true
	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(cfg.Storage.WALDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cfg.Storage.DataDir = ""
	assert.Error(t, cfg.Storage.Validate())
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in         string
		wantOffset int
		wantErr    bool
	}{
		{"UTC", 0, false},
		{"+09:00", 9 * 3600, false},
		{"-05:30", -(5*3600 + 30*60), false},
		{"+25:00", 0, true},
		{"nowhere", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc, err := ParseLocation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestStorageLocation_FallsBackToUTC(t *testing.T) {
	sc := StorageConfig{Timezone: "bogus"}
	assert.Equal(t, time.UTC, sc.Location())

	sc.Timezone = ""
	assert.Equal(t, time.UTC, sc.Location())
}
