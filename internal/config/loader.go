package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/climatix")
	}

	setDefaults(v)

	// CLIMATIX_SERVER_HTTP_PORT overrides server.http_port
	v.SetEnvPrefix("CLIMATIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults registers every scalar key so env overrides resolve
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.timezone", d.Storage.Timezone)
	v.SetDefault("storage.memory_store.max_size", d.Storage.MemoryStore.MaxSize)
	v.SetDefault("storage.memory_store.wal.enabled", d.Storage.MemoryStore.WAL.Enabled)
	v.SetDefault("storage.memory_store.wal.sync_writes", d.Storage.MemoryStore.WAL.SyncWrites)
	v.SetDefault("storage.memory_store.wal.max_segment_size", d.Storage.MemoryStore.WAL.MaxSegmentSize)
	v.SetDefault("storage.badger.sync_writes", d.Storage.Badger.SyncWrites)
	v.SetDefault("storage.badger.in_memory", d.Storage.Badger.InMemory)
	v.SetDefault("storage.badger.compression", d.Storage.Badger.Compression)

	v.SetDefault("etcd.endpoints", d.Etcd.Endpoints)
	v.SetDefault("etcd.dial_timeout", d.Etcd.DialTimeout)

	v.SetDefault("registry.backend", d.Registry.Backend)
	v.SetDefault("registry.prefix", d.Registry.Prefix)
	v.SetDefault("registry.cache_ttl", d.Registry.CacheTTL)
	v.SetDefault("registry.auto_register", d.Registry.AutoRegister)

	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)

	v.SetDefault("ingest.async", d.Ingest.Async)
	v.SetDefault("ingest.subject", d.Ingest.Subject)
	v.SetDefault("ingest.compression", d.Ingest.Compression)
	v.SetDefault("ingest.max_batch_size", d.Ingest.MaxBatchSize)
	v.SetDefault("ingest.chunk_size", d.Ingest.ChunkSize)

	v.SetDefault("analytics.default_period", d.Analytics.DefaultPeriod)
	v.SetDefault("analytics.forecast.horizon", d.Analytics.Forecast.Horizon)
	v.SetDefault("analytics.forecast.min_samples", d.Analytics.Forecast.MinSamples)
	v.SetDefault("analytics.forecast.multi_horizon", d.Analytics.Forecast.MultiHorizon)
	v.SetDefault("analytics.forecast.multi_min_samples", d.Analytics.Forecast.MultiMinSamples)
	v.SetDefault("analytics.forecast.max_horizon", d.Analytics.Forecast.MaxHorizon)
	v.SetDefault("analytics.correlation.min_samples", d.Analytics.Correlation.MinSamples)
	v.SetDefault("analytics.anomaly.default_strategy", d.Analytics.Anomaly.DefaultStrategy)
	v.SetDefault("analytics.anomaly.iqr_multiplier", d.Analytics.Anomaly.IQRMultiplier)
	v.SetDefault("analytics.anomaly.iqr_min_samples", d.Analytics.Anomaly.IQRMinSamples)
	v.SetDefault("analytics.anomaly.trees", d.Analytics.Anomaly.Trees)
	v.SetDefault("analytics.anomaly.max_samples", d.Analytics.Anomaly.MaxSamples)
	v.SetDefault("analytics.anomaly.contamination", d.Analytics.Anomaly.Contamination)
	v.SetDefault("analytics.anomaly.seed", d.Analytics.Anomaly.Seed)
	v.SetDefault("analytics.anomaly.forest_min_samples", d.Analytics.Anomaly.ForestMinSamples)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig decodes on top of DefaultConfig so nested sections that the
// file leaves out (thresholds in particular) keep their defaults
func parseConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			BodyLimit:    10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Backend:  "memory",
			DataDir:  "./data",
			Timezone: "UTC",
			Badger:   BadgerConfig{Compression: "zstd"},
		},
		Etcd: EtcdConfig{
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
		},
		Registry: RegistryConfig{
			Backend:      "memory",
			Prefix:       "/climatix/devices/",
			CacheTTL:     30 * time.Second,
			AutoRegister: true,
		},
		Queue: QueueConfig{
			Type: "memory",
			URL:  "nats://localhost:4222",
		},
		Ingest: IngestConfig{
			Async:        false,
			Subject:      "climatix.readings",
			Compression:  "snappy",
			MaxBatchSize: 10000,
			ChunkSize:    1000,
		},
		Analytics: AnalyticsConfig{
			DefaultPeriod: "all",
			Forecast: ForecastConfig{
				Horizon:         6,
				MinSamples:      10,
				MultiHorizon:    3,
				MultiMinSamples: 5,
				MaxHorizon:      48,
			},
			Correlation: CorrelationConfig{
				MinSamples: 10,
			},
			Anomaly: AnomalyConfig{
				DefaultStrategy:  "isolation_forest",
				IQRMultiplier:    1.5,
				IQRMinSamples:    5,
				Trees:            100,
				MaxSamples:       256,
				Contamination:    0.1,
				Seed:             42,
				ForestMinSamples: 20,
			},
			Thresholds: analytics.DefaultThresholds(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
