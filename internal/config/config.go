package config

import (
	"fmt"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Etcd      EtcdConfig      `mapstructure:"etcd"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"` // Max request body in bytes
}

// StorageConfig represents the reading store configuration
type StorageConfig struct {
	Backend     string            `mapstructure:"backend"`  // memory (default), file, badger
	DataDir     string            `mapstructure:"data_dir"` // Root directory for file and badger backends
	Timezone    string            `mapstructure:"timezone"` // Timezone for hour/day derivation (e.g., "Asia/Tokyo", "+09:00", "UTC")
	MemoryStore MemoryStoreConfig `mapstructure:"memory_store"`
	Badger      BadgerConfig      `mapstructure:"badger"`
}

// MemoryStoreConfig bounds the in-memory backend
type MemoryStoreConfig struct {
	MaxSize int       `mapstructure:"max_size"` // Readings kept per device, oldest dropped first. 0 means unbounded
	WAL     WALConfig `mapstructure:"wal"`
}

// WALConfig journals memory store appends under <data_dir>/wal so the
// store is rebuilt on restart
type WALConfig struct {
	Enabled        bool  `mapstructure:"enabled"`
	SyncWrites     bool  `mapstructure:"sync_writes"`
	MaxSegmentSize int64 `mapstructure:"max_segment_size"` // bytes, 0 uses the package default
}

// BadgerConfig tunes the badger backend
type BadgerConfig struct {
	SyncWrites  bool   `mapstructure:"sync_writes"`
	InMemory    bool   `mapstructure:"in_memory"`
	Compression string `mapstructure:"compression"` // Block framing: none, snappy, zstd
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// RegistryConfig represents the device registry configuration
type RegistryConfig struct {
	Backend      string        `mapstructure:"backend"`       // memory (default), etcd
	Prefix       string        `mapstructure:"prefix"`        // Key prefix in etcd
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`     // Read cache in front of etcd, 0 disables it
	AutoRegister bool          `mapstructure:"auto_register"` // Register unknown devices on first ingest
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// NATS-specific options
	NATSStream string `mapstructure:"nats_stream"` // JetStream stream name prefix (default: "climatix")

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "climatix")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "climatix-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)
	RedisMaxLen   int64  `mapstructure:"redis_max_len"`  // Approximate cap on batches kept per stream (0 = unbounded)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// IngestConfig controls how readings travel from the HTTP edge to the store
type IngestConfig struct {
	Async        bool   `mapstructure:"async"`          // Publish batches on the queue instead of writing directly
	Subject      string `mapstructure:"subject"`        // Queue subject carrying reading batches
	Compression  string `mapstructure:"compression"`    // none, snappy, zstd
	MaxBatchSize int    `mapstructure:"max_batch_size"` // Max records accepted per request
	ChunkSize    int    `mapstructure:"chunk_size"`     // Async batches above this many readings are split (0 = never)
}

// AnalyticsConfig holds engine settings and the thresholds
type AnalyticsConfig struct {
	DefaultPeriod string               `mapstructure:"default_period"` // day, week, month, all
	Forecast      ForecastConfig       `mapstructure:"forecast"`
	Correlation   CorrelationConfig    `mapstructure:"correlation"`
	Anomaly       AnomalyConfig        `mapstructure:"anomaly"`
	Thresholds    analytics.Thresholds `mapstructure:"thresholds"`
}

// ForecastConfig configures the trend forecaster
type ForecastConfig struct {
	Horizon         int `mapstructure:"horizon"`           // Single channel default steps
	MinSamples      int `mapstructure:"min_samples"`       // Single channel minimum
	MultiHorizon    int `mapstructure:"multi_horizon"`     // Multi channel default steps
	MultiMinSamples int `mapstructure:"multi_min_samples"` // Per channel minimum in multi mode
	MaxHorizon      int `mapstructure:"max_horizon"`
}

// CorrelationConfig configures the correlation analyzer
type CorrelationConfig struct {
	MinSamples int `mapstructure:"min_samples"`
}

// AnomalyConfig configures the anomaly detectors
type AnomalyConfig struct {
	DefaultStrategy  string  `mapstructure:"default_strategy"` // iqr, isolation_forest
	IQRMultiplier    float64 `mapstructure:"iqr_multiplier"`
	IQRMinSamples    int     `mapstructure:"iqr_min_samples"`
	Trees            int     `mapstructure:"trees"`
	MaxSamples       int     `mapstructure:"max_samples"`
	Contamination    float64 `mapstructure:"contamination"`
	Seed             int64   `mapstructure:"seed"`
	ForestMinSamples int     `mapstructure:"forest_min_samples"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry config: %w", err)
	}

	// etcd settings only matter when something talks to etcd
	if c.Registry.Backend == "etcd" {
		if err := c.Etcd.Validate(); err != nil {
			return fmt.Errorf("etcd config: %w", err)
		}
	}

	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}

	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "", "memory":
	case "file", "badger":
		if c.DataDir == "" && !(c.Backend == "badger" && c.Badger.InMemory) {
			return fmt.Errorf("data_dir is required for %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("storage.backend must be one of: memory, file, badger")
	}

	switch c.Badger.Compression {
	case "", "none", "snappy", "zstd":
	default:
		return fmt.Errorf("storage.badger.compression must be one of: none, snappy, zstd")
	}

	if c.MemoryStore.MaxSize < 0 {
		return fmt.Errorf("memory_store.max_size cannot be negative")
	}

	if c.MemoryStore.WAL.Enabled && c.DataDir == "" {
		return fmt.Errorf("data_dir is required when memory_store.wal is enabled")
	}
	if c.MemoryStore.WAL.MaxSegmentSize < 0 {
		return fmt.Errorf("memory_store.wal.max_segment_size cannot be negative")
	}

	if c.Timezone != "" {
		if _, err := ParseLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}

	return nil
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}

	return nil
}

// Validate validates registry configuration
func (c *RegistryConfig) Validate() error {
	if c.Backend != "" && c.Backend != "memory" && c.Backend != "etcd" {
		return fmt.Errorf("registry.backend must be 'memory' or 'etcd'")
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("registry.cache_ttl cannot be negative")
	}

	return nil
}

// Validate validates ingest configuration
func (c *IngestConfig) Validate() error {
	if c.Async && c.Subject == "" {
		return fmt.Errorf("ingest.subject is required when ingest.async is enabled")
	}

	switch c.Compression {
	case "", "none", "snappy", "zstd":
	default:
		return fmt.Errorf("ingest.compression must be one of: none, snappy, zstd")
	}

	if c.MaxBatchSize < 1 {
		return fmt.Errorf("ingest.max_batch_size must be at least 1")
	}

	if c.ChunkSize < 0 {
		return fmt.Errorf("ingest.chunk_size must not be negative")
	}

	return nil
}

// Validate validates analytics configuration
func (c *AnalyticsConfig) Validate() error {
	switch c.DefaultPeriod {
	case "", "day", "week", "month", "all":
	default:
		return fmt.Errorf("analytics.default_period must be one of: day, week, month, all")
	}

	f := c.Forecast
	if f.MinSamples < 2 || f.MultiMinSamples < 2 {
		return fmt.Errorf("analytics.forecast min samples must be at least 2")
	}
	if f.Horizon < 1 || f.MultiHorizon < 1 {
		return fmt.Errorf("analytics.forecast horizons must be positive")
	}
	if f.MaxHorizon > 0 && (f.Horizon > f.MaxHorizon || f.MultiHorizon > f.MaxHorizon) {
		return fmt.Errorf("analytics.forecast horizons cannot exceed max_horizon")
	}

	if c.Correlation.MinSamples < 2 {
		return fmt.Errorf("analytics.correlation.min_samples must be at least 2")
	}

	a := c.Anomaly
	switch a.DefaultStrategy {
	case "iqr", "isolation_forest":
	default:
		return fmt.Errorf("analytics.anomaly.default_strategy must be 'iqr' or 'isolation_forest'")
	}
	if a.Contamination <= 0 || a.Contamination > 0.5 {
		return fmt.Errorf("analytics.anomaly.contamination must be in (0, 0.5]")
	}
	if a.Trees < 1 || a.MaxSamples < 2 {
		return fmt.Errorf("analytics.anomaly needs at least 1 tree and 2 samples per tree")
	}
	if a.IQRMultiplier <= 0 {
		return fmt.Errorf("analytics.anomaly.iqr_multiplier must be positive")
	}

	th := c.Thresholds.Correlation
	if th.Moderate <= 0 || th.Strong <= th.Moderate || th.Strong > 1 {
		return fmt.Errorf("analytics.thresholds.correlation must satisfy 0 < moderate < strong <= 1")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
