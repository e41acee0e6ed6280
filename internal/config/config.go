// Package config loads and validates the dotrewrite YAML configuration.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1.0"

// Config represents the application configuration.
type Config struct {
	Version    string           `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
	Rewrite    RewriteConfig    `yaml:"rewrite"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Notify     NotifyConfig     `yaml:"notify"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Address         string `yaml:"address"`          // listen address; defaults to :$PORT or :3000
	UploadPath      string `yaml:"upload_path"`      // multipart upload endpoint
	DownloadPath    string `yaml:"download_path"`    // prefix of the id-keyed download endpoint
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"` // request body cap, 0 = unlimited
	MaxConnections  int    `yaml:"max_connections"`  // concurrent connection cap, 0 = unlimited
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StorageConfig represents where artifacts and the job registry live.
type StorageConfig struct {
	DataDir  string `yaml:"data_dir"`
	Database string `yaml:"database"` // sqlite file, or ":memory:"
}

// CleanupConfig controls the sweep of artifacts that were never downloaded.
type CleanupConfig struct {
	Interval string `yaml:"interval"`
	TTL      string `yaml:"ttl"` // "0" disables the sweep
}

// RewriteConfig tunes the reference rewriter.
type RewriteConfig struct {
	DirectoryMode  DirectoryMode `yaml:"directory_mode"`
	Extensions     []string      `yaml:"extensions"`      // added to the built-in allow-list
	SkipExtensions []string      `yaml:"skip_extensions"` // content copied verbatim
}

// ArchiveConfig tunes archive decoding and encoding.
type ArchiveConfig struct {
	CompressionLevel *int   `yaml:"compression_level,omitempty"` // deflate level, 0 stores entries
	MaxEntryBytes    *int64 `yaml:"max_entry_bytes,omitempty"`   // 0 = unlimited
}

// NotifyConfig represents job event publishing over NATS.
type NotifyConfig struct {
	NATSURL           string           `yaml:"nats_url"`
	Subject           string           `yaml:"subject"`
	JetStream         bool             `yaml:"jetstream"` // publish with stream acknowledgement
	Timeout           string           `yaml:"timeout"`   // per-publish timeout
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
	MaxRetries        int              `yaml:"max_retries"`
}

// Enabled reports whether a NATS endpoint is configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringHealth represents health check configuration.
type MonitoringHealth struct {
	Path string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Default returns a fully defaulted configuration without reading any file.
func Default() (*Config, error) {
	cfg := &Config{Version: CurrentVersion}
	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads, normalizes, defaults and validates the configuration at configPath.
// Normalization warnings are returned alongside the config.
func Load(configPath string) (*Config, []string, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, derrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return parse(data)
}

// LoadOrDefault loads configPath when it exists and falls back to Default otherwise.
func LoadOrDefault(configPath string) (*Config, []string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}
	loadEnvFiles()
	cfg, err := Default()
	return cfg, nil, err
}

func parse(data []byte) (*Config, []string, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, nil, derrors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			Build()
	}

	res := NormalizeConfig(&cfg)
	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, res.Warnings, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write configuration file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// ParseDuration parses raw, returning def for empty input. "0" yields zero.
func ParseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	if raw == "0" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

// mustDuration is used after validation, where raw is known to parse.
func mustDuration(raw string, def time.Duration) time.Duration {
	d, err := ParseDuration(raw, def)
	if err != nil {
		return def
	}
	return d
}

// ReadTimeoutDuration returns the parsed read timeout.
func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(s.ReadTimeout, defaultReadTimeout)
}

// WriteTimeoutDuration returns the parsed write timeout.
func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(s.WriteTimeout, defaultWriteTimeout)
}

// ShutdownTimeoutDuration returns the parsed graceful shutdown timeout.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(s.ShutdownTimeout, defaultShutdownTimeout)
}

// IntervalDuration returns the parsed sweep interval.
func (c CleanupConfig) IntervalDuration() time.Duration {
	return mustDuration(c.Interval, defaultCleanupInterval)
}

// TTLDuration returns the parsed artifact TTL. Zero disables the sweep.
func (c CleanupConfig) TTLDuration() time.Duration {
	return mustDuration(c.TTL, defaultCleanupTTL)
}

// TimeoutDuration returns the per-publish timeout.
func (n NotifyConfig) TimeoutDuration() time.Duration {
	return mustDuration(n.Timeout, defaultNotifyTimeout)
}

// Level returns the configured deflate level.
func (a ArchiveConfig) Level() int {
	if a.CompressionLevel == nil {
		return defaultCompressionLevel
	}
	return *a.CompressionLevel
}

// EntryLimit returns the per-entry size cap in bytes, 0 meaning unlimited.
func (a ArchiveConfig) EntryLimit() int64 {
	if a.MaxEntryBytes == nil {
		return defaultMaxEntryBytes
	}
	return *a.MaxEntryBytes
}

const exampleConfig = `# dotrewrite configuration
version: "1.0"

server:
  # address: ":3000"          # defaults to :$PORT, or :3000
  upload_path: /process
  download_path: /download
  max_upload_bytes: 536870912  # 512 MiB
  max_connections: 64
  read_timeout: 5m
  write_timeout: 5m
  shutdown_timeout: 30s

storage:
  data_dir: ./data
  # database: ./data/jobs.db

cleanup:
  interval: 1h
  ttl: 24h

rewrite:
  directory_mode: legacy       # legacy | extension_aware
  extensions: []               # extra extensions kept verbatim in href targets, e.g. [".md"]
  skip_extensions: []          # entries copied without content rewriting, e.g. [".png"]

archive:
  compression_level: 9
  max_entry_bytes: 67108864    # 64 MiB, 0 = unlimited

notify:
  nats_url: "${NATS_URL}"
  subject: dotrewrite.jobs
  jetstream: false
  timeout: 5s
  retry_backoff: exponential
  retry_initial_delay: 500ms
  retry_max_delay: 5s
  max_retries: 3

monitoring:
  metrics:
    enabled: true
    path: /metrics
  health:
    path: /health
  logging:
    level: info
    format: text
`
