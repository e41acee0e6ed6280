package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultPort             = "3000"
	defaultUploadPath       = "/process"
	defaultDownloadPath     = "/download"
	defaultMaxUploadBytes   = 512 << 20
	defaultMaxConnections   = 64
	defaultReadTimeout      = 5 * time.Minute
	defaultWriteTimeout     = 5 * time.Minute
	defaultShutdownTimeout  = 30 * time.Second
	defaultDataDir          = "./data"
	defaultDatabaseFile     = "jobs.db"
	defaultCleanupInterval  = time.Hour
	defaultCleanupTTL       = 24 * time.Hour
	defaultCompressionLevel = 9
	defaultMaxEntryBytes    = 64 << 20
	defaultNotifySubject    = "dotrewrite.jobs"
	defaultNotifyTimeout    = 5 * time.Second
	defaultRetryInitial     = "500ms"
	defaultRetryMax         = "5s"
	defaultMaxRetries       = 3
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier runs every domain applier in a fixed order.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier chain used by Load.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{appliers: []DefaultApplier{
		&ServerDefaultApplier{},
		&StorageDefaultApplier{},
		&RewriteDefaultApplier{},
		&NotifyDefaultApplier{},
		&MonitoringDefaultApplier{},
	}}
}

// ApplyDefaults applies every domain in order.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// ServerDefaultApplier handles server defaults, honoring $PORT.
type ServerDefaultApplier struct{}

func (s *ServerDefaultApplier) Domain() string { return "server" }

func (s *ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Address == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = defaultPort
		}
		cfg.Server.Address = ":" + port
	}
	if cfg.Server.UploadPath == "" {
		cfg.Server.UploadPath = defaultUploadPath
	}
	if cfg.Server.DownloadPath == "" {
		cfg.Server.DownloadPath = defaultDownloadPath
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	return nil
}

// StorageDefaultApplier handles data directory and registry defaults.
type StorageDefaultApplier struct{}

func (s *StorageDefaultApplier) Domain() string { return "storage" }

func (s *StorageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaultDataDir
	}
	if cfg.Storage.Database == "" {
		cfg.Storage.Database = filepath.Join(cfg.Storage.DataDir, defaultDatabaseFile)
	}
	return nil
}

// RewriteDefaultApplier handles rewrite and archive defaults.
type RewriteDefaultApplier struct{}

func (r *RewriteDefaultApplier) Domain() string { return "rewrite" }

func (r *RewriteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Rewrite.DirectoryMode == "" {
		cfg.Rewrite.DirectoryMode = DirectoryModeLegacy
	}
	if cfg.Archive.CompressionLevel == nil {
		lvl := defaultCompressionLevel
		cfg.Archive.CompressionLevel = &lvl
	}
	if cfg.Archive.MaxEntryBytes == nil {
		limit := int64(defaultMaxEntryBytes)
		cfg.Archive.MaxEntryBytes = &limit
	}
	return nil
}

// NotifyDefaultApplier handles NATS publishing defaults.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultNotifySubject
	}
	if cfg.Notify.RetryBackoff == "" {
		cfg.Notify.RetryBackoff = RetryBackoffExponential
	}
	if cfg.Notify.RetryInitialDelay == "" {
		cfg.Notify.RetryInitialDelay = defaultRetryInitial
	}
	if cfg.Notify.RetryMaxDelay == "" {
		cfg.Notify.RetryMaxDelay = defaultRetryMax
	}
	if cfg.Notify.MaxRetries < 0 {
		cfg.Notify.MaxRetries = 0
	}
	if cfg.Notify.MaxRetries == 0 {
		cfg.Notify.MaxRetries = defaultMaxRetries
	}
	return nil
}

// MonitoringDefaultApplier handles monitoring defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = "/metrics"
	}
	if cfg.Monitoring.Health.Path == "" {
		cfg.Monitoring.Health.Path = "/health"
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
	return nil
}
