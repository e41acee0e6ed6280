package config

import (
	"github.com/klauspost/compress/flate"
	"strings"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
)

// ValidateConfig validates the complete, defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, check := range []func() error{
		v.validateServer,
		v.validateCleanup,
		v.validateArchive,
		v.validateNotify,
		v.validateMonitoring,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func invalid(field, reason string) error {
	return derrors.ConfigError("invalid configuration: " + field + " " + reason).
		WithContext("field", field).
		Build()
}

func (cv *configurationValidator) validateServer() error {
	s := cv.config.Server
	if s.Address == "" {
		return invalid("server.address", "must not be empty")
	}
	if !strings.HasPrefix(s.UploadPath, "/") {
		return invalid("server.upload_path", "must start with /")
	}
	if !strings.HasPrefix(s.DownloadPath, "/") {
		return invalid("server.download_path", "must start with /")
	}
	if s.UploadPath == s.DownloadPath {
		return invalid("server.download_path", "must differ from upload_path")
	}
	if s.MaxUploadBytes < 0 {
		return invalid("server.max_upload_bytes", "cannot be negative")
	}
	if s.MaxConnections < 0 {
		return invalid("server.max_connections", "cannot be negative")
	}
	for field, raw := range map[string]string{
		"server.read_timeout":     s.ReadTimeout,
		"server.write_timeout":    s.WriteTimeout,
		"server.shutdown_timeout": s.ShutdownTimeout,
	} {
		if d, err := ParseDuration(raw, 0); err != nil || d < 0 {
			return invalid(field, "must be a valid duration")
		}
	}
	return nil
}

func (cv *configurationValidator) validateCleanup() error {
	c := cv.config.Cleanup
	interval, err := ParseDuration(c.Interval, defaultCleanupInterval)
	if err != nil || interval < 0 {
		return invalid("cleanup.interval", "must be a valid duration")
	}
	ttl, err := ParseDuration(c.TTL, defaultCleanupTTL)
	if err != nil || ttl < 0 {
		return invalid("cleanup.ttl", "must be a valid duration")
	}
	if ttl > 0 && interval == 0 {
		return invalid("cleanup.interval", "must be positive when ttl is set")
	}
	return nil
}

func (cv *configurationValidator) validateArchive() error {
	a := cv.config.Archive
	if lvl := a.Level(); lvl < flate.HuffmanOnly || lvl > flate.BestCompression {
		return invalid("archive.compression_level", "must be between -2 and 9")
	}
	if a.EntryLimit() < 0 {
		return invalid("archive.max_entry_bytes", "cannot be negative")
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if !n.Enabled() {
		return nil
	}
	if n.Subject == "" {
		return invalid("notify.subject", "is required when nats_url is set")
	}
	if _, err := ParseDuration(n.RetryInitialDelay, 0); err != nil {
		return invalid("notify.retry_initial_delay", "must be a valid duration")
	}
	if _, err := ParseDuration(n.RetryMaxDelay, 0); err != nil {
		return invalid("notify.retry_max_delay", "must be a valid duration")
	}
	if d, err := ParseDuration(n.Timeout, 0); err != nil || d < 0 {
		return invalid("notify.timeout", "must be a valid duration")
	}
	return nil
}

func (cv *configurationValidator) validateMonitoring() error {
	m := cv.config.Monitoring
	if m.Metrics.Enabled && !strings.HasPrefix(m.Metrics.Path, "/") {
		return invalid("monitoring.metrics.path", "must start with /")
	}
	if !strings.HasPrefix(m.Health.Path, "/") {
		return invalid("monitoring.health.path", "must start with /")
	}
	return nil
}
