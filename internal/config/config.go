// Package config provides configuration management for the paper gateway.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the paper gateway.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Sources contains upstream API settings per source adapter.
	Sources SourcesConfig `mapstructure:"sources"`
	// PDF contains download and conversion settings.
	PDF PDFConfig `mapstructure:"pdf"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing a response. It has to
	// exceed the 60s PDF download timeout or content requests get cut off.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPAddress returns the host:port string for the HTTP server.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the output format (json or console).
	Format string `mapstructure:"format"`
	// Output is the destination (stdout or stderr).
	Output string `mapstructure:"output"`
	// TimeFormat is the timestamp format for log entries.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled toggles the Prometheus metrics endpoint.
	Enabled bool `mapstructure:"enabled"`
	// Path is the metrics endpoint path (default: /metrics).
	Path string `mapstructure:"path"`
}

// SourcesConfig holds per-source upstream API settings.
type SourcesConfig struct {
	// UserAgent identifies this service to the upstream APIs.
	UserAgent string `mapstructure:"user_agent"`
	ArXiv     ArXivConfig    `mapstructure:"arxiv"`
	OSF       OSFConfig      `mapstructure:"osf"`
	OpenAlex  OpenAlexConfig `mapstructure:"openalex"`
}

// ArXivConfig holds arXiv API settings.
type ArXivConfig struct {
	// BaseURL is the Atom query API root.
	BaseURL string `mapstructure:"base_url"`
	// PDFBaseURL is the root the direct PDF links hang off.
	PDFBaseURL string `mapstructure:"pdf_base_url"`
}

// OSFConfig holds OSF API settings.
type OSFConfig struct {
	// BaseURL is the JSON:API v2 root.
	BaseURL string `mapstructure:"base_url"`
	// TroveBaseURL is the full-text search root.
	TroveBaseURL string `mapstructure:"trove_base_url"`
}

// OpenAlexConfig holds OpenAlex API settings.
type OpenAlexConfig struct {
	// BaseURL is the REST API root.
	BaseURL string `mapstructure:"base_url"`
}

// PDFConfig holds PDF download and conversion settings.
type PDFConfig struct {
	// MaxSizeBytes caps downloaded PDF size (default: 100MB).
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	// TempDir is where conversion temp files are written. Empty uses the
	// system temp directory.
	TempDir string `mapstructure:"temp_dir"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PAPERGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paper-gateway")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine, env vars and defaults cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sources.user_agent", "paper-gateway/1.0")
	v.SetDefault("sources.arxiv.base_url", "http://export.arxiv.org/api")
	v.SetDefault("sources.arxiv.pdf_base_url", "https://arxiv.org/pdf")
	v.SetDefault("sources.osf.base_url", "https://api.osf.io/v2")
	v.SetDefault("sources.osf.trove_base_url", "https://share.osf.io/trove")
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")

	v.SetDefault("pdf.max_size_bytes", int64(100<<20))
	v.SetDefault("pdf.temp_dir", "")
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true,
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}
	if c.PDF.MaxSizeBytes < 0 {
		return fmt.Errorf("pdf.max_size_bytes must be non-negative: %d", c.PDF.MaxSizeBytes)
	}
	return nil
}
