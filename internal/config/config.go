package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config is the reader configuration file.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SerialConfig selects the meter's serial line.
type SerialConfig struct {
	Device    string `yaml:"device"`
	BaudRate  int    `yaml:"baud_rate"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Timeout returns the read timeout as a duration.
func (s SerialConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// OutputConfig controls how events are printed.
type OutputConfig struct {
	Format string `yaml:"format"`
	// Advisory prints timeouts, short reads and unknown markers too.
	Advisory bool `yaml:"advisory"`
}

// LoggingConfig sets the logrus level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig exposes Prometheus metrics when Address is set.
type MetricsConfig struct {
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:    "/dev/ttyUSB0",
			BaudRate:  2400,
			TimeoutMs: 1500,
		},
		Output:  OutputConfig{Format: FormatJSON},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Path: "/metrics"},
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every section. It does not mutate the config.
func (c *Config) Validate() error {
	if err := c.Serial.Validate(); err != nil {
		return fmt.Errorf("serial config: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	return nil
}

// Validate validates the serial section.
func (s *SerialConfig) Validate() error {
	if s.Device == "" {
		return fmt.Errorf("device cannot be empty")
	}
	if s.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", s.BaudRate)
	}
	if s.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", s.TimeoutMs)
	}
	return nil
}

// Validate validates the output section.
func (o *OutputConfig) Validate() error {
	switch o.Format {
	case FormatJSON, FormatText:
		return nil
	default:
		return fmt.Errorf("format must be %q or %q, got %q", FormatJSON, FormatText, o.Format)
	}
}

// Validate validates the logging section.
func (l *LoggingConfig) Validate() error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid level %q: %w", l.Level, err)
	}
	return nil
}

// Validate validates the metrics section.
func (m *MetricsConfig) Validate() error {
	if m.Address != "" && (m.Path == "" || m.Path[0] != '/') {
		return fmt.Errorf("path must start with '/', got %q", m.Path)
	}
	return nil
}
