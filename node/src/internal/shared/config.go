package shared

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tuple space server configuration.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// StatsInterval is the period of the stats reporter.
	StatsInterval time.Duration `yaml:"stats_interval"`

	// Zero timeouts block forever on a silent peer.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxConnections bounds concurrent connection workers. Zero is unbounded.
	MaxConnections int `yaml:"max_connections"`

	// Empty addresses disable the corresponding admin surface.
	AdminAddr string `yaml:"admin_addr"`
	GRPCAddr  string `yaml:"grpc_addr"`

	// TracingEndpoint is a Jaeger collector URL. Empty disables export.
	TracingEndpoint string `yaml:"tracing_endpoint"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          51234,
		StatsInterval: 10 * time.Second,
		LogLevel:      "info",
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the ranges of numeric settings.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats_interval must be positive, got %s", c.StatsInterval)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max_connections must not be negative, got %d", c.MaxConnections)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ListenAddr returns the host:port the tuple space listener binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
