package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted for MCP hosting.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// Config holds server configuration loaded from YAML and env.
type Config struct {
	Transport string
	Host      string
	Port      int

	OpenMeteoURL     string
	OpenMeteoTimeout time.Duration

	UpstreamRPS   float64
	UpstreamBurst int

	// MetricsPort enables the sidecar /health + /metrics listener when non-empty.
	MetricsPort string

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Transport string `yaml:"transport"`
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
	} `yaml:"server"`

	OpenMeteo struct {
		URL            string  `yaml:"url"`
		Timeout        string  `yaml:"timeout"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
	} `yaml:"open_meteo"`

	Metrics struct {
		Port string `yaml:"port"`
	} `yaml:"metrics"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) when the
// file exists, then applies env overrides (MCP_TRANSPORT, MCP_HOST, MCP_PORT,
// OPEN_METEO_URL, OPEN_METEO_TIMEOUT, METRICS_PORT). The file is optional so
// stdio deployments can run flag/env-only.
func Load() (*Config, error) {
	var fc fileConfig

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Transport = strings.TrimSpace(strings.ToLower(os.Getenv("MCP_TRANSPORT")))
	if cfg.Transport == "" {
		cfg.Transport = strings.TrimSpace(strings.ToLower(fc.Server.Transport))
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	cfg.Host = strings.TrimSpace(os.Getenv("MCP_HOST"))
	if cfg.Host == "" {
		cfg.Host = strings.TrimSpace(fc.Server.Host)
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}

	cfg.Port = fc.Server.Port
	if portEnv := strings.TrimSpace(os.Getenv("MCP_PORT")); portEnv != "" {
		p, err := strconv.Atoi(portEnv)
		if err != nil {
			return nil, fmt.Errorf("MCP_PORT must be numeric, got %q", portEnv)
		}
		cfg.Port = p
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	cfg.OpenMeteoURL = strings.TrimSpace(os.Getenv("OPEN_METEO_URL"))
	if cfg.OpenMeteoURL == "" {
		cfg.OpenMeteoURL = strings.TrimSpace(fc.OpenMeteo.URL)
	}
	if cfg.OpenMeteoURL == "" {
		cfg.OpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	}

	timeoutStr := strings.TrimSpace(os.Getenv("OPEN_METEO_TIMEOUT"))
	if timeoutStr == "" {
		timeoutStr = fc.OpenMeteo.Timeout
	}
	cfg.OpenMeteoTimeout = parseDuration(timeoutStr, 10*time.Second)

	cfg.UpstreamRPS = fc.OpenMeteo.RateLimitRPS
	if cfg.UpstreamRPS < 0 {
		cfg.UpstreamRPS = 0
	}
	cfg.UpstreamBurst = fc.OpenMeteo.RateLimitBurst
	if cfg.UpstreamBurst < 0 {
		cfg.UpstreamBurst = 0
	}

	cfg.MetricsPort = strings.TrimSpace(os.Getenv("METRICS_PORT"))
	if cfg.MetricsPort == "" {
		cfg.MetricsPort = strings.TrimSpace(fc.Metrics.Port)
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 10*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal on empty
// string, parse error, or non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
		// valid
	default:
		return fmt.Errorf("server.transport must be stdio, sse, or streamable-http, got %q", cfg.Transport)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("server.port must be within 1-65535, got %d", cfg.Port)
	}
	if cfg.OpenMeteoTimeout <= 0 {
		return fmt.Errorf("open_meteo.timeout must be positive")
	}
	if cfg.MetricsPort != "" {
		p, err := strconv.Atoi(cfg.MetricsPort)
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("metrics.port must be a port number, got %q", cfg.MetricsPort)
		}
	}
	return nil
}
