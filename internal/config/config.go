package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c04ch1337/pagi-gateway-core/internal/types"
)

const (
	// DefaultPath is tried when neither --config nor PAGI_CONFIG is set.
	DefaultPath = "./config/pagi.yaml"

	DefaultBindHTTP    = "127.0.0.1:8282"
	DefaultBindGRPC    = "127.0.0.1:50051"
	DefaultReplayPath  = "./replay.log"
	DefaultMetricsPath = "/metrics"
	DefaultRatePerSec  = 50
)

// Config is the gateway configuration file.
type Config struct {
	Version  string          `yaml:"version"`
	Core     CoreConfig      `yaml:"core"`
	Adapters []AdapterConfig `yaml:"adapters"`

	// Verbose and Debug come from env and flags only.
	Verbose bool `yaml:"-"`
	Debug   bool `yaml:"-"`
}

type CoreConfig struct {
	BindHTTP       string              `yaml:"bind_http"`
	BindGRPC       string              `yaml:"bind_grpc"`
	RequestReplay  ReplayConfig        `yaml:"request_replay"`
	Observability  ObservabilityConfig `yaml:"observability"`
	Routing        RoutingConfig       `yaml:"routing"`
	RateLimit      RateLimitConfig     `yaml:"rate_limit"`
	CircuitBreaker BreakerConfig       `yaml:"circuit_breaker"`
}

type ReplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ObservabilityConfig struct {
	MetricsPath string `yaml:"metrics_path"`
}

// RoutingConfig sets the adapter priority used when a request does not pin
// an adapter. Empty means the router default.
type RoutingConfig struct {
	Priority []string `yaml:"priority"`
}

type RateLimitConfig struct {
	PerSecond int `yaml:"per_second"`
}

type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// AdapterConfig is an adapter registered at startup.
type AdapterConfig struct {
	ID           string             `yaml:"id"`
	Kind         string             `yaml:"kind"`
	Endpoint     string             `yaml:"endpoint"`
	Version      string             `yaml:"version"`
	Capabilities types.Capabilities `yaml:"capabilities"`
}

// Info converts the entry into a directory registration.
func (a AdapterConfig) Info() types.AdapterInfo {
	return types.AdapterInfo{
		AdapterID:    a.ID,
		Endpoint:     a.Endpoint,
		Capabilities: a.Capabilities,
		Version:      a.Version,
	}
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Core: CoreConfig{
			BindHTTP:      DefaultBindHTTP,
			BindGRPC:      DefaultBindGRPC,
			RequestReplay: ReplayConfig{Path: DefaultReplayPath},
			Observability: ObservabilityConfig{MetricsPath: DefaultMetricsPath},
			RateLimit:     RateLimitConfig{PerSecond: DefaultRatePerSec},
			CircuitBreaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: 30 * time.Second,
			},
		},
	}
}

// ResolvePath picks the config file: the flag value, then PAGI_CONFIG, then
// DefaultPath. explicit reports whether the caller asked for a file, in which
// case a missing file is an error.
func ResolvePath(flagValue string) (path string, explicit bool) {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv("PAGI_CONFIG")); p != "" {
		return p, true
	}
	return DefaultPath, false
}

// Load reads path over DefaultConfig, applies env overrides and validates.
// A missing file is only tolerated when explicit is false.
func Load(path string, explicit bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays PAGI_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("PAGI_BIND_HTTP")); v != "" {
		c.Core.BindHTTP = v
	}
	if v := strings.TrimSpace(os.Getenv("PAGI_BIND_GRPC")); v != "" {
		c.Core.BindGRPC = v
	}
	if _, ok := os.LookupEnv("PAGI_REPLAY_ENABLED"); ok {
		c.Core.RequestReplay.Enabled = envBool("PAGI_REPLAY_ENABLED")
	}
	if v := strings.TrimSpace(os.Getenv("PAGI_REPLAY_PATH")); v != "" {
		c.Core.RequestReplay.Path = v
	}
	c.Verbose = c.Verbose || envBool("PAGI_VERBOSE")
	c.Debug = c.Debug || envBool("PAGI_DEBUG")
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	if c.Core.BindHTTP == "" {
		return errors.New("core.bind_http is required")
	}
	if c.Core.BindGRPC == "" {
		return errors.New("core.bind_grpc is required")
	}
	if c.Core.Observability.MetricsPath == "" {
		c.Core.Observability.MetricsPath = DefaultMetricsPath
	}
	if !strings.HasPrefix(c.Core.Observability.MetricsPath, "/") {
		return fmt.Errorf("core.observability.metrics_path must start with /: %q", c.Core.Observability.MetricsPath)
	}
	if c.Core.RequestReplay.Path == "" {
		c.Core.RequestReplay.Path = DefaultReplayPath
	}
	if c.Core.RateLimit.PerSecond < 1 {
		c.Core.RateLimit.PerSecond = DefaultRatePerSec
	}
	for i, a := range c.Adapters {
		if a.ID == "" || a.Endpoint == "" {
			return fmt.Errorf("adapters[%d]: id and endpoint are required", i)
		}
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
