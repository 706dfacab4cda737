// Package config loads prism settings from ~/.prism/config.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// networks accepted by the auth service
const (
	NetworkMainnet    = "mainnet"
	NetworkTestnet    = "testnet"
	NetworkPreviewnet = "previewnet"
)

const (
	// FileName is the config file inside the state dir
	FileName = "config.yaml"
	// DirName is the state dir under the home directory
	DirName = ".prism"

	DefaultTarget  = "127.0.0.1:8090"
	DefaultTimeout = 30 * time.Second
)

// ErrInvalidNetwork is returned for anything but mainnet, testnet, previewnet
var ErrInvalidNetwork = errors.New("invalid network")

// Keepalive mirrors grpc keepalive client params
type Keepalive struct {
	Time    time.Duration `yaml:"time"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is everything the CLI needs to build the client and the flow
type Config struct {
	Target     string        `yaml:"target"`
	Network    string        `yaml:"network"`
	TLS        bool          `yaml:"tls"`
	Timeout    time.Duration `yaml:"timeout"`
	TokenStore string        `yaml:"token_store"`
	Log        string        `yaml:"log_level"`
	// Events publishes login/logout on redis streams when the token store is redis
	Events    bool      `yaml:"events"`
	Keepalive Keepalive `yaml:"keepalive"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Target:  DefaultTarget,
		Network: NetworkMainnet,
		Timeout: DefaultTimeout,
		Log:     "info",
		Events:  true,
		Keepalive: Keepalive{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		},
	}
}

// Dir returns the state dir: $PRISM_HOME, or ~/.prism
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("PRISM_HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// ReadFile returns the defaults overlaid with dir/config.yaml, if any.
// The environment is not consulted, so the result is safe to Save.
func ReadFile(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return cfg, nil
}

// Load reads the file, applies PRISM_* overrides and validates the result
func Load(dir string) (*Config, error) {
	cfg, err := ReadFile(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to dir/config.yaml
func Save(dir string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate normalizes the network and checks the rest
func (c *Config) Validate() error {
	network, err := ParseNetwork(c.Network)
	if err != nil {
		return err
	}
	c.Network = network

	if strings.TrimSpace(c.Target) == "" {
		c.Target = DefaultTarget
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// ParseNetwork lower-cases and checks a network name
func ParseNetwork(network string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(network))
	switch n {
	case NetworkMainnet, NetworkTestnet, NetworkPreviewnet:
		return n, nil
	}
	return "", fmt.Errorf("%w: %q, use mainnet, testnet or previewnet", ErrInvalidNetwork, network)
}

// LogLevel maps the log_level setting to a slog level
func (c *Config) LogLevel() slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(c.Log)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		// numeric levels: -4 debug, 0 info, 4 warn, 8 error
		if n, err := strconv.Atoi(strings.TrimSpace(c.Log)); err == nil {
			return slog.Level(n)
		}
		return slog.LevelInfo
	}
}

func (c *Config) applyEnv() error {
	if v := getEnv("PRISM_TARGET"); v != "" {
		c.Target = v
	}
	if v := getEnv("PRISM_NETWORK"); v != "" {
		c.Network = v
	}
	if v := getEnv("PRISM_TOKEN_STORE"); v != "" {
		c.TokenStore = v
	}
	if v := getEnv("PRISM_LOG_LEVEL"); v != "" {
		c.Log = v
	}
	c.TLS = getEnvBool("PRISM_TLS", c.TLS)
	c.Events = getEnvBool("PRISM_EVENTS", c.Events)

	if v := getEnv("PRISM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PRISM_TIMEOUT %q: %w", v, err)
		}
		c.Timeout = d
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(getEnv(key))
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
