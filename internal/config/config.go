// Package config loads the unlockd daemon configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SecretEnv names the environment variable holding the signing secret.
const SecretEnv = "UNLOCKD_SECRET"

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Log struct {
	JSON    bool   `yaml:"json"`
	Debug   bool   `yaml:"debug"`
	Service string `yaml:"service"`
}

// Config is the daemon configuration file.
type Config struct {
	ListenAddr    string        `yaml:"listen_addr"`
	Database      string        `yaml:"database"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	UserHeader    string        `yaml:"user_header"`
	SecretFile    string        `yaml:"secret_file"`
	DrainDuration time.Duration `yaml:"drain_duration"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	Log           Log           `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:    "127.0.0.1:8080",
		Database:      "data/unlock.db",
		TokenTTL:      time.Minute,
		SweepInterval: time.Minute,
		UserHeader:    "X-Authenticated-User",
		DrainDuration: 15 * time.Second,
		RateLimit:     RateLimit{RPS: 5, Burst: 10},
		Log:           Log{Service: "unlockd"},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks invariants that the daemon depends on.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.Database == "" {
		return errors.New("database is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep_interval must be positive")
	}
	if strings.TrimSpace(c.UserHeader) == "" {
		return errors.New("user_header is required")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	return nil
}

// LoadSecret returns the signing secret from the environment, falling back
// to SecretFile. Surrounding whitespace in the file is ignored.
func (c Config) LoadSecret() ([]byte, error) {
	if v := os.Getenv(SecretEnv); v != "" {
		return []byte(v), nil
	}
	if c.SecretFile == "" {
		return nil, fmt.Errorf("signing secret not configured: set %s or secret_file", SecretEnv)
	}
	data, err := os.ReadFile(c.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	secret := []byte(strings.TrimSpace(string(data)))
	if len(secret) == 0 {
		return nil, errors.New("secret file is empty")
	}
	return secret, nil
}
