package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names an explicit configuration file.
	EnvConfigPath = "KILL_CODE_CONFIG"

	envRetries       = "KILL_CODE_RETRIES"
	envRetryInterval = "KILL_CODE_RETRY_INTERVAL"
	envTimeout       = "KILL_CODE_TIMEOUT"
	envSignals       = "KILL_CODE_SIGNALS"

	appDir   = "kill-code"
	fileName = "config.yaml"
)

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// Resolve loads the configuration for an invocation. An explicit path, from
// the flag or KILL_CODE_CONFIG, must exist; the default location may be
// absent, in which case defaults apply.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		return Load(path)
	}

	defaultPath, err := DefaultPath()
	if err != nil {
		return finish(&Config{}, "")
	}
	cfg, err := Load(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return finish(&Config{}, "")
	}
	return cfg, err
}

// Load reads a configuration file from the provided path.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	return finish(&cfg, absPath)
}

func finish(cfg *Config, source string) (*Config, error) {
	cfg.Source = source
	applyEnv(cfg)
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, wrapSource(source, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, wrapSource(source, err)
	}
	return cfg, nil
}

func wrapSource(source string, err error) error {
	if source == "" {
		return err
	}
	return fmt.Errorf("%s: %w", source, err)
}

// applyEnv overrides kill settings from the environment. Unparseable values
// are ignored.
func applyEnv(cfg *Config) {
	if value := os.Getenv(envRetries); value != "" {
		if retries, err := strconv.Atoi(value); err == nil && retries >= 0 {
			cfg.Kill.Retries = &retries
		}
	}
	if value := os.Getenv(envRetryInterval); value != "" {
		if interval, err := time.ParseDuration(value); err == nil && interval > 0 {
			cfg.Kill.RetryInterval = Duration{Duration: interval, explicit: true}
		}
	}
	if value := os.Getenv(envTimeout); value != "" {
		if timeout, err := time.ParseDuration(value); err == nil && timeout > 0 {
			cfg.Kill.Timeout = Duration{Duration: timeout, explicit: true}
		}
	}
	if value := os.Getenv(envSignals); value != "" {
		var signals []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				signals = append(signals, part)
			}
		}
		if len(signals) > 0 {
			cfg.Kill.Signals = signals
		}
	}
}
