package config

import (
	"fmt"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/Paintersrp/kill-code/internal/forks"
	"github.com/Paintersrp/kill-code/internal/killer"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// Config mirrors the config.yaml document structure.
type Config struct {
	Kill  KillSpec `yaml:"kill"`
	Forks ForkSpec `yaml:"forks"`

	// Source is the file the configuration was read from, empty for defaults.
	Source string `yaml:"-"`
}

// KillSpec configures the escalation schedule.
type KillSpec struct {
	Signals       []string `yaml:"signals"`
	Retries       *int     `yaml:"retries"`
	RetryInterval Duration `yaml:"retryInterval"`
	Timeout       Duration `yaml:"timeout"`
	PollInterval  Duration `yaml:"pollInterval"`
}

// ForkSpec configures how forks are recognised and summarised.
type ForkSpec struct {
	Signature string   `yaml:"signature"`
	Noise     *string  `yaml:"noise"`
	Ignore    []string `yaml:"ignore"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() error {
	if len(c.Kill.Signals) == 0 {
		for _, sig := range killer.DefaultSignals() {
			c.Kill.Signals = append(c.Kill.Signals, killer.SignalName(sig))
		}
	}
	if c.Kill.Retries == nil {
		retries := killer.DefaultRetries
		c.Kill.Retries = &retries
	}
	if !c.Kill.RetryInterval.IsSet() {
		c.Kill.RetryInterval.Duration = killer.DefaultRetryInterval
	}
	if !c.Kill.Timeout.IsSet() {
		c.Kill.Timeout.Duration = killer.DefaultTimeout
	}
	if !c.Kill.PollInterval.IsSet() {
		c.Kill.PollInterval.Duration = killer.DefaultPollInterval
	}

	c.Forks.Signature = strings.TrimSpace(c.Forks.Signature)
	if c.Forks.Signature == "" {
		c.Forks.Signature = forks.DefaultSignature
	}
	if c.Forks.Noise == nil {
		noise := forks.DefaultNoise
		c.Forks.Noise = &noise
	}
	if c.Forks.Ignore == nil {
		c.Forks.Ignore = append([]string(nil), forks.DefaultIgnore...)
	}
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	for i, name := range c.Kill.Signals {
		if _, err := killer.ParseSignal(name); err != nil {
			return fmt.Errorf("%s: %w", fieldPath("kill", fmt.Sprintf("signals[%d]", i)), err)
		}
	}
	if c.Kill.Retries != nil && *c.Kill.Retries < 0 {
		return fmt.Errorf("%s: must be non-negative", fieldPath("kill", "retries"))
	}
	if c.Kill.RetryInterval.Duration <= 0 {
		return fmt.Errorf("%s: must be positive", fieldPath("kill", "retryInterval"))
	}
	if c.Kill.Timeout.Duration <= 0 {
		return fmt.Errorf("%s: must be positive", fieldPath("kill", "timeout"))
	}
	if c.Kill.PollInterval.Duration <= 0 {
		return fmt.Errorf("%s: must be positive", fieldPath("kill", "pollInterval"))
	}
	if c.Kill.PollInterval.Duration > c.Kill.RetryInterval.Duration {
		return fmt.Errorf("%s: must not exceed %s", fieldPath("kill", "pollInterval"), fieldPath("kill", "retryInterval"))
	}
	if _, err := regexp.Compile(c.Forks.Signature); err != nil {
		return fmt.Errorf("%s: invalid pattern: %w", fieldPath("forks", "signature"), err)
	}
	for i, cmd := range c.Forks.Ignore {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("%s: must not be empty", fieldPath("forks", fmt.Sprintf("ignore[%d]", i)))
		}
	}
	return nil
}

// KillOptions converts the kill section into orchestrator options.
func (c *Config) KillOptions() (killer.Options, error) {
	signals := make([]syscall.Signal, 0, len(c.Kill.Signals))
	for i, name := range c.Kill.Signals {
		sig, err := killer.ParseSignal(name)
		if err != nil {
			return killer.Options{}, fmt.Errorf("%s: %w", fieldPath("kill", fmt.Sprintf("signals[%d]", i)), err)
		}
		signals = append(signals, sig)
	}
	opts := killer.Options{
		Signals:       signals,
		Retries:       killer.DefaultRetries,
		RetryInterval: c.Kill.RetryInterval.Duration,
		Timeout:       c.Kill.Timeout.Duration,
		PollInterval:  c.Kill.PollInterval.Duration,
	}
	if c.Kill.Retries != nil {
		opts.Retries = *c.Kill.Retries
	}
	return opts, nil
}

// Signature compiles the forks section.
func (c *Config) Signature() (forks.Signature, error) {
	noise := forks.DefaultNoise
	if c.Forks.Noise != nil {
		noise = *c.Forks.Noise
	}
	sig, err := forks.NewSignature(c.Forks.Signature, noise, c.Forks.Ignore)
	if err != nil {
		return forks.Signature{}, fmt.Errorf("%s: %w", fieldPath("forks", "signature"), err)
	}
	return sig, nil
}

func fieldPath(parts ...string) string {
	return strings.Join(parts, ".")
}
