package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `kill:
  signals: [SIGTERM, KILL]
  retries: 4
  retryInterval: 2s
  timeout: 9s
  pollInterval: 50ms
forks:
  signature: 'worker-host .*--fork'
  noise: .worker-server
  ignore: [bash, zsh]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !strings.HasSuffix(cfg.Source, "config.yaml") {
		t.Fatalf("expected source to be recorded, got %q", cfg.Source)
	}

	opts, err := cfg.KillOptions()
	if err != nil {
		t.Fatalf("kill options: %v", err)
	}
	if !reflect.DeepEqual(opts.Signals, []syscall.Signal{syscall.SIGTERM, syscall.SIGKILL}) {
		t.Fatalf("unexpected signals %v", opts.Signals)
	}
	if opts.Retries != 4 || opts.RetryInterval != 2*time.Second || opts.Timeout != 9*time.Second || opts.PollInterval != 50*time.Millisecond {
		t.Fatalf("unexpected options %+v", opts)
	}

	sig, err := cfg.Signature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if !sig.Matches("/opt/worker-host x --fork") {
		t.Fatalf("expected custom signature to match")
	}
	if sig.Noise != ".worker-server" || !reflect.DeepEqual(sig.Ignore, []string{"bash", "zsh"}) {
		t.Fatalf("unexpected signature %+v", sig)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "kill:\n  retries: 0\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if *cfg.Kill.Retries != 0 {
		t.Fatalf("expected explicit zero retries to be kept, got %d", *cfg.Kill.Retries)
	}
	if cfg.Kill.Timeout.Duration != 21*time.Second || cfg.Kill.RetryInterval.Duration != 10*time.Second {
		t.Fatalf("expected default timings, got %+v", cfg.Kill)
	}
	if !reflect.DeepEqual(cfg.Kill.Signals, []string{"SIGINT", "SIGKILL"}) {
		t.Fatalf("expected default signals, got %v", cfg.Kill.Signals)
	}
	if cfg.Forks.Signature == "" || *cfg.Forks.Noise != ".vscode-server" {
		t.Fatalf("expected default fork signature, got %+v", cfg.Forks)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if *cfg.Kill.Retries != 2 {
		t.Fatalf("expected default retries, got %d", *cfg.Kill.Retries)
	}
}

func TestLoadExplicitEmptyNoiseAndIgnore(t *testing.T) {
	cfg, err := Load(writeConfig(t, "forks:\n  noise: \"\"\n  ignore: []\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	sig, err := cfg.Signature()
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if sig.Noise != "" || len(sig.Ignore) != 0 {
		t.Fatalf("expected noise and ignore disabled, got %+v", sig)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		contains string
	}{
		{name: "unknownField", body: "kill:\n  retry: 3\n", contains: "field retry not found"},
		{name: "badDuration", body: "kill:\n  timeout: soon\n", contains: "invalid duration"},
		{name: "badSignal", body: "kill:\n  signals: [SIGNOPE]\n", contains: "kill.signals[0]"},
		{name: "negativeRetries", body: "kill:\n  retries: -1\n", contains: "kill.retries: must be non-negative"},
		{name: "zeroTimeout", body: "kill:\n  timeout: 0s\n", contains: "kill.timeout: must be positive"},
		{name: "pollTooLong", body: "kill:\n  retryInterval: 1s\n  pollInterval: 2s\n", contains: "kill.pollInterval"},
		{name: "badPattern", body: "forks:\n  signature: '('\n", contains: "forks.signature"},
		{name: "emptyIgnore", body: "forks:\n  ignore: ['  ']\n", contains: "forks.ignore[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.contains)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("expected error containing %q, got %v", tc.contains, err)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "kill:\n  retries: 5\n  timeout: 30s\n")
	t.Setenv("KILL_CODE_RETRIES", "1")
	t.Setenv("KILL_CODE_RETRY_INTERVAL", "3s")
	t.Setenv("KILL_CODE_TIMEOUT", "7s")
	t.Setenv("KILL_CODE_SIGNALS", "SIGTERM, SIGKILL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if *cfg.Kill.Retries != 1 {
		t.Fatalf("expected env retries, got %d", *cfg.Kill.Retries)
	}
	if cfg.Kill.RetryInterval.Duration != 3*time.Second || cfg.Kill.Timeout.Duration != 7*time.Second {
		t.Fatalf("expected env timings, got %+v", cfg.Kill)
	}
	if !reflect.DeepEqual(cfg.Kill.Signals, []string{"SIGTERM", "SIGKILL"}) {
		t.Fatalf("expected env signals, got %v", cfg.Kill.Signals)
	}
}

func TestEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("KILL_CODE_RETRIES", "many")
	t.Setenv("KILL_CODE_TIMEOUT", "-1s")

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if *cfg.Kill.Retries != 2 || cfg.Kill.Timeout.Duration != 21*time.Second {
		t.Fatalf("expected defaults to survive invalid env, got %+v", cfg.Kill)
	}
}

func TestResolveMissingDefaultUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.Source != "" {
		t.Fatalf("expected built-in defaults, got source %q", cfg.Source)
	}
	if *cfg.Kill.Retries != 2 {
		t.Fatalf("expected default retries, got %d", *cfg.Kill.Retries)
	}
}

func TestResolveExplicitPathMustExist(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestResolveFromEnvPath(t *testing.T) {
	path := writeConfig(t, "kill:\n  retries: 3\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if *cfg.Kill.Retries != 3 {
		t.Fatalf("expected retries from env path, got %d", *cfg.Kill.Retries)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}
