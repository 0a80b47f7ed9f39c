package metrics_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/kill-code/internal/metrics"
)

func TestRegistryExposesMetrics(t *testing.T) {
	metrics.EmitBuildInfo()
	metrics.SetForks(4, 2)
	metrics.ObserveKill(metrics.OutcomeFailed, []string{"SIGINT", "SIGINT", "SIGKILL"}, 21*time.Second)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status code from metrics handler: %d", rec.Code)
	}

	body := rec.Body.String()
	for _, line := range []string{
		"kill_code_forks_discovered 4",
		"kill_code_forks_selectable 2",
		`kill_code_kills_total{outcome="failed"} 1`,
		`kill_code_signals_sent_total{signal="SIGINT"} 2`,
		`kill_code_signals_sent_total{signal="SIGKILL"} 1`,
		"kill_code_kill_duration_seconds_count 1",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected metric line %q in body:\n%s", line, body)
		}
	}
	if !strings.Contains(body, "kill_code_build_info{") {
		t.Fatalf("expected build info metric in body:\n%s", body)
	}
	if !strings.Contains(body, "go_version=") {
		t.Fatalf("expected go_version label on build info metric:\n%s", body)
	}
}

func TestWriteTextfile(t *testing.T) {
	metrics.SetForks(1, 1)
	path := filepath.Join(t.TempDir(), "kill_code.prom")

	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "kill_code_forks_discovered 1") {
		t.Fatalf("expected forks gauge in textfile:\n%s", data)
	}
}

func TestWriteTextfileReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "kill_code.prom")
	if err := metrics.WriteTextfile(path); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
