package metrics

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Kill outcomes recorded by ObserveKill.
const (
	OutcomeTerminated  = "terminated"
	OutcomeAlreadyGone = "already_gone"
	OutcomeFailed      = "failed"
)

var (
	registry = prometheus.NewRegistry()

	forksDiscovered = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kill_code",
		Name:      "forks_discovered",
		Help:      "Number of bootstrap forks found in the last process snapshot.",
	})

	forksSelectable = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kill_code",
		Name:      "forks_selectable",
		Help:      "Number of forks left after filtering.",
	})

	kills = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kill_code",
		Name:      "kills_total",
		Help:      "Fork terminations by outcome.",
	}, []string{"outcome"})

	signalsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kill_code",
		Name:      "signals_sent_total",
		Help:      "Signals delivered to fork process groups.",
	}, []string{"signal"})

	killDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kill_code",
		Name:      "kill_duration_seconds",
		Help:      "Time taken to terminate a fork in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 15, 20, 25},
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kill_code",
		Name:      "build_info",
		Help:      "Build metadata for the running kill-code binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(forksDiscovered, forksSelectable, kills, signalsSent, killDuration, buildInfo)
}

// Registry returns the Prometheus registry containing all kill-code metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetForks records how many forks were discovered and how many survived
// filtering.
func SetForks(discovered, selectable int) {
	forksDiscovered.Set(float64(discovered))
	forksSelectable.Set(float64(selectable))
}

// ObserveKill records the outcome of one termination.
func ObserveKill(outcome string, signals []string, d time.Duration) {
	if outcome == "" {
		outcome = OutcomeTerminated
	}
	kills.WithLabelValues(outcome).Inc()
	for _, sig := range signals {
		signalsSent.WithLabelValues(sig).Inc()
	}
	killDuration.Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
