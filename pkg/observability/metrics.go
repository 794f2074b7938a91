package observability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covpipe"

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageRuns     *prometheus.CounterVec
	exitCode      prometheus.Gauge
	lineCoverage  prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"stage"}),
		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_runs_total",
			Help:      "Stage executions by outcome",
		}, []string{"stage", "result"}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_exit_code",
			Help:      "Exit status of the last finished run",
		}),
		lineCoverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "line_coverage_ratio",
			Help:      "Hit/found line ratio of the last successful run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run finished",
		}),
	}
	m.registry.MustRegister(m.stageDuration, m.stageRuns, m.exitCode, m.lineCoverage, m.lastRun)
	return m
}

// Registry exposes the underlying registry, e.g. for a promhttp handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageFinish: func(_ context.Context, e *domain.StageEvent) {
			if e.Result == nil {
				return
			}
			stage := string(e.Stage)
			m.stageDuration.WithLabelValues(stage).Observe(e.Result.Duration().Seconds())
			m.stageRuns.WithLabelValues(stage, resultLabel(e.Result)).Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			rec := e.Record
			m.exitCode.Set(float64(rec.ExitCode))
			if !rec.FinishedAt.IsZero() {
				m.lastRun.Set(float64(rec.FinishedAt.Unix()))
			}
			if rec.Summary != nil {
				m.lineCoverage.Set(rec.Summary.LineRate())
			}
		},
	}
}

func resultLabel(r *domain.StageResult) string {
	if r.Succeeded() {
		return "success"
	}
	return "failure"
}

// WriteTextfile atomically writes the registry to path, creating parent directories.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
