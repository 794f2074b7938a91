package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishStage(hooks domain.LifecycleHooks, stage domain.StageKind, code int, d time.Duration) {
	start := time.Unix(1700000000, 0)
	hooks.OnStageFinish(context.Background(), &domain.StageEvent{
		Stage: stage,
		Result: &domain.StageResult{
			Stage:      stage,
			ExitCode:   code,
			StartedAt:  start,
			FinishedAt: start.Add(d),
		},
	})
}

func TestMetrics_Hooks(t *testing.T) {
	m := NewMetrics()
	hooks := m.Hooks()

	finishStage(hooks, domain.StageConfigure, 0, 2*time.Second)
	finishStage(hooks, domain.StageBuild, 0, time.Second)
	finishStage(hooks, domain.StageTest, 8, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageRuns.WithLabelValues("configure", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageRuns.WithLabelValues("test", "failure")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.stageDuration))

	rec := domain.NewRunRecord("r1", "/work", time.Unix(1700000000, 0))
	rec.ExitCode = 8
	rec.FinishedAt = time.Unix(1700000100, 0)
	hooks.OnRunFinish(context.Background(), &domain.RunEvent{Record: rec})

	assert.Equal(t, 8.0, testutil.ToFloat64(m.exitCode))
	assert.Equal(t, 1700000100.0, testutil.ToFloat64(m.lastRun))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lineCoverage))

	rec.ExitCode = 0
	rec.Summary = &domain.CoverageSummary{LinesFound: 4, LinesHit: 3}
	hooks.OnRunFinish(context.Background(), &domain.RunEvent{Record: rec})
	assert.Equal(t, 0.75, testutil.ToFloat64(m.lineCoverage))
}

func TestMetrics_IgnoresStageStartEvents(t *testing.T) {
	m := NewMetrics()
	m.Hooks().OnStageFinish(context.Background(), &domain.StageEvent{Stage: domain.StageBuild})
	assert.Equal(t, 0, testutil.CollectAndCount(m.stageRuns))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	finishStage(m.Hooks(), domain.StageReport, 0, 500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "nested", "covpipe.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `covpipe_stage_runs_total{result="success",stage="report"} 1`), text)
	assert.Contains(t, text, "covpipe_stage_duration_seconds_bucket")
	assert.Contains(t, text, "covpipe_run_exit_code 0")
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	finishStage(a.Hooks(), domain.StageBuild, 0, time.Second)
	assert.Equal(t, 0, testutil.CollectAndCount(b.stageRuns))
	assert.NotSame(t, a.Registry(), b.Registry())
}
