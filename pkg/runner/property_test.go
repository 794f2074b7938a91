package runner

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/covpipe/pkg/domain"
	"pgregory.net/rapid"
)

// Whatever stage fails, the stages before it ran in order, none after it started,
// and the run reports that stage's exit status.
func TestRunner_Run_FailFastProperty(t *testing.T) {
	base := t.TempDir()

	rapid.Check(t, func(rt *rapid.T) {
		codes := make(map[string]int, len(allTools))
		for _, tool := range allTools {
			codes[tool] = rapid.SampledFrom([]int{0, 0, 0, 1, 2, 8, 127, 255}).Draw(rt, tool)
		}

		fake := &fakeCommands{codes: codes}
		r := NewRunner(DefaultConfig(),
			WithCommandRunner(fake),
			WithBaseDir(base),
			WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
			WithSummary(false),
		)
		record, err := r.Run(context.Background())

		failAt := -1
		for i, tool := range allTools {
			if codes[tool] != 0 {
				failAt = i
				break
			}
		}

		ran := fake.tools()
		if failAt < 0 {
			if err != nil {
				rt.Fatalf("expected success, got %v", err)
			}
			if len(ran) != len(allTools) {
				rt.Fatalf("expected all stages to run, ran %v", ran)
			}
			if record.ExitCode != 0 {
				rt.Fatalf("exit code %d on success", record.ExitCode)
			}
			return
		}

		want := codes[allTools[failAt]]
		if got := domain.ExitCodeOf(err); got != want {
			rt.Fatalf("exit code = %d, want %d", got, want)
		}
		if len(ran) != failAt+1 {
			rt.Fatalf("ran %v, expected to stop after %s", ran, allTools[failAt])
		}
		for i, tool := range ran {
			if tool != allTools[i] {
				rt.Fatalf("stage %d ran %s, want %s", i, tool, allTools[i])
			}
		}
		if record.FailedStage != domain.StageOrder[failAt] {
			rt.Fatalf("failed stage = %s, want %s", record.FailedStage, domain.StageOrder[failAt])
		}
	})
}

// The toolchain always reaches the child environment regardless of what the
// inherited environment says about CC and CXX.
func TestBuildPlan_ToolchainProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cc := rapid.StringMatching(`[a-z][a-z0-9+.-]{0,10}`).Draw(rt, "cc")
		cxx := rapid.StringMatching(`[a-z][a-z0-9+.-]{0,10}`).Draw(rt, "cxx")
		inherited := rapid.SliceOf(rapid.SampledFrom([]string{
			"CC=cc", "CXX=c++", "PATH=/bin", "CC=", "HOME=/home/u", "CXX=clang++",
		})).Draw(rt, "env")

		cfg := DefaultConfig()
		cfg.Toolchain = domain.Toolchain{CC: cc, CXX: cxx}

		plan, err := BuildPlan(cfg, "/work", inherited)
		if err != nil {
			rt.Fatal(err)
		}
		for _, stage := range plan.Stages {
			gotCC, _ := domain.LookupEnv(stage.Command.Env, domain.EnvCC)
			gotCXX, _ := domain.LookupEnv(stage.Command.Env, domain.EnvCXX)
			if gotCC != cc || gotCXX != cxx {
				rt.Fatalf("%s: CC=%q CXX=%q, want %q %q", stage.Kind, gotCC, gotCXX, cc, cxx)
			}
		}
	})
}
