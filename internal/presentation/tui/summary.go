package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
)

// RunMarkdown describes a run record as a markdown document.
func RunMarkdown(record *domain.RunRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", record.ID)
	fmt.Fprintf(&b, "- **Status:** %s (exit %d)\n", record.Status, record.ExitCode)
	if record.FailedStage != "" {
		fmt.Fprintf(&b, "- **Stopped at:** %s\n", record.FailedStage)
	}
	fmt.Fprintf(&b, "- **Started:** %s\n", record.StartedAt.Format(time.RFC3339))
	if !record.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- **Duration:** %s\n", record.Duration().Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "- **Toolchain:** CC=`%s` CXX=`%s`\n", record.Toolchain.CC, record.Toolchain.CXX)
	fmt.Fprintf(&b, "- **Build directory:** `%s`\n", record.BuildDir)

	if len(record.Stages) > 0 {
		b.WriteString("\n## Stages\n\n")
		b.WriteString("| Stage | Exit | Duration | Command |\n")
		b.WriteString("|---|---:|---:|---|\n")
		for _, s := range record.Stages {
			fmt.Fprintf(&b, "| %s | %d | %s | `%s` |\n",
				s.Stage, s.ExitCode, s.Duration().Round(time.Millisecond), escapePipes(s.Command.String()))
		}
	}

	if s := record.Summary; s != nil {
		b.WriteString("\n## Coverage\n\n")
		b.WriteString("| | Hit | Found | Rate |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| Lines | %d | %d | %s |\n", s.LinesHit, s.LinesFound, percent(s.LineRate()))
		fmt.Fprintf(&b, "| Functions | %d | %d | %s |\n", s.FunctionsHit, s.FunctionsFound, percent(s.FunctionRate()))
		fmt.Fprintf(&b, "| Branches | %d | %d | %s |\n", s.BranchesHit, s.BranchesFound, percent(s.BranchRate()))
	}

	if record.Status == domain.RunSucceeded {
		fmt.Fprintf(&b, "\nReport: `%s`\n", record.ReportIndex)
	}
	return b.String()
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
