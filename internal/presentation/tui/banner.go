package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintBanner writes the covpipe banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   ___ _____   ___ __ (_)_ __   ___ ", "#38bdf8"},
		{"  / __/ _ \\ \\ / / '_ \\| | '_ \\ / _ \\", "#22d3ee"},
		{" | (_| (_) \\ V /| |_) | | |_) |  __/", "#2dd4bf"},
		{"  \\___\\___/ \\_/ | .__/|_| .__/ \\___|", "#34d399"},
		{"                |_|     |_|         ", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// StatusLine renders a one-line colored outcome for a finished run.
func StatusLine(w io.Writer, record *domain.RunRecord) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	var label termenv.Style
	switch record.Status {
	case domain.RunSucceeded:
		label = out.String("PASS").Foreground(p.Color("#22c55e")).Bold()
	case domain.RunCancelled:
		label = out.String("STOP").Foreground(p.Color("#eab308")).Bold()
	default:
		label = out.String("FAIL").Foreground(p.Color("#ef4444")).Bold()
	}

	detail := fmt.Sprintf("run %s finished in %s", shortID(record.ID), record.Duration().Round(time.Millisecond))
	if record.FailedStage != "" {
		detail = fmt.Sprintf("run %s stopped at %s (exit %d)", shortID(record.ID), record.FailedStage, record.ExitCode)
	}
	fmt.Fprintf(w, "%s %s\n", label, detail)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
