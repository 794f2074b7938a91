package tui

import (
	"io"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// HistoryTable writes one row per run, newest first as given.
func HistoryTable(w io.Writer, records []*domain.RunRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "STARTED", "STATUS", "EXIT", "STAGE", "DURATION", "LINES"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "EXIT", Align: text.AlignRight},
		{Name: "DURATION", Align: text.AlignRight},
		{Name: "LINES", Align: text.AlignRight},
	})

	for _, r := range records {
		stage := string(r.FailedStage)
		if stage == "" {
			if last, ok := r.LastStage(); ok {
				stage = string(last.Stage)
			}
		}
		lines := "-"
		if r.Summary != nil {
			lines = percent(r.Summary.LineRate())
		}
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.Duration().Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(r.Status),
			r.ExitCode,
			stage,
			duration,
			lines,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// Check is one preflight result.
type Check struct {
	Name   string
	Target string
	Err    error
}

// ChecksTable writes preflight results and returns true when all passed.
func ChecksTable(w io.Writer, checks []Check) bool {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"CHECK", "TARGET", "RESULT"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "TARGET", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	ok := true
	for _, c := range checks {
		result := "ok"
		if c.Err != nil {
			ok = false
			result = c.Err.Error()
		}
		t.AppendRow(table.Row{c.Name, c.Target, result})
	}

	if ok {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleDefault)
	}
	t.Render()
	return ok
}
