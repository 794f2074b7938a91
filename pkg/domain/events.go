package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart    EventType = "run_start"
	EventStageStart  EventType = "stage_start"
	EventStageFinish EventType = "stage_finish"
	EventRunFinish   EventType = "run_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StageEvent represents entry into or exit from a stage.
type StageEvent struct {
	EventBase
	Stage   StageKind `json:"stage"`
	Command Command   `json:"command"`

	// Result is only set on EventStageFinish.
	Result *StageResult `json:"result,omitempty"`
}

// RunEvent represents the start or end of a whole run.
type RunEvent struct {
	EventBase
	Record *RunRecord `json:"record"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnRunStart    func(context.Context, *RunEvent)
	OnStageStart  func(context.Context, *StageEvent)
	OnStageFinish func(context.Context, *StageEvent)
	OnRunFinish   func(context.Context, *RunEvent)
}

// Merge chains two hook sets; h runs before other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:    chain(h.OnRunStart, other.OnRunStart),
		OnStageStart:  chain(h.OnStageStart, other.OnStageStart),
		OnStageFinish: chain(h.OnStageFinish, other.OnStageFinish),
		OnRunFinish:   chain(h.OnRunFinish, other.OnRunFinish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
