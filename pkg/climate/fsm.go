package climate

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/teslamotors/climate-agent/internal/log"
)

// States of a daily job cycle.
const (
	StateIdle       = "idle"
	StateEvaluating = "evaluating"
	StateTriggered  = "triggered"
	StateSkipped    = "skipped"
)

const (
	// EventEvaluate starts a cycle.
	EventEvaluate = "evaluate"
	// EventTrigger records that a threshold was crossed.
	EventTrigger = "trigger"
	// EventSkip records that no threshold was crossed.
	EventSkip = "skip"
	// EventUnavailable records that telemetry could not be fetched. The cycle ends as skipped.
	EventUnavailable = "unavailable"
	// EventReset returns a finished cycle to idle.
	EventReset = "reset"
)

// newMachine builds the cycle state machine. Events carry the job's context and one argument:
// the Decision for EventTrigger and EventSkip, the fetch error for EventUnavailable.
func (c *Controller) newMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: EventEvaluate, Src: []string{StateIdle}, Dst: StateEvaluating},
		{Name: EventTrigger, Src: []string{StateEvaluating}, Dst: StateTriggered},
		{Name: EventSkip, Src: []string{StateEvaluating}, Dst: StateSkipped},
		{Name: EventUnavailable, Src: []string{StateEvaluating}, Dst: StateSkipped},
		{Name: EventReset, Src: []string{StateEvaluating, StateTriggered, StateSkipped}, Dst: StateIdle},
	}
	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			log.Debug("HVAC job %s -> %s (%s)", e.Src, e.Dst, e.Event)
		},
		"enter_" + StateTriggered: func(_ context.Context, e *fsm.Event) {
			ctx, decision := e.Args[0].(context.Context), e.Args[1].(Decision)
			c.startClimate(ctx, decision)
		},
		"enter_" + StateSkipped: func(_ context.Context, e *fsm.Event) {
			c.skip(e.Event, e.Args[1])
		},
	}
	return fsm.NewFSM(StateIdle, events, callbacks)
}
