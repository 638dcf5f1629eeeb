// Package climate decides when to precondition the cabin and when to stop again.
//
// A [Controller] is driven by a scheduler. Its daily job fetches telemetry, starts climate
// conditioning if it is cold outside or hot inside, and arms a single shutdown check. The shutdown
// check stops conditioning unless the vehicle has started moving in the meantime.
package climate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/vehicle"
)

// ShutdownCheckTag identifies the pending shutdown check. At most one is ever outstanding.
const ShutdownCheckTag = "shutdown_check"

// Vehicle is the subset of *vehicle.Vehicle used by a Controller.
type Vehicle interface {
	Snapshot(ctx context.Context) (*vehicle.Snapshot, error)
	StartClimate(ctx context.Context, targetCelsius float64) error
	StopClimate(ctx context.Context) error
}

// Scheduler arms and clears deferred jobs. Arming a tag that is already pending replaces the
// pending job.
type Scheduler interface {
	After(tag string, d time.Duration, job func(ctx context.Context))
	Cancel(tag string) bool
}

// Settings configure a Controller.
type Settings struct {
	TargetTemp float64 // Celsius, applied to both driver and passenger
	CheckDelay time.Duration
	Thresholds
}

// Controller runs the daily job and the shutdown check. Like the scheduler that drives it, it is
// not safe for concurrent use.
type Controller struct {
	settings Settings
	car      Vehicle
	sched    Scheduler
	machine  *fsm.FSM

	// cycle identifies the most recent daily job in logs, so that a shutdown check can be matched
	// to the start that armed it.
	cycle string
}

// NewController returns a Controller that acts on car and arms shutdown checks with sched.
func NewController(car Vehicle, sched Scheduler, settings Settings) *Controller {
	c := &Controller{
		settings: settings,
		car:      car,
		sched:    sched,
	}
	c.machine = c.newMachine()
	return c
}

// State returns the outcome of the most recent daily job, or StateIdle if none has run.
func (c *Controller) State() string {
	return c.machine.Current()
}

// fire moves the cycle to its next state. Transitions always complete even if ctx is cancelled, so
// the machine never stalls between states; ctx itself travels in the event arguments for the
// callbacks that act on the vehicle.
func (c *Controller) fire(ctx context.Context, event string, arg interface{}) bool {
	if err := c.machine.Event(context.WithoutCancel(ctx), event, ctx, arg); err != nil {
		log.Error("HVAC job cannot %s from state %s: %s", event, c.machine.Current(), err)
		return false
	}
	return true
}

// RunDailyJob fetches telemetry and starts climate conditioning if either threshold is crossed.
// Failures are logged and end the cycle; they are never returned to the scheduler.
func (c *Controller) RunDailyJob(ctx context.Context) {
	c.cycle = uuid.NewString()
	log.Info("=== HVAC Job Triggered === cycle=%s", c.cycle)
	if !c.machine.Is(StateIdle) && !c.fire(ctx, EventReset, nil) {
		return
	}
	if !c.fire(ctx, EventEvaluate, nil) {
		return
	}

	snapshot, err := c.car.Snapshot(ctx)
	if err != nil {
		c.fire(ctx, EventUnavailable, err)
		return
	}
	log.Info("Vehicle status: %s", snapshot)

	decision := Evaluate(snapshot, c.settings.Thresholds)
	if decision.Trigger {
		c.fire(ctx, EventTrigger, decision)
	} else {
		c.fire(ctx, EventSkip, decision)
	}
}

// startClimate runs on entering StateTriggered.
func (c *Controller) startClimate(ctx context.Context, decision Decision) {
	log.Info("Temperature condition met, starting HVAC due to: %s", strings.Join(decision.Reasons, "; "))
	if err := c.car.StartClimate(ctx, c.settings.TargetTemp); err != nil {
		log.Warning("Climate start reported errors: %s", err)
	}
	c.sched.After(ShutdownCheckTag, c.settings.CheckDelay, c.CheckShutdown)
	log.Info("Shutdown check scheduled in %s.", c.settings.CheckDelay)
}

// skip runs on entering StateSkipped. A fetch failure is reported as such, not as a threshold miss.
func (c *Controller) skip(event string, cause interface{}) {
	if event == EventUnavailable {
		log.Error("Skipping HVAC job: vehicle data unavailable: %v", cause)
		return
	}
	log.Info("Temperature conditions NOT met (outside >= %g°C, inside <= %g°C). Skipping HVAC.",
		c.settings.Outdoor, c.settings.Indoor)
}

// CheckShutdown stops climate conditioning unless the vehicle is moving. It clears its own
// registration and never re-arms.
func (c *Controller) CheckShutdown(ctx context.Context) {
	c.sched.Cancel(ShutdownCheckTag)

	snapshot, err := c.car.Snapshot(ctx)
	if err != nil {
		log.Error("Shutdown check for cycle %s failed: vehicle data unavailable: %s", c.cycle, err)
		return
	}
	log.Info("Shutdown check for cycle %s: %s", c.cycle, snapshot)

	if snapshot.Moving() {
		log.Info("Car is moving, HVAC remains active.")
		return
	}
	if err := c.car.StopClimate(ctx); err != nil {
		log.Warning("Failed to stop HVAC: %s", err)
		return
	}
	log.Info("HVAC stopped after %s because car is idle.", c.settings.CheckDelay)
}
