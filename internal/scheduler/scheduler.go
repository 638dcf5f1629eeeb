// Package scheduler runs tagged jobs from a single cooperative polling loop.
//
// Jobs never run concurrently: [Scheduler.Run] polls for due jobs, runs each to completion, and
// sleeps between polls. A job that panics is recovered and reported as an error so that the loop
// itself keeps running.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/teslamotors/climate-agent/internal/clock"
	"github.com/teslamotors/climate-agent/internal/log"
)

const (
	DefaultPollInterval = time.Second
	DefaultErrorBackoff = 5 * time.Second
)

// Job is the unit of work run by a Scheduler.
type Job = func(ctx context.Context)

type task struct {
	tag  string
	next time.Time
	job  Job

	// Set for daily tasks only.
	daily bool
	at    TimeOfDay
	days  DaySet
}

// Scheduler keeps at most one task per tag. It is not safe for concurrent use; jobs may register
// and cancel tasks from within Run because jobs execute on the loop's goroutine.
type Scheduler struct {
	PollInterval time.Duration
	ErrorBackoff time.Duration

	tasks map[string]*task
	clock clock.Clock
}

// New returns an empty Scheduler. Pass a nil clk to use the system clock.
func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.System{}
	}
	return &Scheduler{
		PollInterval: DefaultPollInterval,
		ErrorBackoff: DefaultErrorBackoff,
		tasks:        make(map[string]*task),
		clock:        clk,
	}
}

// Daily registers job to run at the given time on every day in days. Which days are active is
// re-evaluated each time the job is rescheduled, so the process does not need to be restarted to
// pick up the next active day. Returns false, and registers nothing, if days is empty.
func (s *Scheduler) Daily(tag string, at TimeOfDay, days DaySet, job Job) bool {
	now := s.clock.Now()
	next, ok := NextOccurrence(now, at, days)
	if !ok {
		log.Info("No active days configured; %s not scheduled.", tag)
		return false
	}
	switch {
	case sameDay(next, now):
		log.Info("Job %s scheduled for today (%s) at %s.", tag, now.Weekday(), at)
	case days.Contains(now.Weekday()):
		log.Info("Start time %s has already passed today (%s); %s will first run %s.", at, now.Weekday(), tag, next.Weekday())
	default:
		log.Info("Today (%s) is not an active day; skipping %s today.", now.Weekday(), tag)
	}
	s.replace(&task{tag: tag, next: next, job: job, daily: true, at: at, days: days})
	log.Info("Next run of %s at %s.", tag, next.Format(time.RFC3339))
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// After registers job to run once, d from now. A pending task with the same tag is replaced, so
// at most one task per tag is ever outstanding.
func (s *Scheduler) After(tag string, d time.Duration, job Job) {
	s.replace(&task{tag: tag, next: s.clock.Now().Add(d), job: job})
}

func (s *Scheduler) replace(t *task) {
	if _, ok := s.tasks[t.tag]; ok {
		log.Info("Replacing pending %s task.", t.tag)
	}
	s.tasks[t.tag] = t
}

// Cancel removes the task registered under tag. Returns false if there was none.
func (s *Scheduler) Cancel(tag string) bool {
	if _, ok := s.tasks[tag]; !ok {
		return false
	}
	delete(s.tasks, tag)
	return true
}

// Next returns when the task registered under tag is due.
func (s *Scheduler) Next(tag string) (time.Time, bool) {
	t, ok := s.tasks[tag]
	if !ok {
		return time.Time{}, false
	}
	return t.next, true
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

func (s *Scheduler) due(now time.Time) []*task {
	var due []*task
	for _, t := range s.tasks {
		if !t.next.After(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].tag < due[j].tag
		}
		return due[i].next.Before(due[j].next)
	})
	return due
}

// RunPending runs every task that is due, in due order. One-shot tasks are removed before they
// run; daily tasks are rescheduled. If a job panics, RunPending stops and returns an error.
func (s *Scheduler) RunPending(ctx context.Context) error {
	for _, t := range s.due(s.clock.Now()) {
		if current, ok := s.tasks[t.tag]; !ok || current != t {
			// Cancelled or replaced by a job that ran earlier in this pass.
			continue
		}
		if t.daily {
			s.reschedule(t)
		} else {
			delete(s.tasks, t.tag)
		}
		if err := s.runJob(ctx, t); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

func (s *Scheduler) reschedule(t *task) {
	from := s.clock.Now()
	if t.next.After(from) {
		from = t.next
	}
	next, ok := NextOccurrence(from, t.at, t.days)
	if !ok {
		delete(s.tasks, t.tag)
		return
	}
	t.next = next
	log.Info("Next run of %s at %s.", t.tag, next.Format(time.RFC3339))
}

func (s *Scheduler) runJob(ctx context.Context, t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("Stack trace: %s", debug.Stack())
			err = fmt.Errorf("job %s panicked: %v", t.tag, r)
		}
	}()
	log.Debug("Running %s.", t.tag)
	t.job(ctx)
	return nil
}

// Run polls for due tasks until ctx is cancelled. Errors from a poll are logged and followed by a
// pause of s.ErrorBackoff; they never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := s.RunPending(ctx); err != nil {
			log.Error("Unexpected error in main loop: %s", err)
			if err := clock.Sleep(ctx, s.clock, s.ErrorBackoff); err != nil {
				return err
			}
		}
		if err := clock.Sleep(ctx, s.clock, s.PollInterval); err != nil {
			return err
		}
	}
}
