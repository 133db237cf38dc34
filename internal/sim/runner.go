package sim

import (
	"context"
	"fmt"
	"time"
)

// System is a simulation engine advanced cooperatively in frame-sized steps.
// Step receives elapsed time in milliseconds; a step must never block.
type System interface {
	Step(dtMs float64)
	Reset()
}

// Observer is notified after every runner tick.
type Observer interface {
	OnTick(nowMs int64, dtMs float64)
}

// MaxFrameMs caps the dt handed to a system after a stall, so a paused or
// suspended process does not integrate one giant step on resume.
const MaxFrameMs = 100.0

// SimError reports a fatal runner condition with step and time context.
// Numerical anomalies inside engines are warnings and counters, not errors.
type SimError struct {
	Step    int
	TimeMs  int64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim: step %d t=%dms: %s", e.Step, e.TimeMs, e.Message)
}

// Runner drives a System from a Clock on a single goroutine.
type Runner struct {
	sys       System
	clock     Clock
	observers []Observer
	lastMs    int64
	steps     int
}

func NewRunner(sys System, clock Clock) *Runner {
	return &Runner{sys: sys, clock: clock, lastMs: clock.Now()}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Steps() int { return r.steps }

// Tick advances the system by the time elapsed since the previous tick,
// clamped to MaxFrameMs.
func (r *Runner) Tick() {
	now := r.clock.Now()
	dt := float64(now - r.lastMs)
	r.lastMs = now
	if dt <= 0 {
		return
	}
	if dt > MaxFrameMs {
		dt = MaxFrameMs
	}
	r.sys.Step(dt)
	r.steps++
	for _, o := range r.observers {
		o.OnTick(now, dt)
	}
}

// Run ticks the system at the given interval until ctx is canceled or
// done reports true. A nil done runs until cancellation.
func (r *Runner) Run(ctx context.Context, interval time.Duration, done func() bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick()
			if done != nil && done() {
				return nil
			}
		}
	}
}

// RunSteps advances a ManualClock-driven system by n fixed steps of dtMs.
func (r *Runner) RunSteps(n int, dtMs int64) {
	mc, ok := r.clock.(*ManualClock)
	if !ok {
		return
	}
	for i := 0; i < n; i++ {
		mc.Advance(dtMs)
		r.Tick()
	}
}
