package sim

import "time"

// Clock supplies monotonic simulation time in milliseconds. Engines never
// read the wall clock directly, so tests and replays can drive time by hand.
type Clock interface {
	Now() int64
}

// RealClock reports milliseconds elapsed since it was created.
type RealClock struct {
	start time.Time
}

func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

func (c *RealClock) Now() int64 {
	return time.Since(c.start).Milliseconds()
}

// ManualClock is a hand-advanced clock for tests and headless runs.
type ManualClock struct {
	ms int64
}

func NewManualClock() *ManualClock { return &ManualClock{} }

func (c *ManualClock) Now() int64 { return c.ms }

// Advance moves the clock forward by ms milliseconds.
func (c *ManualClock) Advance(ms int64) { c.ms += ms }

// Set jumps the clock to an absolute time.
func (c *ManualClock) Set(ms int64) { c.ms = ms }
