// Package metrics provides run-level observers for the two π engines.
// A Metric folds scalar samples into one reportable value.
package metrics

import "math"

type Metric interface {
	Name() string
	Observe(v float64, tMs float64)
	Value() float64
	Reset()
}

// PiError tracks the signed percent error of the most recent π estimate.
type PiError struct {
	name    string
	last    float64
	samples int
}

func NewPiError() *PiError {
	return &PiError{name: "pi_error_pct"}
}

func (p *PiError) Name() string { return p.name }

func (p *PiError) Observe(estimate float64, tMs float64) {
	p.last = (estimate - math.Pi) / math.Pi * 100
	p.samples++
}

func (p *PiError) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.last
}

func (p *PiError) Reset() {
	p.last = 0
	p.samples = 0
}

// EnergyDrift tracks the maximum relative deviation from the first
// observed energy.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(energy float64, tMs float64) {
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// LandedRate reports landings per second across the observed span. It
// observes the cumulative landed count, so sampling cadence does not skew
// the rate.
type LandedRate struct {
	name       string
	firstCount float64
	firstMs    float64
	lastCount  float64
	lastMs     float64
	samples    int
}

func NewLandedRate() *LandedRate {
	return &LandedRate{name: "landed_per_sec"}
}

func (l *LandedRate) Name() string { return l.name }

func (l *LandedRate) Observe(totalLanded float64, tMs float64) {
	if l.samples == 0 {
		l.firstCount = totalLanded
		l.firstMs = tMs
	}
	l.lastCount = totalLanded
	l.lastMs = tMs
	l.samples++
}

func (l *LandedRate) Value() float64 {
	span := l.lastMs - l.firstMs
	if span <= 0 {
		return 0
	}
	return (l.lastCount - l.firstCount) / (span / 1000)
}

func (l *LandedRate) Reset() {
	l.firstCount = 0
	l.firstMs = 0
	l.lastCount = 0
	l.lastMs = 0
	l.samples = 0
}
