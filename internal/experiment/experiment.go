// Package experiment runs the engines headless on a hand-advanced clock:
// fixed-size ticks, periodic probe samples, no renderer. Ensembles fan the
// same experiment out over derived seeds.
package experiment

import (
	"context"
	"runtime"
	"sync"

	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/sim"
)

type Config struct {
	// DtMs is the fixed tick size. Integer milliseconds keep the manual
	// clock and the step accumulator in lockstep.
	DtMs          int64
	DurationMs    int64
	SampleEveryMs int64
}

func DefaultRunConfig() Config {
	return Config{DtMs: 16, DurationMs: 30_000, SampleEveryMs: 250}
}

func (c Config) withDefaults() Config {
	d := DefaultRunConfig()
	if c.DtMs <= 0 {
		c.DtMs = d.DtMs
	}
	if c.DurationMs <= 0 {
		c.DurationMs = d.DurationMs
	}
	if c.SampleEveryMs <= 0 {
		c.SampleEveryMs = d.SampleEveryMs
	}
	return c
}

// Result holds the sampled series of one run. Every series in Series has
// exactly len(TimesMs) entries.
type Result struct {
	Name    string
	TimesMs []int64
	Series  map[string][]float64
	Steps   int
}

// Last returns the final sample of a series, or 0 when absent.
func (r *Result) Last(series string) float64 {
	vs := r.Series[series]
	if len(vs) == 0 {
		return 0
	}
	return vs[len(vs)-1]
}

type Experiment struct {
	name  string
	cfg   Config
	sys   sim.System
	probe Probe
	clock *sim.ManualClock
}

// Build constructs a named experiment from the registry, wired to a fresh
// manual clock.
func (r *Registry) Build(name string, lab *config.Config, cfg Config) (*Experiment, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	clock := sim.NewManualClock()
	sys, probe, err := factory(lab, clock)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		name:  name,
		cfg:   cfg.withDefaults(),
		sys:   sys,
		probe: probe,
		clock: clock,
	}, nil
}

// Run ticks the system to the configured duration, probing on the sample
// cadence. Systems that reach a terminal state end the run early.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	res := &Result{Name: e.name, Series: make(map[string][]float64)}

	steps := int(e.cfg.DurationMs / e.cfg.DtMs)
	lastSample := int64(-e.cfg.SampleEveryMs)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		e.clock.Advance(e.cfg.DtMs)
		e.sys.Step(float64(e.cfg.DtMs))
		res.Steps++

		now := e.clock.Now()
		if now-lastSample >= e.cfg.SampleEveryMs {
			e.sample(res, now)
			lastSample = now
		}

		if s, ok := e.sys.(interface{ State() collision.State }); ok && s.State() != collision.Running {
			break
		}
	}

	// Always capture the final state, even off-cadence.
	if now := e.clock.Now(); now != lastSample {
		e.sample(res, now)
	}
	return res, nil
}

func (e *Experiment) sample(res *Result, nowMs int64) {
	res.TimesMs = append(res.TimesMs, nowMs)
	for k, v := range e.probe() {
		res.Series[k] = append(res.Series[k], v)
	}
}

// System exposes the underlying engine for run-specific inspection.
func (e *Experiment) System() sim.System { return e.sys }

// Ensemble repeats one experiment over consecutive seeds.
type Ensemble struct {
	reg       *Registry
	name      string
	base      *config.Config
	runs      int
	seedStart int64
}

func NewEnsemble(reg *Registry, name string, base *config.Config, runs int, seedStart int64) *Ensemble {
	return &Ensemble{reg: reg, name: name, base: base, runs: runs, seedStart: seedStart}
}

// Run executes the ensemble with one goroutine per run, bounded by CPU
// count. Each run owns an isolated engine and clock.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.runs)
	errs := make([]error, e.runs)

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	for i := 0; i < e.runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			lab := *e.base
			lab.Scene.Seed = e.seedStart + int64(idx)

			exp, err := e.reg.Build(e.name, &lab, cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = exp.Run(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
