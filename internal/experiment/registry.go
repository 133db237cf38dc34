package experiment

import (
	"fmt"
	"sort"

	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
	"github.com/tubone24/monte-carlo-3d-app/internal/sim"
)

// Probe samples named observables from a running system.
type Probe func() map[string]float64

// Factory builds a system ready to step, plus its probe. The clock is the
// one the runner will advance.
type Factory func(lab *config.Config, clock sim.Clock) (sim.System, Probe, error)

type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories["scene"] = newScene
	r.factories["collision"] = newCollision
	return r
}

func (r *Registry) Get(name string) (Factory, error) {
	fn, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown experiment: %s", name)
	}
	return fn, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newScene(lab *config.Config, clock sim.Clock) (sim.System, Probe, error) {
	// Each run owns its environment copy, so probes never race a shared UI.
	cond := lab.Atmosphere
	s := montecarlo.New(lab.Scene, &cond, clock)
	probe := func() map[string]float64 {
		st := s.Stats()
		return map[string]float64{
			"total":     float64(st.TotalBalls),
			"inside":    float64(st.InsideBalls),
			"live":      float64(st.Live),
			"pi":        st.PiEstimate,
			"error_pct": st.ErrorPct,
		}
	}
	return s, probe, nil
}

func newCollision(lab *config.Config, _ sim.Clock) (sim.System, Probe, error) {
	c, err := collision.New(lab.Collision)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(); err != nil {
		return nil, nil, err
	}
	probe := func() map[string]float64 {
		st := c.Stats()
		return map[string]float64{
			"count":  float64(st.Count),
			"pi":     st.PiEstimate,
			"energy": st.Energy,
			"drift":  st.EnergyDriftRel,
			"xp":     st.XP,
			"xq":     st.XQ,
		}
	}
	return c, probe, nil
}
