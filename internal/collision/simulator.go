// Package collision runs the colliding-blocks π demonstration: a heavy
// block P slides into a light block Q in front of a wall, and with mass
// ratio 100^N the total count of elastic collisions spells out the first
// N+1 digits of π.
//
// The engine is exact in velocity space: collisions use the closed-form
// 1D elastic formulas, so the count and the final energy depend only on
// floating-point rounding, not on the sub-step size. Positions decide when
// contacts fire, velocities decide what they do.
package collision

import (
	"errors"
	"fmt"
	"log"
	"math"
)

// Track geometry. The wall sits at x=0 and both blocks travel on x.
const (
	WallX   = 0.0
	PRadius = 0.5
	QRadius = 0.25

	pStartX = 5.0
	qStartX = 2.0

	// P approaches at 2 m/s; the unit-ratio demo uses 1 m/s.
	pStartV     = -2.0
	pStartVUnit = -1.0

	// minClosing rejects grazing contacts with negligible relative speed.
	minClosing = 1e-6

	// sepEpsilon is the post-collision separation between block faces.
	sepEpsilon = 1e-9

	// energyTol is the relative drift past which a warning is raised.
	energyTol = 1e-6

	eventRingSize = 256
)

var ErrBadMassRatio = errors.New("collision: mass ratio must be finite and positive")

// State is the engine lifecycle: Idle -> Running -> Stopped or Complete.
type State int

const (
	Idle State = iota
	Running
	Stopped
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Config holds the mass ratio and the stop heuristic. Under ideal elastic
// dynamics the exact terminal test ends every run; the quiet-period
// heuristic is the net under a numerically damaged run.
type Config struct {
	MassRatio float64 `yaml:"mass_ratio"`

	QuietMs        float64 `yaml:"quiet_ms"`
	EnergyFloorPct float64 `yaml:"energy_floor_pct"`
	SpeedFloor     float64 `yaml:"speed_floor"`

	// MaxSubSteps bounds work per frame regardless of the ratio policy.
	MaxSubSteps int `yaml:"max_sub_steps"`
}

func DefaultConfig() Config {
	return Config{
		MassRatio:      100,
		QuietMs:        3000,
		EnergyFloorPct: 1.0,
		SpeedFloor:     0.001,
		MaxSubSteps:    500,
	}
}

type body struct {
	mass   float64
	radius float64
	x, v   float64
}

// stepPolicy is the sub-step resolution for a mass ratio band. Extreme
// ratios produce extreme block speeds, which need finer steps to keep the
// collision burst near the wall resolvable.
type stepPolicy struct {
	substeps int
	maxDt    float64
}

func policyFor(ratio float64) stepPolicy {
	switch {
	case ratio >= 1e6:
		return stepPolicy{500, 5e-5}
	case ratio >= 1e4:
		return stepPolicy{200, 1e-4}
	case ratio >= 100:
		return stepPolicy{100, 1e-4}
	default:
		return stepPolicy{50, 2e-4}
	}
}

// Stats is the engine snapshot, including body kinematics for rendering.
type Stats struct {
	State      State
	MassRatio  float64
	Count      int
	Expected   int
	PiEstimate float64
	ErrorPct   float64

	Energy         float64
	EnergyDriftRel float64
	SimTimeS       float64
	Anomalies      uint64

	XP, VP float64
	XQ, VQ float64
}

// Simulator is the colliding-blocks engine. Single-threaded: Step, Stats
// and the mutators must be called from one goroutine.
type Simulator struct {
	cfg Config

	state State
	p, q  body

	count    int
	expected int

	simTime   float64 // integrated sub-step time, seconds
	accumMs   float64 // wall milliseconds fed to Step while Running
	lastHitMs float64 // accumMs at the last counted collision

	initialEnergy float64
	energyWarned  bool
	anomalies     uint64

	events  *eventRing
	onEvent func(Event)
}

// New validates the configured mass ratio and returns an Idle simulator
// with the bodies placed.
func New(cfg Config) (*Simulator, error) {
	d := DefaultConfig()
	if cfg.QuietMs <= 0 {
		cfg.QuietMs = d.QuietMs
	}
	if cfg.EnergyFloorPct <= 0 {
		cfg.EnergyFloorPct = d.EnergyFloorPct
	}
	if cfg.SpeedFloor <= 0 {
		cfg.SpeedFloor = d.SpeedFloor
	}
	if cfg.MaxSubSteps <= 0 {
		cfg.MaxSubSteps = d.MaxSubSteps
	}

	s := &Simulator{cfg: cfg, events: newEventRing(eventRingSize)}
	if err := s.SetMassRatio(cfg.MassRatio); err != nil {
		return nil, err
	}
	return s, nil
}

// SetMassRatio validates r, adopts it, and re-initializes. Any run in
// progress is discarded.
func (s *Simulator) SetMassRatio(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return fmt.Errorf("%w: got %v", ErrBadMassRatio, r)
	}
	s.cfg.MassRatio = r
	s.initialize()
	return nil
}

func (s *Simulator) initialize() {
	r := s.cfg.MassRatio
	v0 := pStartV
	if r == 1 {
		v0 = pStartVUnit
	}
	s.p = body{mass: r, radius: PRadius, x: pStartX, v: v0}
	s.q = body{mass: 1, radius: QRadius, x: qStartX, v: 0}
	s.count = 0
	s.expected = int(math.Floor(math.Pi * math.Sqrt(r)))
	s.simTime = 0
	s.accumMs = 0
	s.lastHitMs = 0
	s.initialEnergy = s.energy()
	s.energyWarned = false
	s.anomalies = 0
	s.events.clear()
	s.state = Idle
}

// Start begins a run. Only an Idle simulator can start; Reset first to
// rerun.
func (s *Simulator) Start() error {
	if s.state != Idle {
		return fmt.Errorf("collision: cannot start from %s", s.state)
	}
	s.state = Running
	return nil
}

// Stop halts a running simulation manually.
func (s *Simulator) Stop() {
	if s.state == Running {
		s.state = Stopped
	}
}

// Reset re-places the bodies and returns to Idle.
func (s *Simulator) Reset() {
	s.initialize()
}

func (s *Simulator) State() State            { return s.state }
func (s *Simulator) IsComplete() bool        { return s.state == Complete }
func (s *Simulator) ExpectedCollisions() int { return s.expected }
func (s *Simulator) Count() int              { return s.count }

// SetEventFunc installs a callback invoked synchronously on every counted
// collision, in addition to the buffered queue.
func (s *Simulator) SetEventFunc(fn func(Event)) { s.onEvent = fn }

// Events drains the buffered collision events, oldest first.
func (s *Simulator) Events() []Event { return s.events.drain() }

// Step advances the simulation by dtMs of wall time, split into the
// policy's sub-steps. Non-running states and non-positive steps are no-ops.
func (s *Simulator) Step(dtMs float64) {
	if s.state != Running || dtMs <= 0 {
		return
	}
	s.accumMs += dtMs

	pol := policyFor(s.cfg.MassRatio)
	n := pol.substeps
	if n > s.cfg.MaxSubSteps {
		n = s.cfg.MaxSubSteps
	}
	sub := dtMs / 1000 / float64(n)
	if sub > pol.maxDt {
		// Simulated time falls behind wall time here; at extreme ratios
		// accuracy wins over real-time playback.
		sub = pol.maxDt
	}

	for i := 0; i < n && s.state == Running; i++ {
		s.subStep(sub)
	}
	s.checkEnergy()
	s.checkStop()
}

func (s *Simulator) subStep(dt float64) {
	s.simTime += dt
	s.p.x += s.p.v * dt
	s.q.x += s.q.v * dt

	// P-Q contact: faces touching and actually closing.
	gap := (s.p.x - s.p.radius) - (s.q.x + s.q.radius)
	if gap <= 0 && s.q.v-s.p.v > minClosing {
		s.resolveElastic()
		s.p.x = s.q.x + s.q.radius + s.p.radius + sepEpsilon
		s.countHit(BlockBlock)
	}

	// Q-wall: perfect reflection, position clamped outside the wall.
	if s.q.x-s.q.radius <= WallX && s.q.v < 0 {
		s.q.v = -s.q.v
		s.q.x = WallX + s.q.radius
		s.countHit(BlockWall)
	}

	// P never reaches the wall in exact dynamics; Q always rebounds it
	// first. If a coarse frame tunnels P through anyway, reflect it and
	// keep going: the run is damaged, not dead.
	if s.p.x-s.p.radius <= WallX && s.p.v < 0 {
		s.p.v = -s.p.v
		s.p.x = WallX + s.p.radius
		s.anomalies++
		log.Printf("collision: block P reached the wall at t=%.6fs (mass ratio %g), corrected", s.simTime, s.cfg.MassRatio)
	}
}

// resolveElastic applies the closed-form 1D elastic collision update.
func (s *Simulator) resolveElastic() {
	m1, m2 := s.p.mass, s.q.mass
	v1, v2 := s.p.v, s.q.v
	sum := m1 + m2
	s.p.v = ((m1-m2)*v1 + 2*m2*v2) / sum
	s.q.v = ((m2-m1)*v2 + 2*m1*v1) / sum
}

func (s *Simulator) countHit(kind EventKind) {
	s.count++
	s.lastHitMs = s.accumMs
	e := Event{Kind: kind, TimeS: s.simTime, XP: s.p.x, XQ: s.q.x, Count: s.count}
	s.events.push(e)
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

func (s *Simulator) energy() float64 {
	return 0.5*s.p.mass*s.p.v*s.p.v + 0.5*s.q.mass*s.q.v*s.q.v
}

// checkEnergy logs and counts a drift excursion beyond tolerance. Never
// fatal: the run continues on whatever energy it has.
func (s *Simulator) checkEnergy() {
	if s.initialEnergy == 0 {
		return
	}
	drift := math.Abs(s.energy()-s.initialEnergy) / s.initialEnergy
	if drift > energyTol {
		if !s.energyWarned {
			log.Printf("collision: energy drift %.3e at t=%.4fs (mass ratio %g)", drift, s.simTime, s.cfg.MassRatio)
			s.energyWarned = true
			s.anomalies++
		}
	} else if drift < energyTol/2 {
		s.energyWarned = false
	}
}

// checkStop ends the run. The exact terminal test (Q not moving toward
// the wall, P not catching Q) decides Complete versus Stopped; the
// quiet-period heuristic only fires on numerically damaged runs.
func (s *Simulator) checkStop() {
	if s.state != Running {
		return
	}

	if s.q.v >= 0 && s.p.v >= s.q.v {
		if s.count == s.expected {
			s.state = Complete
		} else {
			s.state = Stopped
			log.Printf("collision: terminal with %d of %d collisions (mass ratio %g)", s.count, s.expected, s.cfg.MassRatio)
		}
		return
	}

	if s.accumMs-s.lastHitMs < s.cfg.QuietMs {
		return
	}
	e := s.energy()
	lowEnergy := e < s.initialEnergy*s.cfg.EnergyFloorPct/100
	slow := math.Abs(s.p.v) < s.cfg.SpeedFloor && math.Abs(s.q.v) < s.cfg.SpeedFloor
	if lowEnergy || slow {
		s.state = Stopped
		log.Printf("collision: quiet for %.0fms, stopping with %d of %d", s.accumMs-s.lastHitMs, s.count, s.expected)
	}
}

// Stats returns the current snapshot.
func (s *Simulator) Stats() Stats {
	st := Stats{
		State:     s.state,
		MassRatio: s.cfg.MassRatio,
		Count:     s.count,
		Expected:  s.expected,
		Energy:    s.energy(),
		SimTimeS:  s.simTime,
		Anomalies: s.anomalies,
		XP:        s.p.x,
		VP:        s.p.v,
		XQ:        s.q.x,
		VQ:        s.q.v,
	}
	st.PiEstimate = float64(s.count) / math.Sqrt(s.cfg.MassRatio)
	st.ErrorPct = (st.PiEstimate - math.Pi) / math.Pi * 100
	if s.initialEnergy > 0 {
		st.EnergyDriftRel = math.Abs(st.Energy-s.initialEnergy) / s.initialEnergy
	}
	return st
}
