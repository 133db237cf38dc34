// Package montecarlo runs the falling-ball π estimator: balls are sampled
// uniformly over a square board with an inscribed circle, dropped, and
// counted once they land; the inside fraction estimates π/4. Each ball is
// classified against the circle at its sampling point, once, at spawn.
// Wind and bounces move the visual landing spot but never the count. A
// bounded arena of live balls keeps memory flat; evicted balls fold into
// cumulative counters first, so the running statistics are exactly what
// an unbounded run would report.
package montecarlo

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tubone24/monte-carlo-3d-app/internal/atmosphere"
	"github.com/tubone24/monte-carlo-3d-app/internal/noise"
	"github.com/tubone24/monte-carlo-3d-app/internal/physics"
	"github.com/tubone24/monte-carlo-3d-app/internal/sim"
)

const (
	minBatchSize = 1
	maxBatchSize = 500
)

type Config struct {
	// CircleRadius is the inscribed circle radius; the bounding square
	// spans [-r, r] on x and z.
	CircleRadius float64 `yaml:"circle_radius"`
	DropHeight   float64 `yaml:"drop_height"`

	BatchSize    int   `yaml:"batch_size"`
	SpawnEveryMs int64 `yaml:"spawn_every_ms"`

	// MaxBalls is the live ceiling; exceeding it evicts the EvictCount
	// oldest balls.
	MaxBalls   int `yaml:"max_balls"`
	EvictCount int `yaml:"evict_count"`

	Seed int64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		CircleRadius: 1.5,
		DropHeight:   8.0,
		BatchSize:    40,
		SpawnEveryMs: 500,
		MaxBalls:     5000,
		EvictCount:   1000,
		Seed:         1,
	}
}

// withDefaults fills non-positive fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CircleRadius <= 0 {
		c.CircleRadius = d.CircleRadius
	}
	if c.DropHeight <= 0 {
		c.DropHeight = d.DropHeight
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.SpawnEveryMs <= 0 {
		c.SpawnEveryMs = d.SpawnEveryMs
	}
	if c.MaxBalls <= 0 {
		c.MaxBalls = d.MaxBalls
	}
	if c.EvictCount <= 0 {
		c.EvictCount = d.EvictCount
	}
	if c.EvictCount > c.MaxBalls {
		c.EvictCount = c.MaxBalls
	}
	return c
}

// Stats is the estimator snapshot. TotalBalls counts landed balls over
// the whole run, evicted balls included, and InsideBalls the subset whose
// sampling point fell inside the circle; Live, Airborne and Landed
// describe only the balls currently in the arena.
type Stats struct {
	TotalBalls  int
	InsideBalls int
	PiEstimate  float64
	ErrorPct    float64

	Live     int
	Airborne int
	Landed   int

	Spawned   uint64
	Evicted   uint64
	Anomalies uint64
}

// Simulation is the Monte Carlo engine. It is single-threaded: Step, Stats
// and the mutators must all be called from the same goroutine.
type Simulation struct {
	cfg     Config
	env     *atmosphere.Conditions
	field   *noise.Field
	integ   *physics.Integrator
	factory *physics.Factory
	rng     *rand.Rand
	clock   sim.Clock

	pool   arena
	nextID uint64

	// epochMs anchors simulation time at the last seed/reset, so gust
	// phases and spawn cadence replay identically after Reset.
	epochMs     int64
	lastSpawnMs int64
	spawned     uint64
	evicted     uint64

	// Counters folded in from evicted landed balls.
	foldedTotal  int
	foldedInside int

	// Running counters over balls still in the arena.
	liveLanded int
	liveInside int

	onEvict func(id uint64, b *physics.Ball)
}

// New creates an engine. env is the live environment record shared with
// the UI; clock supplies simulation time.
func New(cfg Config, env *atmosphere.Conditions, clock sim.Clock) *Simulation {
	cfg = cfg.withDefaults()
	s := &Simulation{
		cfg:   cfg,
		env:   env,
		clock: clock,
		integ: physics.NewIntegrator(),
	}
	s.seed()
	return s
}

// seed rebuilds everything derived from the configured seed.
func (s *Simulation) seed() {
	s.rng = rand.New(rand.NewSource(s.cfg.Seed))
	s.field = noise.New(s.cfg.Seed)
	s.factory = physics.NewFactory(s.rng)
	s.epochMs = s.clock.Now()
	// Backdate the spawn timer so the first Step spawns immediately.
	s.lastSpawnMs = -s.cfg.SpawnEveryMs
}

// SetEvictFunc installs a disposal hook called once per evicted ball,
// before its slot is recycled. The UI uses it to release render handles.
func (s *Simulation) SetEvictFunc(fn func(id uint64, b *physics.Ball)) {
	s.onEvict = fn
}

// SetBatchSize adjusts the spawn batch, clamped to [1, 500].
func (s *Simulation) SetBatchSize(n int) {
	if n < minBatchSize {
		n = minBatchSize
	}
	if n > maxBatchSize {
		n = maxBatchSize
	}
	s.cfg.BatchSize = n
}

func (s *Simulation) BatchSize() int { return s.cfg.BatchSize }

// Conditions returns the live environment record.
func (s *Simulation) Conditions() *atmosphere.Conditions { return s.env }

// CircleRadius returns the board's inscribed circle radius.
func (s *Simulation) CircleRadius() float64 { return s.cfg.CircleRadius }

// ForEach visits every live ball oldest-first, with its spawn-time
// inside/outside classification. The pointer is only valid during the
// call.
func (s *Simulation) ForEach(fn func(id uint64, b *physics.Ball, inside bool)) {
	s.pool.forEach(func(sl *slot) {
		fn(sl.id, &sl.ball, sl.inside)
	})
}

// Step advances the engine one frame: integrate airborne balls, spawn a
// batch when the cadence is due, then evict overflow past the ceiling.
func (s *Simulation) Step(dtMs float64) {
	if dtMs <= 0 {
		return
	}
	now := s.clock.Now() - s.epochMs

	s.pool.forEach(func(sl *slot) {
		b := &sl.ball
		if b.Landed {
			return
		}
		s.integ.Step(b, dtMs, s.env, s.field, now)
		if b.Landed {
			s.liveLanded++
			if sl.inside {
				s.liveInside++
			}
		}
	})

	if now-s.lastSpawnMs >= s.cfg.SpawnEveryMs {
		s.spawnBatch(s.cfg.BatchSize)
		s.lastSpawnMs = now
	}

	if s.pool.len() > s.cfg.MaxBalls {
		s.evictOldest(s.cfg.EvictCount)
	}
}

// spawnBatch drops n balls uniformly over the bounding square and
// classifies each against the circle at its sampling point. The flag is
// final here; nothing downstream looks at where the ball ends up.
func (s *Simulation) spawnBatch(n int) {
	r := s.cfg.CircleRadius
	for i := 0; i < n; i++ {
		x := (s.rng.Float64()*2 - 1) * r
		z := (s.rng.Float64()*2 - 1) * r
		b := s.factory.New(mgl64.Vec3{x, s.cfg.DropHeight, z})
		s.nextID++
		s.pool.alloc(b, s.nextID, x*x+z*z <= r*r)
		s.spawned++
	}
}

// evictOldest removes the n oldest balls. A landed ball folds into the
// cumulative counters before removal, so the running statistics never
// change; an airborne ball is simply dropped.
func (s *Simulation) evictOldest(n int) {
	s.pool.evictOldest(n, func(sl *slot) {
		if sl.ball.Landed {
			s.foldedTotal++
			s.liveLanded--
			if sl.inside {
				s.foldedInside++
				s.liveInside--
			}
		}
		s.evicted++
		if s.onEvict != nil {
			s.onEvict(sl.id, &sl.ball)
		}
	})
}

// Stats returns the current snapshot.
func (s *Simulation) Stats() Stats {
	total := s.foldedTotal + s.liveLanded
	inside := s.foldedInside + s.liveInside

	st := Stats{
		TotalBalls:  total,
		InsideBalls: inside,
		Live:        s.pool.len(),
		Airborne:    s.pool.len() - s.liveLanded,
		Landed:      s.liveLanded,
		Spawned:     s.spawned,
		Evicted:     s.evicted,
		Anomalies:   s.integ.Anomalies(),
	}
	if total > 0 {
		st.PiEstimate = 4 * float64(inside) / float64(total)
		st.ErrorPct = (st.PiEstimate - math.Pi) / math.Pi * 100
	}
	return st
}

// Reset clears the arena and all counters and re-derives the RNG and noise
// field from the seed, so a reset run replays identically.
func (s *Simulation) Reset() {
	s.pool.reset()
	s.nextID = 0
	s.spawned = 0
	s.evicted = 0
	s.foldedTotal = 0
	s.foldedInside = 0
	s.liveLanded = 0
	s.liveInside = 0
	s.seed()
}
