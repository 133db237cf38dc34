package montecarlo

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tubone24/monte-carlo-3d-app/internal/atmosphere"
	"github.com/tubone24/monte-carlo-3d-app/internal/physics"
	"github.com/tubone24/monte-carlo-3d-app/internal/sim"
)

func newTestSim(cfg Config) (*Simulation, *sim.ManualClock) {
	clock := sim.NewManualClock()
	return New(cfg, atmosphere.Default(), clock), clock
}

func tick(s *Simulation, clock *sim.ManualClock, n int) {
	for i := 0; i < n; i++ {
		clock.Advance(16)
		s.Step(16)
	}
}

func TestStatsEmpty(t *testing.T) {
	s, _ := newTestSim(DefaultConfig())
	st := s.Stats()

	if st.TotalBalls != 0 || st.InsideBalls != 0 {
		t.Errorf("fresh sim has counts: %+v", st)
	}
	if st.PiEstimate != 0 {
		t.Errorf("estimate without data = %v, want 0", st.PiEstimate)
	}
	if st.ErrorPct != 0 {
		t.Errorf("error without data = %v, want 0", st.ErrorPct)
	}
}

func TestSpawnCadence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 10
	cfg.SpawnEveryMs = 500
	s, clock := newTestSim(cfg)

	// First step spawns right away.
	clock.Advance(16)
	s.Step(16)
	if got := s.Stats().Live; got != 10 {
		t.Fatalf("first batch: live = %d, want 10", got)
	}

	// Nothing more until the cadence elapses.
	tick(s, clock, 20) // 320ms
	if got := s.Stats().Live; got != 10 {
		t.Fatalf("mid-cadence: live = %d, want 10", got)
	}

	tick(s, clock, 12) // past 500ms
	if got := s.Stats().Live; got != 20 {
		t.Fatalf("second batch: live = %d, want 20", got)
	}
}

func TestSpawnUniformOverSquare(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 500
	s, clock := newTestSim(cfg)

	clock.Advance(16)
	s.Step(16)

	// Spawning runs after integration within a step, so a fresh batch is
	// still exactly at its sampling points here.
	r := cfg.CircleRadius
	quadrants := [4]int{}
	s.ForEach(func(id uint64, b *physics.Ball, inside bool) {
		x, z := b.Pos.X(), b.Pos.Z()
		if x < -r || x > r || z < -r || z > r {
			t.Fatalf("spawn outside square: (%v, %v)", x, z)
		}
		if b.Pos.Y() != cfg.DropHeight {
			t.Fatalf("spawn height %v, want %v", b.Pos.Y(), cfg.DropHeight)
		}
		if inside != (x*x+z*z <= r*r) {
			t.Fatalf("inside flag disagrees with sampling point (%v, %v)", x, z)
		}
		q := 0
		if x >= 0 {
			q |= 1
		}
		if z >= 0 {
			q |= 2
		}
		quadrants[q]++
	})

	for q, n := range quadrants {
		if n < 60 {
			t.Errorf("quadrant %d underpopulated: %d of 500", q, n)
		}
	}
}

func TestInsideFixedAtSpawn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 21
	cfg.BatchSize = 60
	cfg.SpawnEveryMs = 1 << 40 // one batch only
	s, clock := newTestSim(cfg)

	// A hard crosswind carries balls well off their sampling points
	// before they land.
	s.Conditions().WindX = 12

	clock.Advance(16)
	s.Step(16)

	wantInside := 0
	s.ForEach(func(id uint64, b *physics.Ball, inside bool) {
		if inside {
			wantInside++
		}
	})
	if wantInside == 0 || wantInside == 60 {
		t.Fatalf("degenerate batch: %d of 60 inside", wantInside)
	}

	for i := 0; i < 4000 && s.Stats().Landed < 60; i++ {
		clock.Advance(16)
		s.Step(16)
	}

	st := s.Stats()
	if st.Landed != 60 {
		t.Fatalf("only %d of 60 landed", st.Landed)
	}
	if st.InsideBalls != wantInside {
		t.Errorf("inside = %d, want the %d classified at spawn", st.InsideBalls, wantInside)
	}

	// Some balls must have crossed the line while falling for the flag
	// to be distinguishable from the landing side.
	r2 := cfg.CircleRadius * cfg.CircleRadius
	crossed := 0
	s.ForEach(func(id uint64, b *physics.Ball, inside bool) {
		x, z := b.Pos.X(), b.Pos.Z()
		if (x*x+z*z <= r2) != inside {
			crossed++
		}
	})
	if crossed == 0 {
		t.Fatal("no ball drifted across the circle; raise the wind")
	}
}

func TestSetBatchSizeClamps(t *testing.T) {
	s, _ := newTestSim(DefaultConfig())

	s.SetBatchSize(0)
	if s.BatchSize() != 1 {
		t.Errorf("batch size = %d, want 1", s.BatchSize())
	}
	s.SetBatchSize(10000)
	if s.BatchSize() != 500 {
		t.Errorf("batch size = %d, want 500", s.BatchSize())
	}
	s.SetBatchSize(40)
	if s.BatchSize() != 40 {
		t.Errorf("batch size = %d, want 40", s.BatchSize())
	}
}

func TestEvictionFoldsLanded(t *testing.T) {
	s, _ := newTestSim(DefaultConfig())

	// Hand-build a landed board, half inside and half out, bypassing the
	// spawner so the split is exact.
	for i := 0; i < 20; i++ {
		b := testBall(0)
		b.Landed = true
		s.nextID++
		s.pool.alloc(b, s.nextID, i%2 == 0)
		s.liveLanded++
		if i%2 == 0 {
			s.liveInside++
		}
	}

	before := s.Stats()
	if before.TotalBalls != 20 || before.InsideBalls != 10 {
		t.Fatalf("setup stats %d/%d, want 10/20", before.InsideBalls, before.TotalBalls)
	}

	s.evictOldest(20)
	after := s.Stats()

	if after.TotalBalls != before.TotalBalls || after.InsideBalls != before.InsideBalls {
		t.Errorf("eviction changed stats: %d/%d -> %d/%d",
			before.InsideBalls, before.TotalBalls, after.InsideBalls, after.TotalBalls)
	}
	if after.Live != 0 {
		t.Errorf("live = %d after full eviction", after.Live)
	}
	if after.PiEstimate != before.PiEstimate {
		t.Errorf("estimate changed: %v -> %v", before.PiEstimate, after.PiEstimate)
	}
}

func TestEvictedAirborneContributeNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 20
	s, clock := newTestSim(cfg)

	clock.Advance(16)
	s.Step(16)

	// Evict the whole batch while still falling.
	s.evictOldest(20)

	st := s.Stats()
	if st.TotalBalls != 0 || st.InsideBalls != 0 {
		t.Errorf("airborne evictions counted: %+v", st)
	}
	if st.Evicted != 20 {
		t.Errorf("evicted = %d, want 20", st.Evicted)
	}
}

func TestDisposalHook(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 15
	s, clock := newTestSim(cfg)

	seen := map[uint64]int{}
	s.SetEvictFunc(func(id uint64, b *physics.Ball) {
		seen[id]++
	})

	clock.Advance(16)
	s.Step(16)
	s.evictOldest(15)

	if len(seen) != 15 {
		t.Fatalf("hook saw %d balls, want 15", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("ball %d disposed %d times", id, n)
		}
	}
}

func TestEvictionEquivalence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 123
	cfg.BatchSize = 10
	cfg.SpawnEveryMs = 100
	cfg.MaxBalls = 800
	cfg.EvictCount = 100

	ref := cfg
	ref.MaxBalls = 1 << 30

	a, clockA := newTestSim(cfg)
	b, clockB := newTestSim(ref)

	evictedAirborne := 0
	a.SetEvictFunc(func(id uint64, ball *physics.Ball) {
		if !ball.Landed {
			evictedAirborne++
		}
	})

	for i := 0; i < 2500; i++ {
		clockA.Advance(16)
		clockB.Advance(16)
		a.Step(16)
		b.Step(16)

		if i%200 == 0 {
			sa, sb := a.Stats(), b.Stats()
			if sa.TotalBalls != sb.TotalBalls || sa.InsideBalls != sb.InsideBalls {
				t.Fatalf("tick %d: bounded %d/%d vs unbounded %d/%d",
					i, sa.InsideBalls, sa.TotalBalls, sb.InsideBalls, sb.TotalBalls)
			}
		}
	}

	if a.Stats().Evicted == 0 {
		t.Fatal("ceiling never reached; test exercised nothing")
	}
	if evictedAirborne != 0 {
		t.Fatalf("%d airborne balls evicted; raise the ceiling", evictedAirborne)
	}

	// With thousands of landings the estimate should be in the right
	// neighborhood.
	if est := b.Stats().PiEstimate; math.Abs(est-math.Pi) > 0.3 {
		t.Errorf("estimate %v far from pi", est)
	}
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 77
	cfg.BatchSize = 25

	a, clockA := newTestSim(cfg)
	b, clockB := newTestSim(cfg)

	tickBoth := func(n int) {
		for i := 0; i < n; i++ {
			clockA.Advance(16)
			clockB.Advance(16)
			a.Step(16)
			b.Step(16)
		}
	}
	tickBoth(400)

	sa, sb := a.Stats(), b.Stats()
	if sa != sb {
		t.Fatalf("same seed diverged: %+v vs %+v", sa, sb)
	}

	var pa, pb []mgl64.Vec3
	a.ForEach(func(id uint64, ball *physics.Ball, inside bool) { pa = append(pa, ball.Pos) })
	b.ForEach(func(id uint64, ball *physics.Ball, inside bool) { pb = append(pb, ball.Pos) })
	if len(pa) != len(pb) {
		t.Fatalf("ball counts differ: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("ball %d diverged: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestResetReplays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 5
	s, clock := newTestSim(cfg)

	tick(s, clock, 300)
	first := s.Stats()

	s.Reset()
	if st := s.Stats(); st.TotalBalls != 0 || st.Live != 0 {
		t.Fatalf("reset left state: %+v", st)
	}

	tick(s, clock, 300)
	second := s.Stats()

	if first.TotalBalls != second.TotalBalls || first.InsideBalls != second.InsideBalls ||
		first.Spawned != second.Spawned {
		t.Errorf("replay diverged: %+v vs %+v", first, second)
	}
}

func BenchmarkStepFullArena(b *testing.B) {
	cfg := DefaultConfig()
	s, clock := newTestSim(cfg)

	// Fill to the ceiling first.
	for s.Stats().Live < cfg.MaxBalls {
		clock.Advance(16)
		s.Step(16)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clock.Advance(16)
		s.Step(16)
	}
}
