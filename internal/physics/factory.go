package physics

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Factory mints balls with small deterministic jitter from an injected
// RNG. Sharing one seeded rand.Rand across the run keeps spawns replayable.
type Factory struct {
	rng *rand.Rand

	BaseRadius   float64
	BaseMass     float64
	MaxSpin      float64
	JitterPct    float64
	MaxOffsetSec float64
}

func NewFactory(rng *rand.Rand) *Factory {
	return &Factory{
		rng:          rng,
		BaseRadius:   0.12,
		BaseMass:     0.6,
		MaxSpin:      2.0,
		JitterPct:    0.1,
		MaxOffsetSec: 100.0,
	}
}

// New creates a ball at the given drop position.
func (f *Factory) New(pos mgl64.Vec3) Ball {
	return Ball{
		Pos:    pos,
		Radius: f.jitter(f.BaseRadius),
		Mass:   f.jitter(f.BaseMass),
		Spin: mgl64.Vec3{
			f.symmetric(f.MaxSpin),
			f.symmetric(f.MaxSpin),
			f.symmetric(f.MaxSpin),
		},
		OffsetSec: f.rng.Float64() * f.MaxOffsetSec,
	}
}

func (f *Factory) jitter(base float64) float64 {
	return base * (1 + f.JitterPct*f.symmetric(1))
}

func (f *Factory) symmetric(scale float64) float64 {
	return scale * (f.rng.Float64()*2 - 1)
}
