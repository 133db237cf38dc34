package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ball is one falling sphere in the Monte Carlo board. Position and
// velocity are in meters and m/s, spin in rad/s.
type Ball struct {
	Pos  mgl64.Vec3
	Vel  mgl64.Vec3
	Spin mgl64.Vec3

	// Rot is the accumulated tumble in radians, for renderers only; no
	// force term reads it back.
	Rot mgl64.Vec3

	Radius float64
	Mass   float64

	// OffsetSec decorrelates this ball's gust sampling from its
	// neighbors, so a batch does not sway in lockstep.
	OffsetSec float64

	// Landed flips once, when the ball settles on the ground. A landed
	// ball is never integrated again.
	Landed bool
}

// Area returns the reference cross-section used for drag.
func (b *Ball) Area() float64 {
	return math.Pi * b.Radius * b.Radius
}

// Volume returns the displaced volume used for buoyancy.
func (b *Ball) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * b.Radius * b.Radius * b.Radius
}

func (b *Ball) Speed() float64 {
	return b.Vel.Len()
}
