package physics

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tubone24/monte-carlo-3d-app/internal/atmosphere"
	"github.com/tubone24/monte-carlo-3d-app/internal/noise"
)

const (
	// airViscosity is the dynamic viscosity of air in Pa*s.
	airViscosity = 1.81e-5

	// minSpeed is the floor below which drag is skipped entirely, so the
	// drag direction v/|v| never divides by zero.
	minSpeed = 1e-9
)

// Reynolds computes the Reynolds number for a sphere of diameter d.
func Reynolds(rho, speed, d float64) float64 {
	return rho * speed * d / airViscosity
}

// DragCoefficient returns the sphere drag coefficient for a Reynolds
// number. Subcritical flow sits at 0.47, the drag crisis between 1e5 and
// 3e5 blends linearly down to 0.10, and supercritical flow recovers to 0.18.
func DragCoefficient(re float64) float64 {
	switch {
	case re < 1e5:
		return 0.47
	case re < 3e5:
		t := (re - 1e5) / 2e5
		return 0.47 + t*(0.10-0.47)
	default:
		return 0.18
	}
}

// Integrator advances balls through the per-frame force pipeline: gravity,
// Reynolds-dependent drag, wind with turbulence, buoyancy, Magnus lift,
// spin decay, semi-implicit Euler integration, ground contact, then a
// lateral friction decay.
type Integrator struct {
	Gravity       float64
	BounceDamping float64
	LandThreshold float64 // vertical speed below which a ground hit sticks, m/s
	Friction      float64 // per-tick lateral velocity multiplier while airborne
	BounceScatter float64 // lateral kick bound handed out on bounce, m/s
	SpinDecay     float64 // per-frame spin multiplier
	MagnusCoeff   float64
	WindResponse  float64

	anomalies uint64
}

func NewIntegrator() *Integrator {
	return &Integrator{
		Gravity:       -9.81,
		BounceDamping: 0.45,
		LandThreshold: 0.5,
		Friction:      0.98,
		BounceScatter: 0.5,
		SpinDecay:     0.98,
		MagnusCoeff:   0.005,
		WindResponse:  0.25,
	}
}

// Anomalies counts non-finite force terms dropped so far.
func (in *Integrator) Anomalies() uint64 { return in.anomalies }

// Step advances one ball by dtMs. Landed balls and non-positive steps are
// no-ops. nowMs is the simulation clock; the ball's own offset shifts its
// gust phase.
func (in *Integrator) Step(b *Ball, dtMs float64, env *atmosphere.Conditions, field *noise.Field, nowMs int64) {
	if b.Landed || dtMs <= 0 {
		return
	}
	dt := dtMs / 1000.0
	rho := env.AirDensity()

	accel := mgl64.Vec3{0, in.Gravity, 0}

	speed := b.Vel.Len()
	if speed > minSpeed {
		re := Reynolds(rho, speed, 2*b.Radius)
		fd := 0.5 * rho * DragCoefficient(re) * b.Area() * speed * speed
		decel := fd / b.Mass
		// One frame of drag may at most cancel the velocity it opposes,
		// never reverse it.
		if maxDecel := speed / dt; decel > maxDecel {
			decel = maxDecel
		}
		accel = in.addTerm(accel, b.Vel.Mul(-decel/speed), "drag")
	}

	tSec := float64(nowMs)/1000.0 + b.OffsetSec
	rel := env.WindAt(tSec, b.Pos, field).Sub(b.Vel)
	accel = in.addTerm(accel, rel.Mul(in.WindResponse*rho*b.Area()/b.Mass), "wind")

	// Weight of the displaced air, straight up.
	accel = in.addTerm(accel, mgl64.Vec3{0, -in.Gravity * rho * b.Volume() / b.Mass, 0}, "buoyancy")

	// Simplified Magnus lift from spin.
	accel = in.addTerm(accel, b.Spin.Cross(b.Vel).Mul(in.MagnusCoeff/b.Mass), "magnus")

	b.Spin = b.Spin.Mul(in.SpinDecay)
	b.Vel = b.Vel.Add(accel.Mul(dt))
	b.Pos = b.Pos.Add(b.Vel.Mul(dt))

	// Tumble at the rolling-contact rate. Renderers read Rot; the force
	// terms never do.
	b.Rot = b.Rot.Add(mgl64.Vec3{b.Vel.Z(), b.Vel.Y(), -b.Vel.X()}.Mul(dt / b.Radius))

	in.ground(b, tSec, field)
	if !b.Landed {
		b.Vel[0] *= in.Friction
		b.Vel[2] *= in.Friction
	}
}

// addTerm folds one acceleration term in, dropping non-finite
// contributions so a single bad term cannot poison the ball.
func (in *Integrator) addTerm(accel, term mgl64.Vec3, what string) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.IsNaN(term[i]) || math.IsInf(term[i], 0) {
			log.Printf("physics: dropping non-finite %s acceleration %v", what, term)
			in.anomalies++
			return accel
		}
	}
	return accel.Add(term)
}

// ground resolves contact with the y=0 plane: fast hits bounce with
// damping plus a lateral kick, slow hits land for good. The kick is a
// pure sample of the gust field at the impact point; it draws from no
// shared random stream.
func (in *Integrator) ground(b *Ball, tSec float64, field *noise.Field) {
	if b.Pos.Y()-b.Radius > 0 || b.Vel.Y() >= 0 {
		return
	}
	if -b.Vel.Y() > in.LandThreshold {
		b.Vel[1] = -b.Vel[1] * in.BounceDamping
		b.Vel[0] = 0
		b.Vel[2] = 0
		if field != nil {
			kick := field.GustAt(tSec, b.Pos)
			b.Vel[0] = kick.X() * in.BounceScatter
			b.Vel[2] = kick.Z() * in.BounceScatter
		}
	} else {
		b.Vel = mgl64.Vec3{}
		b.Landed = true
	}
	b.Pos[1] = b.Radius
}
