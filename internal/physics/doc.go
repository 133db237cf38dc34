// Package physics integrates falling spheres through a simplified
// atmosphere for the Monte Carlo π board.
//
// The per-frame force pipeline, in order:
//
//   - gravity
//   - quadratic drag with a Reynolds-dependent coefficient (drag crisis)
//   - wind and turbulence, sampled per ball from a noise field
//   - buoyancy of the displaced air
//   - simplified Magnus lift from spin
//
// then spin decay, semi-implicit Euler integration, ground contact, and
// a per-tick friction decay of the lateral velocity. A ground hit above
// the landing threshold bounces with damping and a noise-driven lateral
// kick; a hit below it sets [Ball.Landed], which is terminal: landed
// balls are never integrated again.
//
// All randomness enters through [Factory]'s injected RNG and the noise
// field's seed, so identical seeds replay identical trajectories.
package physics
