// Package noise provides a seeded, deterministic 3D value-noise field used
// to synthesize turbulent wind gusts. The same seed always reproduces the
// same field, so full simulation runs are replayable bit for bit.
package noise

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Channel offsets decorrelate the three gust axes; they only need to be
// large enough that lattice cells never overlap.
const (
	offsetY = 137.31
	offsetZ = 271.77
)

// Field is a 3D value-noise lattice. Sampling is pure: no state is mutated,
// so a single Field may be shared by every ball in a frame.
type Field struct {
	seed uint64
	freq float64
}

// New creates a field from a seed. Frequency defaults to 0.15 cycles per
// world unit, which reads as gusts a few meters across.
func New(seed int64) *Field {
	return &Field{seed: uint64(seed), freq: 0.15}
}

// NewWithFrequency creates a field with an explicit spatial frequency.
func NewWithFrequency(seed int64, freq float64) *Field {
	f := New(seed)
	if freq > 0 {
		f.freq = freq
	}
	return f
}

// latticeValue hashes an integer lattice point to [-1, 1]. The mix is a
// 64-bit avalanche over the coordinates and the seed.
func (f *Field) latticeValue(xi, yi, zi int64) float64 {
	h := uint64(xi)*0x9E3779B185EBCA87 ^
		uint64(yi)*0xC2B2AE3D27D4EB4F ^
		uint64(zi)*0x165667B19E3779F9 ^
		f.seed
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return float64(h)/float64(math.MaxUint64)*2 - 1
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// smoothstep is the classic cubic fade; it keeps the first derivative
// continuous across cell boundaries.
func smoothstep(t float64) float64 {
	return t * t * (3.0 - 2.0*t)
}

// Sample returns the noise value at a point, in [-1, 1]. Trilinear
// interpolation of the eight cell corners with a smoothstep fade per axis.
func (f *Field) Sample(x, y, z float64) float64 {
	x *= f.freq
	y *= f.freq
	z *= f.freq

	x0 := math.Floor(x)
	y0 := math.Floor(y)
	z0 := math.Floor(z)

	xi := int64(x0)
	yi := int64(y0)
	zi := int64(z0)

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)
	sz := smoothstep(z - z0)

	c000 := f.latticeValue(xi, yi, zi)
	c100 := f.latticeValue(xi+1, yi, zi)
	c010 := f.latticeValue(xi, yi+1, zi)
	c110 := f.latticeValue(xi+1, yi+1, zi)
	c001 := f.latticeValue(xi, yi, zi+1)
	c101 := f.latticeValue(xi+1, yi, zi+1)
	c011 := f.latticeValue(xi, yi+1, zi+1)
	c111 := f.latticeValue(xi+1, yi+1, zi+1)

	x00 := lerp(c000, c100, sx)
	x10 := lerp(c010, c110, sx)
	x01 := lerp(c001, c101, sx)
	x11 := lerp(c011, c111, sx)

	y0v := lerp(x00, x10, sy)
	y1v := lerp(x01, x11, sy)

	return lerp(y0v, y1v, sz)
}

// FBM layers octaves of Sample with lacunarity 2 and gain 0.5, normalized
// back to [-1, 1].
func (f *Field) FBM(x, y, z float64, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}

	sum := 0.0
	amp := 1.0
	norm := 0.0
	freq := 1.0

	for i := 0; i < octaves; i++ {
		sum += amp * f.Sample(x*freq, y*freq, z*freq)
		norm += amp
		amp *= 0.5
		freq *= 2.0
	}

	return sum / norm
}

// GustAt returns a gust vector at a position and time, each component in
// [-1, 1]. Time advects the field along x so gusts drift rather than
// flicker, and a slow table-driven phase wobble breaks up standing patterns.
func (f *Field) GustAt(tSec float64, pos mgl64.Vec3) mgl64.Vec3 {
	wobble := 0.5 * FastSin(tSec*0.7)
	x := pos.X() + tSec*0.8
	y := pos.Y() + wobble
	z := pos.Z()

	return mgl64.Vec3{
		f.Sample(x, y, z),
		f.Sample(x, y+offsetY, z+offsetY),
		f.Sample(x+offsetZ, y, z+offsetZ),
	}
}
