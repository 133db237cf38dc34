package noise

import "math"

// SineTable provides precomputed sin/cos values for fast lookup.
// Uses linear interpolation for values between table entries. Gust phase
// evaluation calls this once per ball per frame, where table accuracy
// (~1e-6 at 1024 entries) is far below the noise amplitude anyway.
type SineTable struct {
	sin []float64
	cos []float64
	n   int
}

// Global default table (1024 entries = ~0.006 rad resolution).
var defaultTable = NewSineTable(1024)

// NewSineTable creates a precomputed trig lookup table.
func NewSineTable(n int) *SineTable {
	t := &SineTable{
		sin: make([]float64, n),
		cos: make([]float64, n),
		n:   n,
	}

	for i := 0; i < n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		t.sin[i] = math.Sin(angle)
		t.cos[i] = math.Cos(angle)
	}

	return t
}

func (t *SineTable) index(x float64) (i0, i1 int, frac float64) {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}

	idx := x * float64(t.n) / (2 * math.Pi)
	i := int(idx)
	frac = idx - float64(i)

	return i % t.n, (i + 1) % t.n, frac
}

// Sin returns approximate sin using table lookup with interpolation.
func (t *SineTable) Sin(x float64) float64 {
	i0, i1, frac := t.index(x)
	return t.sin[i0]*(1-frac) + t.sin[i1]*frac
}

// Cos returns approximate cos using table lookup with interpolation.
func (t *SineTable) Cos(x float64) float64 {
	i0, i1, frac := t.index(x)
	return t.cos[i0]*(1-frac) + t.cos[i1]*frac
}

// FastSin uses the default table for quick sin lookup.
func FastSin(x float64) float64 {
	return defaultTable.Sin(x)
}

// FastCos uses the default table for quick cos lookup.
func FastCos(x float64) float64 {
	return defaultTable.Cos(x)
}
