package noise

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSampleDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for x := -5.0; x <= 5.0; x += 0.7 {
		for z := -5.0; z <= 5.0; z += 0.7 {
			va := a.Sample(x, 1.3, z)
			vb := b.Sample(x, 1.3, z)
			if va != vb {
				t.Fatalf("same seed diverged at (%.1f, %.1f): %v vs %v", x, z, va, vb)
			}
		}
	}
}

func TestSampleSeedMatters(t *testing.T) {
	a := New(1)
	b := New(2)

	same := true
	for x := 0.0; x < 10; x += 0.9 {
		if a.Sample(x, 0, 0) != b.Sample(x, 0, 0) {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical fields")
	}
}

func TestSampleRange(t *testing.T) {
	f := New(7)
	for i := 0; i < 2000; i++ {
		x := float64(i) * 0.37
		v := f.Sample(x, x*0.5, -x)
		if v < -1 || v > 1 {
			t.Fatalf("sample out of range at %d: %v", i, v)
		}
		if math.IsNaN(v) {
			t.Fatalf("NaN sample at %d", i)
		}
	}
}

func TestSampleContinuity(t *testing.T) {
	f := New(99)
	const h = 1e-4
	for x := -3.0; x < 3.0; x += 0.11 {
		v0 := f.Sample(x, 0.5, 0.5)
		v1 := f.Sample(x+h, 0.5, 0.5)
		if math.Abs(v1-v0) > 0.01 {
			t.Fatalf("discontinuity at x=%.2f: %v vs %v", x, v0, v1)
		}
	}
}

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{0.5, 0.5},
	}

	for _, tt := range tests {
		if got := smoothstep(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("smoothstep(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFBM(t *testing.T) {
	f := New(5)

	one := f.FBM(1.2, 3.4, 5.6, 1)
	if one != f.Sample(1.2, 3.4, 5.6) {
		t.Error("single-octave FBM should equal Sample")
	}

	for i := 0; i < 500; i++ {
		x := float64(i) * 0.13
		v := f.FBM(x, x, x, 4)
		if v < -1 || v > 1 {
			t.Fatalf("FBM out of range: %v", v)
		}
	}
}

func TestGustAt(t *testing.T) {
	f := New(11)
	pos := mgl64.Vec3{1, 2, 3}

	g1 := f.GustAt(0.5, pos)
	g2 := f.GustAt(0.5, pos)
	if g1 != g2 {
		t.Error("gust sampling should be pure")
	}

	for i := 0; i < 3; i++ {
		if g1[i] < -1 || g1[i] > 1 {
			t.Errorf("gust component %d out of range: %v", i, g1[i])
		}
	}

	g3 := f.GustAt(5.0, pos)
	if g1 == g3 {
		t.Error("gust should vary over time")
	}
}

func TestSineTableAccuracy(t *testing.T) {
	tbl := NewSineTable(1024)

	for x := -10.0; x <= 10.0; x += 0.0137 {
		if err := math.Abs(tbl.Sin(x) - math.Sin(x)); err > 1e-4 {
			t.Fatalf("Sin(%v) error %v", x, err)
		}
		if err := math.Abs(tbl.Cos(x) - math.Cos(x)); err > 1e-4 {
			t.Fatalf("Cos(%v) error %v", x, err)
		}
	}
}

func TestFastSin(t *testing.T) {
	if err := math.Abs(FastSin(1.0) - math.Sin(1.0)); err > 1e-4 {
		t.Errorf("FastSin error %v", err)
	}
	if err := math.Abs(FastCos(2.5) - math.Cos(2.5)); err > 1e-4 {
		t.Errorf("FastCos error %v", err)
	}
}

func BenchmarkSample(b *testing.B) {
	f := New(42)
	for i := 0; i < b.N; i++ {
		f.Sample(float64(i)*0.01, 1.0, 2.0)
	}
}

func BenchmarkGustAt(b *testing.B) {
	f := New(42)
	pos := mgl64.Vec3{1, 2, 3}
	for i := 0; i < b.N; i++ {
		f.GustAt(float64(i)*0.016, pos)
	}
}

func BenchmarkFastSin(b *testing.B) {
	for i := 0; i < b.N; i++ {
		FastSin(float64(i) * 0.01)
	}
}
