package metrics

import (
	"math"
	"testing"
)

func TestPiError(t *testing.T) {
	m := NewPiError()

	if m.Value() != 0 {
		t.Error("expected zero before observations")
	}

	m.Observe(math.Pi, 0)
	if math.Abs(m.Value()) > 1e-12 {
		t.Errorf("exact pi should give zero error, got %v", m.Value())
	}

	m.Observe(3.1, 16)
	want := (3.1 - math.Pi) / math.Pi * 100
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("error = %v, want %v", m.Value(), want)
	}
	if m.Value() >= 0 {
		t.Error("3.1 underestimates pi, error should be negative")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(200, 0)
	if m.Value() != 0 {
		t.Errorf("first sample is the baseline, drift = %v", m.Value())
	}

	m.Observe(200, 16)
	m.Observe(198, 32)
	m.Observe(200, 48)

	want := 2.0 / 200.0
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("max drift = %v, want %v", m.Value(), want)
	}

	m.Reset()
	m.Observe(100, 0)
	if m.Value() != 0 {
		t.Error("reset should re-baseline")
	}
}

func TestLandedRate(t *testing.T) {
	m := NewLandedRate()

	if m.Value() != 0 {
		t.Error("expected zero before observations")
	}

	m.Observe(0, 0)
	m.Observe(50, 500)
	m.Observe(100, 1000)

	if math.Abs(m.Value()-100) > 1e-9 {
		t.Errorf("rate = %v, want 100 per second", m.Value())
	}

	m.Reset()
	m.Observe(10, 0)
	if m.Value() != 0 {
		t.Error("single sample has no span")
	}
}
