package atmosphere

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tubone24/monte-carlo-3d-app/internal/noise"
)

func TestAirDensityStandard(t *testing.T) {
	c := Default()
	c.HumidityPct = 0

	rho := c.AirDensity()
	if math.Abs(rho-1.225) > 0.001 {
		t.Errorf("dry density at 15C/1013.25hPa = %.4f, want ~1.225", rho)
	}
}

func TestAirDensityHumidityLowers(t *testing.T) {
	dry := Default()
	dry.HumidityPct = 0
	wet := Default()
	wet.HumidityPct = 100

	rhoDry := dry.AirDensity()
	rhoWet := wet.AirDensity()
	if rhoWet >= rhoDry {
		t.Errorf("humid air should be lighter: dry %.4f, wet %.4f", rhoDry, rhoWet)
	}
	if rhoDry-rhoWet > 0.02 {
		t.Errorf("humidity correction too large: dry %.4f, wet %.4f", rhoDry, rhoWet)
	}
}

func TestAirDensityTemperature(t *testing.T) {
	cold := Default()
	cold.TemperatureC = -10
	hot := Default()
	hot.TemperatureC = 40

	if cold.AirDensity() <= hot.AirDensity() {
		t.Error("cold air should be denser than hot air")
	}
}

func TestAirDensityDegenerate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Conditions)
	}{
		{"absolute zero", func(c *Conditions) { c.TemperatureC = -300 }},
		{"NaN temperature", func(c *Conditions) { c.TemperatureC = math.NaN() }},
		{"zero pressure", func(c *Conditions) { c.PressureHPa = 0 }},
		{"negative pressure", func(c *Conditions) { c.PressureHPa = -50 }},
		{"Inf pressure", func(c *Conditions) { c.PressureHPa = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mod(c)
			rho := c.AirDensity()
			if rho != StandardDensity {
				t.Errorf("expected fallback %.3f, got %.4f", StandardDensity, rho)
			}
		})
	}
}

func TestWindAtCalm(t *testing.T) {
	c := Default()
	c.WindX = 2.5
	c.WindZ = -1.0
	c.Turbulence = 0

	field := noise.New(1)
	w := c.WindAt(1.0, mgl64.Vec3{0, 5, 0}, field)
	if w != (mgl64.Vec3{2.5, 0, -1.0}) {
		t.Errorf("zero turbulence should give base wind, got %v", w)
	}

	w = c.WindAt(1.0, mgl64.Vec3{0, 5, 0}, nil)
	if w != (mgl64.Vec3{2.5, 0, -1.0}) {
		t.Errorf("nil field should give base wind, got %v", w)
	}
}

func TestWindAtTurbulent(t *testing.T) {
	c := Default()
	c.Turbulence = 1.0
	field := noise.New(42)

	base := c.Wind()
	w := c.WindAt(0.3, mgl64.Vec3{1, 4, 2}, field)
	if w == base {
		t.Error("turbulence should perturb the wind")
	}

	// Gust amplitude is bounded by the scale factor per axis.
	for i := 0; i < 3; i++ {
		if math.Abs(w[i]-base[i]) > 3.0 {
			t.Errorf("gust component %d too large: %v", i, w[i]-base[i])
		}
	}

	again := c.WindAt(0.3, mgl64.Vec3{1, 4, 2}, field)
	if w != again {
		t.Error("wind sampling should be deterministic")
	}
}

func TestSetParam(t *testing.T) {
	c := Default()

	if err := c.SetParam("windX", 4.2); err != nil {
		t.Fatalf("SetParam windX: %v", err)
	}
	if c.WindX != 4.2 {
		t.Errorf("windX = %v", c.WindX)
	}

	if err := c.SetParam("humidity", 150); err != nil {
		t.Fatalf("SetParam humidity: %v", err)
	}
	if c.HumidityPct != 100 {
		t.Errorf("humidity should clamp to 100, got %v", c.HumidityPct)
	}

	if err := c.SetParam("turbulence", -0.5); err != nil {
		t.Fatalf("SetParam turbulence: %v", err)
	}
	if c.Turbulence != 0 {
		t.Errorf("turbulence should clamp to 0, got %v", c.Turbulence)
	}

	if err := c.SetParam("nope", 1); err == nil {
		t.Error("unknown param should error")
	}
	if err := c.SetParam("pressure", -10); err == nil {
		t.Error("negative pressure should error")
	}
	if err := c.SetParam("windY", math.NaN()); err == nil {
		t.Error("NaN should error")
	}
}

func TestGetParamsRoundTrip(t *testing.T) {
	c := Default()
	params := c.GetParams()

	for name, v := range params {
		if err := c.SetParam(name, v); err != nil {
			t.Errorf("round-trip %s: %v", name, err)
		}
	}
}

func TestSetWind(t *testing.T) {
	tests := []struct {
		name         string
		speed, deg   float64
		wantX, wantZ float64
	}{
		{"east", 10, 0, 10, 0},
		{"south", 10, 90, 0, 10},
		{"west", 5, 180, -5, 0},
		{"north", 5, 270, 0, -5},
		{"full turn", 8, 360, 8, 0},
		{"diagonal", math.Sqrt2, 45, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.WindY = 1.5
			c.SetWind(tt.speed, tt.deg)
			if math.Abs(c.WindX-tt.wantX) > 1e-12 || math.Abs(c.WindZ-tt.wantZ) > 1e-12 {
				t.Errorf("SetWind(%v, %v) = (%v, %v), want (%v, %v)",
					tt.speed, tt.deg, c.WindX, c.WindZ, tt.wantX, tt.wantZ)
			}
			if c.WindY != 1.5 {
				t.Errorf("SetWind touched the vertical component: %v", c.WindY)
			}
		})
	}
}

func TestSetParamWindPolar(t *testing.T) {
	c := Default()
	c.WindX = 3
	c.WindZ = 4

	if err := c.SetParam("windSpeed", 10); err != nil {
		t.Fatalf("SetParam windSpeed: %v", err)
	}
	if math.Abs(c.WindX-6) > 1e-12 || math.Abs(c.WindZ-8) > 1e-12 {
		t.Errorf("rescale moved the heading: (%v, %v), want (6, 8)", c.WindX, c.WindZ)
	}

	if err := c.SetParam("windDir", 90); err != nil {
		t.Fatalf("SetParam windDir: %v", err)
	}
	if math.Abs(c.WindX) > 1e-12 || math.Abs(c.WindZ-10) > 1e-12 {
		t.Errorf("rotation changed the speed: (%v, %v), want (0, 10)", c.WindX, c.WindZ)
	}
}
