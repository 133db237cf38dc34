// Package atmosphere models the live environmental conditions that act on
// falling balls: wind, temperature, pressure, humidity and turbulence.
// Conditions are an explicit record handed to consumers every frame; there
// is no package-level ambient state.
package atmosphere

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tubone24/monte-carlo-3d-app/internal/noise"
)

const (
	// StandardDensity is sea-level air density, the fallback when the
	// conditions are degenerate.
	StandardDensity = 1.225

	// dryAirGasConstant is R_d in J/(kg*K).
	dryAirGasConstant = 287.05

	// gustScale is the gust speed in m/s at turbulence 1.0.
	gustScale = 3.0
)

var ErrParamBounds = errors.New("atmosphere: parameter out of bounds")

// Conditions is the live environment record. Fields are mutated directly
// by the UI and config layer; consumers read them every frame.
type Conditions struct {
	WindX float64 `yaml:"wind_x"`
	WindY float64 `yaml:"wind_y"`
	WindZ float64 `yaml:"wind_z"`

	TemperatureC float64 `yaml:"temperature_c"`
	PressureHPa  float64 `yaml:"pressure_hpa"`
	HumidityPct  float64 `yaml:"humidity_pct"`

	// Turbulence in [0, 1] scales gust amplitude.
	Turbulence float64 `yaml:"turbulence"`
}

// Default returns calm sea-level conditions.
func Default() *Conditions {
	return &Conditions{
		TemperatureC: 15.0,
		PressureHPa:  1013.25,
		HumidityPct:  50.0,
		Turbulence:   0.2,
	}
}

// AirDensity computes humid-air density from the ideal gas law. Saturation
// vapor pressure follows Tetens' formula; the vapor partial pressure lowers
// density through the 0.378 correction factor. Degenerate inputs fall back
// to StandardDensity with a logged warning.
func (c *Conditions) AirDensity() float64 {
	tK := c.TemperatureC + 273.15
	if !finite(tK) || tK <= 0 || !finite(c.PressureHPa) || c.PressureHPa <= 0 {
		log.Printf("atmosphere: degenerate conditions (T=%.2fC P=%.2fhPa), using standard density", c.TemperatureC, c.PressureHPa)
		return StandardDensity
	}

	es := 6.1078 * math.Pow(10, 7.5*c.TemperatureC/(c.TemperatureC+237.3))
	h := clamp(c.HumidityPct, 0, 100)
	e := es * h / 100.0

	rho := 100.0 * (c.PressureHPa - 0.378*e) / (dryAirGasConstant * tK)
	if !finite(rho) || rho <= 0 {
		log.Printf("atmosphere: non-physical density %.4f, using standard density", rho)
		return StandardDensity
	}
	return rho
}

// Wind returns the base wind vector without turbulence.
func (c *Conditions) Wind() mgl64.Vec3 {
	return mgl64.Vec3{c.WindX, c.WindY, c.WindZ}
}

// SetWind sets the horizontal wind from a speed in m/s and a ground-plane
// direction in degrees, measured from +x toward +z. Degrees are only the
// input convention; the record keeps cartesian components.
func (c *Conditions) SetWind(speed, directionDeg float64) {
	rad := directionDeg * math.Pi / 180.0
	c.WindX = speed * math.Cos(rad)
	c.WindZ = speed * math.Sin(rad)
}

// WindAt returns the wind at a position and time: base wind plus a gust
// sampled from the noise field, scaled by Turbulence. A nil field or zero
// turbulence yields the base wind.
func (c *Conditions) WindAt(tSec float64, pos mgl64.Vec3, field *noise.Field) mgl64.Vec3 {
	base := c.Wind()
	if field == nil || c.Turbulence <= 0 {
		return base
	}
	gust := field.GustAt(tSec, pos).Mul(c.Turbulence * gustScale)
	return base.Add(gust)
}

// GetParams exposes the record for interactive tuning.
func (c *Conditions) GetParams() map[string]float64 {
	return map[string]float64{
		"windX":       c.WindX,
		"windY":       c.WindY,
		"windZ":       c.WindZ,
		"temperature": c.TemperatureC,
		"pressure":    c.PressureHPa,
		"humidity":    c.HumidityPct,
		"turbulence":  c.Turbulence,
	}
}

// SetParam updates one parameter by name, enforcing physical bounds.
// windSpeed and windDir are polar views of the same horizontal wind the
// windX/windZ components expose.
func (c *Conditions) SetParam(name string, value float64) error {
	if !finite(value) {
		return fmt.Errorf("%w: %s=%v", ErrParamBounds, name, value)
	}

	switch name {
	case "windX":
		c.WindX = value
	case "windY":
		c.WindY = value
	case "windZ":
		c.WindZ = value
	case "windSpeed":
		// Rescale the horizontal wind, keeping its heading.
		dir := math.Atan2(c.WindZ, c.WindX)
		c.WindX = value * math.Cos(dir)
		c.WindZ = value * math.Sin(dir)
	case "windDir":
		// Rotate the horizontal wind to a heading in degrees, keeping
		// its speed.
		c.SetWind(math.Hypot(c.WindX, c.WindZ), value)
	case "temperature":
		if value <= -273.15 {
			return fmt.Errorf("%w: temperature %.2fC", ErrParamBounds, value)
		}
		c.TemperatureC = value
	case "pressure":
		if value <= 0 {
			return fmt.Errorf("%w: pressure %.2fhPa", ErrParamBounds, value)
		}
		c.PressureHPa = value
	case "humidity":
		c.HumidityPct = clamp(value, 0, 100)
	case "turbulence":
		c.Turbulence = clamp(value, 0, 1)
	default:
		return fmt.Errorf("atmosphere: unknown param: %s", name)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
