package config

import (
	"sort"

	"github.com/tubone24/monte-carlo-3d-app/internal/atmosphere"
	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
)

// collisionRatio is collision.DefaultConfig with the mass ratio replaced.
func collisionRatio(ratio float64) collision.Config {
	c := collision.DefaultConfig()
	c.MassRatio = ratio
	return c
}

// Presets are named scenarios for the lab. Every preset passes Validate.
var Presets = map[string]*Config{
	"classroom": {
		Addr: DefaultAddr, Theme: DefaultTheme,
		Scene: montecarlo.Config{
			CircleRadius: 1.5, DropHeight: 8.0, BatchSize: 20,
			SpawnEveryMs: 500, MaxBalls: 2000, EvictCount: 400, Seed: 1,
		},
		Collision: collisionRatio(100),
		Atmosphere: atmosphere.Conditions{
			TemperatureC: 15.0, PressureHPa: 1013.25, HumidityPct: 50.0, Turbulence: 0.1,
		},
	},
	"hurricane": {
		Addr: DefaultAddr, Theme: DefaultTheme,
		Scene: montecarlo.Config{
			CircleRadius: 1.5, DropHeight: 12.0, BatchSize: 60,
			SpawnEveryMs: 500, MaxBalls: 5000, EvictCount: 1000, Seed: 7,
		},
		Collision: collisionRatio(100),
		Atmosphere: atmosphere.Conditions{
			WindX: 18.0, WindZ: 6.0,
			TemperatureC: 26.0, PressureHPa: 950.0, HumidityPct: 90.0, Turbulence: 0.9,
		},
	},
	"highland": {
		Addr: DefaultAddr, Theme: DefaultTheme,
		Scene: montecarlo.Config{
			CircleRadius: 1.5, DropHeight: 8.0, BatchSize: 40,
			SpawnEveryMs: 500, MaxBalls: 5000, EvictCount: 1000, Seed: 1,
		},
		Collision: collisionRatio(100),
		Atmosphere: atmosphere.Conditions{
			WindX:        3.0,
			TemperatureC: 5.0, PressureHPa: 850.0, HumidityPct: 35.0, Turbulence: 0.3,
		},
	},
	"monsoon": {
		Addr: DefaultAddr, Theme: DefaultTheme,
		Scene: montecarlo.Config{
			CircleRadius: 1.5, DropHeight: 8.0, BatchSize: 40,
			SpawnEveryMs: 500, MaxBalls: 5000, EvictCount: 1000, Seed: 1,
		},
		Collision: collisionRatio(100),
		Atmosphere: atmosphere.Conditions{
			WindX: 8.0, WindZ: -2.0,
			TemperatureC: 30.0, PressureHPa: 1002.0, HumidityPct: 95.0, Turbulence: 0.5,
		},
	},
	"ratio-1e4": {
		Addr: DefaultAddr, Theme: DefaultTheme,
		Scene:     montecarlo.DefaultConfig(),
		Collision: collisionRatio(10000),
		Atmosphere: atmosphere.Conditions{
			TemperatureC: 15.0, PressureHPa: 1013.25, HumidityPct: 50.0, Turbulence: 0.2,
		},
	},
	"ratio-1e6": {
		Addr: DefaultAddr, Theme: DefaultTheme,
		Scene:     montecarlo.DefaultConfig(),
		Collision: collisionRatio(1_000_000),
		Atmosphere: atmosphere.Conditions{
			TemperatureC: 15.0, PressureHPa: 1013.25, HumidityPct: 50.0, Turbulence: 0.2,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil when unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ListPresets returns all preset names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
