package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tubone24/monte-carlo-3d-app/internal/atmosphere"
	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
)

const (
	DefaultAddr  = ":8089"
	DefaultTheme = "dark"

	// Environment overrides, applied by ApplyEnv.
	EnvSeed = "PILAB_SEED"
	EnvAddr = "PILAB_ADDR"
)

// ErrInvalid is wrapped by Validate with the offending field and value.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Addr  string `yaml:"addr"`
	Theme string `yaml:"theme"`
	Sound bool   `yaml:"sound"`

	Scene      montecarlo.Config     `yaml:"scene"`
	Collision  collision.Config      `yaml:"collision"`
	Atmosphere atmosphere.Conditions `yaml:"atmosphere"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:       DefaultAddr,
		Theme:      DefaultTheme,
		Scene:      montecarlo.DefaultConfig(),
		Collision:  collision.DefaultConfig(),
		Atmosphere: *atmosphere.Default(),
	}
}

// Load reads a YAML file over DefaultConfig, so omitted fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays environment overrides, reading a .env file first when
// one exists. Unparseable values are logged and skipped.
func (c *Config) ApplyEnv() {
	godotenv.Load()

	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("config: ignoring %s=%q: %v", EnvSeed, v, err)
		} else {
			c.Scene.Seed = seed
		}
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
}

// Validate rejects values the engines cannot run with. The engines also
// normalize zero fields themselves; Validate exists to fail loudly on a
// config file instead of silently papering over it.
func (c *Config) Validate() error {
	positives := []struct {
		name string
		v    float64
	}{
		{"scene.circle_radius", c.Scene.CircleRadius},
		{"scene.drop_height", c.Scene.DropHeight},
		{"collision.mass_ratio", c.Collision.MassRatio},
		{"collision.quiet_ms", c.Collision.QuietMs},
		{"collision.energy_floor_pct", c.Collision.EnergyFloorPct},
		{"collision.speed_floor", c.Collision.SpeedFloor},
	}
	for _, p := range positives {
		if !(finite(p.v) && p.v > 0) {
			return fmt.Errorf("%w: %s = %v", ErrInvalid, p.name, p.v)
		}
	}

	if c.Scene.BatchSize <= 0 || c.Scene.BatchSize > 500 {
		return fmt.Errorf("%w: scene.batch_size = %d", ErrInvalid, c.Scene.BatchSize)
	}
	if c.Scene.SpawnEveryMs <= 0 {
		return fmt.Errorf("%w: scene.spawn_every_ms = %d", ErrInvalid, c.Scene.SpawnEveryMs)
	}
	if c.Scene.MaxBalls <= 0 {
		return fmt.Errorf("%w: scene.max_balls = %d", ErrInvalid, c.Scene.MaxBalls)
	}
	if c.Scene.EvictCount <= 0 || c.Scene.EvictCount > c.Scene.MaxBalls {
		return fmt.Errorf("%w: scene.evict_count = %d", ErrInvalid, c.Scene.EvictCount)
	}
	if c.Collision.MaxSubSteps <= 0 {
		return fmt.Errorf("%w: collision.max_sub_steps = %d", ErrInvalid, c.Collision.MaxSubSteps)
	}

	winds := []struct {
		name string
		v    float64
	}{
		{"atmosphere.wind_x", c.Atmosphere.WindX},
		{"atmosphere.wind_y", c.Atmosphere.WindY},
		{"atmosphere.wind_z", c.Atmosphere.WindZ},
	}
	for _, w := range winds {
		if !finite(w.v) {
			return fmt.Errorf("%w: %s = %v", ErrInvalid, w.name, w.v)
		}
	}
	if !finite(c.Atmosphere.TemperatureC) || c.Atmosphere.TemperatureC <= -273.15 {
		return fmt.Errorf("%w: atmosphere.temperature_c = %v", ErrInvalid, c.Atmosphere.TemperatureC)
	}
	if !finite(c.Atmosphere.PressureHPa) || c.Atmosphere.PressureHPa <= 0 {
		return fmt.Errorf("%w: atmosphere.pressure_hpa = %v", ErrInvalid, c.Atmosphere.PressureHPa)
	}
	if !finite(c.Atmosphere.HumidityPct) || c.Atmosphere.HumidityPct < 0 || c.Atmosphere.HumidityPct > 100 {
		return fmt.Errorf("%w: atmosphere.humidity_pct = %v", ErrInvalid, c.Atmosphere.HumidityPct)
	}
	if !finite(c.Atmosphere.Turbulence) || c.Atmosphere.Turbulence < 0 || c.Atmosphere.Turbulence > 1 {
		return fmt.Errorf("%w: atmosphere.turbulence = %v", ErrInvalid, c.Atmosphere.Turbulence)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
