// Package automation runs scripted lab sessions. A lesson file names a
// sequence of experiment steps, each with its own preset, overrides and
// duration, so a classroom demo replays the same way every time. It also
// sweeps a single atmosphere parameter across a range to show its effect
// on the estimate.
package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/experiment"
	"github.com/tubone24/monte-carlo-3d-app/internal/storage"
)

// Lesson is a scripted sequence of lab runs.
type Lesson struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run in a lesson. Zero fields keep the preset's values.
type Step struct {
	Experiment string             `yaml:"experiment"`
	Preset     string             `yaml:"preset"`
	Seed       int64              `yaml:"seed"`
	MassRatio  float64            `yaml:"mass_ratio"`
	DurationS  float64            `yaml:"duration_s"`
	Params     map[string]float64 `yaml:"params"`
	Save       bool               `yaml:"save"`
}

// LoadLesson reads a lesson from a YAML file.
func LoadLesson(path string) (*Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lesson Lesson
	if err := yaml.Unmarshal(data, &lesson); err != nil {
		return nil, err
	}
	if len(lesson.Steps) == 0 {
		return nil, fmt.Errorf("lesson %s has no steps", path)
	}
	return &lesson, nil
}

// lab resolves a step to a validated config: preset, then overrides.
func (s Step) lab() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
		cfg = p
	}

	if s.Seed != 0 {
		cfg.Scene.Seed = s.Seed
	}
	if s.MassRatio > 0 {
		cfg.Collision.MassRatio = s.MassRatio
	}
	for name, value := range s.Params {
		if err := cfg.Atmosphere.SetParam(name, value); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StepResult pairs a finished step with its saved run ID, when saved.
type StepResult struct {
	Step       int
	Experiment string
	RunID      string
	Result     *experiment.Result
}

// RunLesson executes every step in order. A nil store disables saving.
func RunLesson(ctx context.Context, lesson *Lesson, reg *experiment.Registry, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(lesson.Steps))

	for i, step := range lesson.Steps {
		fmt.Printf("step %d/%d: %s\n", i+1, len(lesson.Steps), step.Experiment)

		cfg, err := step.lab()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		runCfg := experiment.Config{DurationMs: int64(step.DurationS * 1000)}
		exp, err := reg.Build(step.Experiment, cfg, runCfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		sr := StepResult{Step: i + 1, Experiment: step.Experiment, Result: res}
		if step.Save && st != nil {
			sr.RunID, err = st.Save(cfg.Scene.Seed, cfg.Collision.MassRatio, res)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// Sweep varies one atmosphere parameter across an inclusive range.
type Sweep struct {
	Param     string
	Min, Max  float64
	Steps     int
	DurationS float64
}

// SweepPoint records the estimate the scene reached at one value.
type SweepPoint struct {
	Value    float64
	Pi       float64
	ErrorPct float64
	Landed   float64
}

// RunSweep runs the scene once per parameter value against a common base
// config, so the only thing changing between points is the parameter.
func RunSweep(ctx context.Context, sweep *Sweep, reg *experiment.Registry, base *config.Config) ([]SweepPoint, error) {
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.Steps)
	}

	span := (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
	points := make([]SweepPoint, 0, sweep.Steps)

	for i := 0; i < sweep.Steps; i++ {
		value := sweep.Min + float64(i)*span

		lab := *base
		if err := lab.Atmosphere.SetParam(sweep.Param, value); err != nil {
			return nil, err
		}

		runCfg := experiment.Config{DurationMs: int64(sweep.DurationS * 1000)}
		exp, err := reg.Build("scene", &lab, runCfg)
		if err != nil {
			return nil, err
		}

		res, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		points = append(points, SweepPoint{
			Value:    value,
			Pi:       res.Last("pi"),
			ErrorPct: res.Last("error_pct"),
			Landed:   res.Last("total"),
		})
		fmt.Printf("sweep %d/%d: %s=%.3f π=%.4f\n", i+1, sweep.Steps, sweep.Param, value, res.Last("pi"))
	}

	return points, nil
}
