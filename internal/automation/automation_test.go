package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/experiment"
)

const lessonYAML = `name: opening demo
description: calm board, then a windy one
steps:
  - experiment: scene
    seed: 42
    duration_s: 2
  - experiment: scene
    preset: classroom
    duration_s: 2
    params:
      windX: 4.0
      turbulence: 0.6
`

func writeLesson(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lesson.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLesson(t *testing.T) {
	lesson, err := LoadLesson(writeLesson(t, lessonYAML))
	if err != nil {
		t.Fatalf("LoadLesson: %v", err)
	}
	if lesson.Name != "opening demo" {
		t.Errorf("Name = %q", lesson.Name)
	}
	if len(lesson.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(lesson.Steps))
	}
	if lesson.Steps[0].Seed != 42 {
		t.Errorf("step 0 seed = %d", lesson.Steps[0].Seed)
	}
	if lesson.Steps[1].Params["windX"] != 4.0 {
		t.Errorf("step 1 windX = %v", lesson.Steps[1].Params["windX"])
	}
}

func TestLoadLessonRejectsEmpty(t *testing.T) {
	if _, err := LoadLesson(writeLesson(t, "name: empty\n")); err == nil {
		t.Fatal("expected error for lesson without steps")
	}
}

func TestStepLabOverrides(t *testing.T) {
	step := Step{
		Experiment: "scene",
		Preset:     "classroom",
		Seed:       99,
		MassRatio:  10000,
		Params:     map[string]float64{"turbulence": 0.75},
	}

	cfg, err := step.lab()
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	if cfg.Scene.Seed != 99 {
		t.Errorf("seed = %d", cfg.Scene.Seed)
	}
	if cfg.Collision.MassRatio != 10000 {
		t.Errorf("mass ratio = %g", cfg.Collision.MassRatio)
	}
	if cfg.Atmosphere.Turbulence != 0.75 {
		t.Errorf("turbulence = %g", cfg.Atmosphere.Turbulence)
	}
}

func TestStepLabUnknownPreset(t *testing.T) {
	if _, err := (Step{Preset: "nope"}).lab(); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestStepLabBadParam(t *testing.T) {
	step := Step{Params: map[string]float64{"gravity": 1}}
	if _, err := step.lab(); err == nil {
		t.Fatal("expected error for unknown parameter")
	}
}

func TestRunLesson(t *testing.T) {
	lesson, err := LoadLesson(writeLesson(t, lessonYAML))
	if err != nil {
		t.Fatal(err)
	}

	reg := experiment.NewRegistry()
	results, err := RunLesson(context.Background(), lesson, reg, nil)
	if err != nil {
		t.Fatalf("RunLesson: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, sr := range results {
		if sr.Result == nil || sr.Result.Steps == 0 {
			t.Errorf("step %d produced no samples", sr.Step)
		}
		if sr.RunID != "" {
			t.Errorf("step %d saved despite save: false", sr.Step)
		}
	}
}

func TestRunLessonStopsOnBadStep(t *testing.T) {
	lesson := &Lesson{
		Name:  "broken",
		Steps: []Step{{Experiment: "warp-drive", DurationS: 1}},
	}
	if _, err := RunLesson(context.Background(), lesson, experiment.NewRegistry(), nil); err == nil {
		t.Fatal("expected error for unknown experiment")
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &Sweep{Param: "turbulence", Min: 0, Max: 0.8, Steps: 3, DurationS: 2}
	points, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}
	if points[0].Value != 0 || points[2].Value != 0.8 {
		t.Errorf("range endpoints = %g..%g", points[0].Value, points[2].Value)
	}
}

func TestRunSweepRejectsSinglePoint(t *testing.T) {
	sweep := &Sweep{Param: "turbulence", Min: 0, Max: 1, Steps: 1}
	if _, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), config.DefaultConfig()); err == nil {
		t.Fatal("expected error for single-point sweep")
	}
}
