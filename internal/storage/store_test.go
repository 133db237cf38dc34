package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tubone24/monte-carlo-3d-app/internal/experiment"
)

func sampleResult() *experiment.Result {
	return &experiment.Result{
		Name:    "scene",
		TimesMs: []int64{250, 500},
		Series: map[string][]float64{
			"pi":    {0, 3.2},
			"total": {0, 12},
		},
		Steps: 31,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(42, 100, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Experiment != "scene" {
		t.Errorf("experiment = %q, want scene", meta.Experiment)
	}
	if meta.Seed != 42 {
		t.Errorf("seed = %d, want 42", meta.Seed)
	}
	if meta.MassRatio != 100 {
		t.Errorf("mass ratio = %v, want 100", meta.MassRatio)
	}
	if meta.Steps != 31 {
		t.Errorf("steps = %d, want 31", meta.Steps)
	}
	if meta.Final["pi"] != 3.2 {
		t.Errorf("final pi = %v, want 3.2", meta.Final["pi"])
	}
}

func TestStoreLoadSamples(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(1, 1, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	times, series, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(times) != 2 || times[0] != 250 || times[1] != 500 {
		t.Errorf("times = %v, want [250 500]", times)
	}
	if got := series["pi"]; len(got) != 2 || got[1] != 3.2 {
		t.Errorf("pi series = %v, want [0 3.2]", got)
	}
	if got := series["total"]; len(got) != 2 || got[1] != 12 {
		t.Errorf("total series = %v, want [0 12]", got)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(1, 1, sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := st.Save(2, 1, sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreListSkipsBrokenRuns(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := st.Save(1, 1, sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// A run directory with garbage metadata must not break listing.
	broken := filepath.Join(dir, "scene_0")
	if err := os.MkdirAll(broken, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, "metadata.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(1, 1, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(dir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "samples.csv")); os.IsNotExist(err) {
		t.Error("samples.csv not created")
	}
}
