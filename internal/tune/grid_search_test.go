package tune

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch(
		[]string{"x", "y"},
		[][]float64{{1, 2, 3, 4}, {-2, -1, 0}},
	)

	objective := func(p map[string]float64) (float64, error) {
		dx := p["x"] - 3
		dy := p["y"] + 1
		return dx*dx + dy*dy, nil
	}

	params, score, err := g.Search(context.Background(), objective)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if params["x"] != 3 || params["y"] != -1 {
		t.Errorf("best params = %v, want x=3 y=-1", params)
	}
	if score != 0 {
		t.Errorf("best score = %v, want 0", score)
	}
}

func TestGridSearchSkipsErroringPoints(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2, 3}})

	objective := func(p map[string]float64) (float64, error) {
		if p["x"] == 2 {
			return 0, errors.New("bad point")
		}
		// x=2 would be the minimum if it were evaluable.
		return (p["x"] - 2) * (p["x"] - 2), nil
	}

	params, score, err := g.Search(context.Background(), objective)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if score != 1 {
		t.Errorf("best score = %v, want 1", score)
	}
	if params["x"] != 1 && params["x"] != 3 {
		t.Errorf("best x = %v, want 1 or 3", params["x"])
	}
}

func TestGridSearchHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	_, _, err := g.Search(ctx, func(map[string]float64) (float64, error) { return 0, nil })
	if err == nil {
		t.Error("expected context error")
	}
}

func TestGridSearchEvaluatesFullProduct(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})

	seen := make(map[string]bool)
	_, _, err := g.Search(context.Background(), func(p map[string]float64) (float64, error) {
		seen[fmt.Sprintf("%v/%v", p["a"], p["b"])] = true
		return 0, nil
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(seen) != 6 {
		t.Errorf("evaluated %d points, want 6", len(seen))
	}
}

func TestStopNetObjectivePenalizesEagerNet(t *testing.T) {
	objective := StopNetObjective([]float64{1}, 16.7, 800)

	// A 300ms window with a 5 m/s floor trips during the approach phase,
	// before the first collision.
	eager, err := objective(map[string]float64{"quiet_ms": 300, "speed_floor": 5})
	if err != nil {
		t.Fatalf("objective: %v", err)
	}
	if eager < falseStopPenalty {
		t.Errorf("eager net score = %v, want >= %v", eager, falseStopPenalty)
	}

	safe, err := objective(map[string]float64{"quiet_ms": 3000, "speed_floor": 0.001})
	if err != nil {
		t.Fatalf("objective: %v", err)
	}
	if safe >= falseStopPenalty {
		t.Errorf("safe net score = %v, want healthy completion", safe)
	}
}

func TestStopNetObjectivePrefersResponsiveNet(t *testing.T) {
	objective := StopNetObjective([]float64{1}, 16.7, 800)

	quick, err := objective(map[string]float64{"quiet_ms": 1500, "speed_floor": 0.01})
	if err != nil {
		t.Fatalf("objective: %v", err)
	}
	slow, err := objective(map[string]float64{"quiet_ms": 3000, "speed_floor": 0.01})
	if err != nil {
		t.Fatalf("objective: %v", err)
	}
	if quick >= slow {
		t.Errorf("quick=%v slow=%v, shorter safe window should score better", quick, slow)
	}
}

func TestStopNetObjectiveRejectsBadRatio(t *testing.T) {
	objective := StopNetObjective([]float64{-1}, 16.7, 100)
	if _, err := objective(map[string]float64{"quiet_ms": 3000}); err == nil {
		t.Error("expected error for invalid ratio")
	}
}
