// Package tune searches collision stop-net thresholds: the most responsive
// quiet window and speed floor that never cut a healthy run short.
package tune

import (
	"context"
	"math"

	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search minimizes objective over the cartesian product of the parameter
// ranges. Points where the objective errors are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	objective func(params map[string]float64) (float64, error),
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective func(map[string]float64) (float64, error),
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := objective(current)
		if err != nil {
			return nil
		}
		if val < *best {
			*best = val
			params := make(map[string]float64, len(current))
			for k, v := range current {
				params[k] = v
			}
			*bestParams = params
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, objective, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}

// Scoring weights: a false stop on a healthy run dominates everything, a
// run that outlives the frame budget is bad, and among safe candidates the
// shorter quiet window and higher speed floor win.
const (
	falseStopPenalty = 1000.0
	budgetPenalty    = 100.0
	quietWeight      = 1e-4
	floorWeight      = 0.05
)

// StopNetObjective scores a stop-net candidate against healthy runs at the
// given mass ratios. Candidate keys: quiet_ms, speed_floor, and optionally
// energy_floor_pct. Each run steps frameMs frames up to maxFrames.
func StopNetObjective(ratios []float64, frameMs float64, maxFrames int) func(map[string]float64) (float64, error) {
	return func(params map[string]float64) (float64, error) {
		score := 0.0
		for _, ratio := range ratios {
			cfg := collision.DefaultConfig()
			cfg.MassRatio = ratio
			if v, ok := params["quiet_ms"]; ok {
				cfg.QuietMs = v
			}
			if v, ok := params["speed_floor"]; ok {
				cfg.SpeedFloor = v
			}
			if v, ok := params["energy_floor_pct"]; ok {
				cfg.EnergyFloorPct = v
			}

			s, err := collision.New(cfg)
			if err != nil {
				return 0, err
			}
			if err := s.Start(); err != nil {
				return 0, err
			}
			for i := 0; i < maxFrames && s.State() == collision.Running; i++ {
				s.Step(frameMs)
			}

			switch s.State() {
			case collision.Complete:
			case collision.Stopped:
				score += falseStopPenalty
			default:
				score += budgetPenalty
			}
		}

		if v, ok := params["quiet_ms"]; ok {
			score += v * quietWeight
		}
		if v, ok := params["speed_floor"]; ok && v > 0 {
			score += floorWeight / v
		}
		return score, nil
	}
}
