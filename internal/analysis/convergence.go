// Package analysis provides statistical tools for the π estimators.
//
//   - [FitSlope]: log-log least-squares slope of error versus sample count;
//     Monte Carlo error shrinks as n^-1/2, so a healthy run fits ~-0.5
//   - [MatchedDigits]: how many leading digits of a collision count agree
//     with π
//   - [DigitString]: renders a collision count as a π approximation
package analysis

import (
	"math"
	"strconv"
)

// ExpectedMonteCarloSlope is the theoretical log-log convergence rate of
// a Monte Carlo estimator.
const ExpectedMonteCarloSlope = -0.5

// ConvergencePoint is one (sample count, absolute error) measurement.
type ConvergencePoint struct {
	N     int
	Error float64
}

// SeriesFromEstimates pairs sample counts with π estimates and returns
// absolute-error points. Samples without data (n <= 0) are skipped.
func SeriesFromEstimates(ns []int, estimates []float64) []ConvergencePoint {
	points := make([]ConvergencePoint, 0, len(ns))
	for i := range ns {
		if i >= len(estimates) || ns[i] <= 0 {
			continue
		}
		points = append(points, ConvergencePoint{
			N:     ns[i],
			Error: math.Abs(estimates[i] - math.Pi),
		})
	}
	return points
}

// FitSlope performs least squares on log10(error) against log10(n). Points
// with non-positive n or error carry no information in log space and are
// skipped. ok is false when fewer than two usable points remain.
func FitSlope(points []ConvergencePoint) (slope, intercept float64, ok bool) {
	var xs, ys []float64
	for _, p := range points {
		if p.N <= 0 || p.Error <= 0 {
			continue
		}
		xs = append(xs, math.Log10(float64(p.N)))
		ys = append(ys, math.Log10(p.Error))
	}
	if len(xs) < 2 {
		return 0, 0, false
	}

	n := float64(len(xs))
	var sx, sy, sxy, sxx float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxy += xs[i] * ys[i]
		sxx += xs[i] * xs[i]
	}

	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0, 0, false
	}
	slope = (n*sxy - sx*sy) / denom
	intercept = (sy - slope*sx) / n
	return slope, intercept, true
}

// piDigits are the leading digits of π with the decimal point removed.
const piDigits = "314159265358979323846264338327950288"

// MatchedDigits reports how many leading digits of a collision count
// agree with π. With mass ratio 100^N the count reproduces N+1 digits.
func MatchedDigits(count int) int {
	if count <= 0 {
		return 0
	}
	s := strconv.Itoa(count)
	n := 0
	for i := 0; i < len(s) && i < len(piDigits); i++ {
		if s[i] != piDigits[i] {
			break
		}
		n++
	}
	return n
}

// DigitString renders a collision count as a π approximation: "3141"
// becomes "3.141".
func DigitString(count int) string {
	s := strconv.Itoa(count)
	if len(s) <= 1 {
		return s
	}
	return s[:1] + "." + s[1:]
}
