// Package export renders run artifacts as standalone SVG documents:
// the landing board seen from above, a raw braille canvas frame, and
// the error convergence curve on log-log axes.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/tubone24/monte-carlo-3d-app/internal/analysis"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
	"github.com/tubone24/monte-carlo-3d-app/internal/physics"
	"github.com/tubone24/monte-carlo-3d-app/internal/viz"
)

const (
	svgBG     = "#0a0a12"
	svgFG     = "#00ccff"
	svgInside = "#00ff88"
	svgOut    = "#ff4455"
	svgGuide  = "#ffcc00"
	svgMuted  = "#666677"
)

// BoardToSVG draws the board from above: bounding square, inscribed
// circle, and every arena ball. Landed balls are colored by their
// spawn-time classification, matching what the estimator counted even
// when wind carried the ball across the line; airborne balls are faint.
func BoardToSVG(scene *montecarlo.Simulation, size float64) string {
	if scene == nil || size <= 0 {
		return ""
	}
	r := scene.CircleRadius()
	pad := size * 0.06
	scale := (size - 2*pad) / (2 * r)
	toX := func(x float64) float64 { return pad + (x+r)*scale }
	toY := func(z float64) float64 { return pad + (z+r)*scale }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, svgBG))

	sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="%s" stroke-width="1.5"/>
`, pad, pad, size-2*pad, size-2*pad, svgFG))
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="1.5"/>
`, size/2, size/2, r*scale, svgFG))

	scene.ForEach(func(id uint64, b *physics.Ball, inside bool) {
		x, z := b.Pos.X(), b.Pos.Z()
		dot := math.Max(b.Radius*scale, 1.5)
		switch {
		case !b.Landed:
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" opacity="0.35"/>
`, toX(x), toY(z), dot, svgMuted))
		case inside:
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, toX(x), toY(z), dot, svgInside))
		default:
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, toX(x), toY(z), dot, svgOut))
		}
	})

	st := scene.Stats()
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="%.0f">n=%d  π̂=%.5f</text>
`, pad, size-pad/3, svgFG, math.Max(size/40, 10), st.TotalBalls, st.PiEstimate))

	sb.WriteString("</svg>")
	return sb.String()
}

// CanvasToSVG converts a braille canvas to SVG, one dot per lit
// sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, svgBG, svgFG))

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ConvergenceToSVG plots |error| against sample count on log-log axes,
// with a dashed n^(-1/2) guide through the first point.
func ConvergenceToSVG(points []analysis.ConvergencePoint, width, height int) string {
	type xy struct{ x, y float64 }
	logs := make([]xy, 0, len(points))
	for _, p := range points {
		if p.N <= 0 || p.Error <= 0 {
			continue
		}
		logs = append(logs, xy{math.Log10(float64(p.N)), math.Log10(p.Error)})
	}
	if len(logs) < 2 {
		return ""
	}

	minX, maxX := logs[0].x, logs[0].x
	minY, maxY := logs[0].y, logs[0].y
	for _, p := range logs {
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	// The guide drops half a decade per decade; widen y so it fits.
	guideEnd := logs[0].y + analysis.ExpectedMonteCarloSlope*(maxX-logs[0].x)
	if guideEnd < minY {
		minY = guideEnd
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	toX := func(v float64) float64 { return (v - minX) / rangeX * float64(width) }
	toY := func(v float64) float64 { return float64(height) - (v-minY)/rangeY*float64(height) }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, svgBG))

	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1" stroke-dasharray="4 3"/>
`, toX(logs[0].x), toY(logs[0].y), toX(maxX-rangeX*0.1), toY(guideEnd), svgGuide))

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, svgFG))
	for i, p := range logs {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", toX(p.x), toY(p.y)))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", toX(p.x), toY(p.y)))
		}
	}
	sb.WriteString("\"/>\n")

	sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="11">|error| vs n, log-log; dashed guide slope %.1f</text>
`, height-8, svgMuted, analysis.ExpectedMonteCarloSlope))

	sb.WriteString("</svg>")
	return sb.String()
}
