package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera projects world points onto the canvas. World Y is up; points
// are shifted to Target, rotated around the three axes, then perspective
// divided against the viewer sitting at Position.Z().
type Camera struct {
	Position         mgl64.Vec3
	Target           mgl64.Vec3
	RotX, RotY, RotZ float64
	Zoom             float64
	Near             float64
}

// NewCamera starts tilted down at the drop column, so the board square
// reads as a diamond instead of an edge-on line.
func NewCamera() *Camera {
	return &Camera{
		Position: mgl64.Vec3{0, 0, 50},
		Target:   mgl64.Vec3{0, 2.5, 0},
		RotX:     0.55,
		RotY:     0.65,
		Zoom:     0.24,
		Near:     0.1,
	}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.02, c.Zoom/1.2) }

// RotatePoint moves a world point into camera-rotated space.
func (c *Camera) RotatePoint(p mgl64.Vec3) mgl64.Vec3 {
	p = p.Sub(c.Target)
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	return p
}

// Project converts a world point to sub-pixel screen coordinates.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.RotatePoint(p).Mul(c.Zoom)
	dist := c.Position.Z()
	if rot.Z() >= dist-c.Near {
		return 0, 0, 0, false
	}
	scale := dist / (dist - rot.Z())
	minDim := float64(sh)
	if float64(sw) < minDim {
		minDim = float64(sw)
	}
	pScale := minDim / 3.0
	sx := int(rot.X()*scale*pScale) + sw/2
	sy := int(-rot.Y()*scale*pScale) + sh/2
	return sx, sy, rot.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe to the canvas using a simple painter's
// algorithm. Zero-length edges paint as single dots.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Width*2, c.Height*4
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// BoardWireframe builds the landing board: the bounding square on the
// ground plane with the inscribed circle as a polygon.
func BoardWireframe(radius float64, segments int) *Wireframe {
	if segments < 8 {
		segments = 8
	}
	w := NewWireframe()
	r := radius
	corners := []mgl64.Vec3{{-r, 0, -r}, {r, 0, -r}, {r, 0, r}, {-r, 0, r}}
	for i := range corners {
		w.AddEdge(corners[i], corners[(i+1)%len(corners)])
	}
	prev := mgl64.Vec3{r, 0, 0}
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		next := mgl64.Vec3{r * math.Cos(a), 0, r * math.Sin(a)}
		w.AddEdge(prev, next)
		prev = next
	}
	return w
}

// AxesWireframe builds origin axes of the given length.
func AxesWireframe(l float64) *Wireframe {
	w := NewWireframe()
	o := mgl64.Vec3{}
	w.AddEdge(o, mgl64.Vec3{l, 0, 0})
	w.AddEdge(o, mgl64.Vec3{0, l, 0})
	w.AddEdge(o, mgl64.Vec3{0, 0, l})
	return w
}
