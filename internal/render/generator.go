package render

import (
	"math"
	"sort"

	"SketchBoard/internal/shape"
)

const (
	maxRandomnessOffset = 2.0
	bowing              = 1.0

	hachureAngle = -41.0
)

// generator turns outlines into hand-drawn paths. With roughness 0 the
// output is the clean geometry.
type generator struct {
	rnd       *random
	roughness float64
}

func newGenerator(s *shape.Shape) *generator {
	return &generator{
		rnd:       newRandom(SeedFromID(s.ID)),
		roughness: s.RoughStyle.Roughness(),
	}
}

func (g *generator) offset(x, gain float64) float64 {
	if g.roughness == 0 {
		return 0
	}
	return g.roughness * gain * (g.rnd.next()*2*x - x)
}

func (g *generator) jitter(p shape.Point, x, gain float64) shape.Point {
	return shape.Point{X: p.X + g.offset(x, gain), Y: p.Y + g.offset(x, gain)}
}

// line appends one bowed cubic from a to b.
func (g *generator) line(d *Drawable, a, b shape.Point, move, overlay bool) {
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	gain := 1.0
	switch {
	case length > 500:
		gain = 0.4
	case length >= 200:
		gain = -0.0016668*length + 1.233334
	}

	off := maxRandomnessOffset
	if off*off*100 > length*length {
		off = length / 10
	}
	if overlay {
		off /= 2
	}

	diverge := 0.2 + g.rnd.next()*0.2
	midX := g.offset(bowing*maxRandomnessOffset*(b.Y-a.Y)/200, gain)
	midY := g.offset(bowing*maxRandomnessOffset*(a.X-b.X)/200, gain)

	if move {
		d.moveTo(g.jitter(a, off, gain))
	}
	d.cubicTo(
		shape.Point{
			X: midX + a.X + (b.X-a.X)*diverge + g.offset(off, gain),
			Y: midY + a.Y + (b.Y-a.Y)*diverge + g.offset(off, gain),
		},
		shape.Point{
			X: midX + a.X + 2*(b.X-a.X)*diverge + g.offset(off, gain),
			Y: midY + a.Y + 2*(b.Y-a.Y)*diverge + g.offset(off, gain),
		},
		g.jitter(b, off, gain),
	)
}

// doubleLine draws the segment twice when rough, giving the sketchy look.
func (g *generator) doubleLine(d *Drawable, a, b shape.Point) {
	g.line(d, a, b, true, false)
	if g.roughness > 0 {
		g.line(d, a, b, true, true)
	}
}

func (g *generator) polyline(d *Drawable, pts []shape.Point, closed bool) {
	for i := 1; i < len(pts); i++ {
		g.doubleLine(d, pts[i-1], pts[i])
	}
	if closed && len(pts) > 2 {
		g.doubleLine(d, pts[len(pts)-1], pts[0])
	}
}

// curve appends a Catmull-Rom spline through pts as cubic segments.
func curve(d *Drawable, pts []shape.Point, closed bool) {
	n := len(pts)
	if n < 2 {
		return
	}
	at := func(i int) shape.Point {
		if closed {
			return pts[((i%n)+n)%n]
		}
		if i < 0 {
			return pts[0]
		}
		if i >= n {
			return pts[n-1]
		}
		return pts[i]
	}

	d.moveTo(pts[0])
	segments := n - 1
	if closed {
		segments = n
	}
	for i := 0; i < segments; i++ {
		p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
		d.cubicTo(
			shape.Point{X: p1.X + (p2.X-p0.X)/6, Y: p1.Y + (p2.Y-p0.Y)/6},
			shape.Point{X: p2.X - (p3.X-p1.X)/6, Y: p2.Y - (p3.Y-p1.Y)/6},
			p2,
		)
	}
	if closed {
		d.close()
	}
}

func (g *generator) ellipse(d *Drawable, s *shape.Shape) {
	pts := shape.EllipsePoints(s.CenterX, s.CenterY, s.RadiusX, s.RadiusY, 24)
	passes := 1
	if g.roughness > 0 {
		passes = 2
	}
	amp := math.Min(s.RadiusX, s.RadiusY)*0.05 + 1
	for pass := 0; pass < passes; pass++ {
		jittered := make([]shape.Point, len(pts))
		for i, p := range pts {
			jittered[i] = g.jitter(p, amp, 1)
		}
		curve(d, jittered, true)
	}
}

// strokeDrawable builds the outline path for every kind except text.
func strokeDrawable(s *shape.Shape) *Drawable {
	g := newGenerator(s)
	d := &Drawable{}

	switch s.Kind {
	case shape.KindRect, shape.KindDiamond:
		g.polyline(d, s.Outline(), true)
	case shape.KindEllipse:
		g.ellipse(d, s)
	case shape.KindLine:
		g.doubleLine(d, shape.Point{X: s.StartX, Y: s.StartY}, shape.Point{X: s.EndX, Y: s.EndY})
	case shape.KindArrow:
		end := shape.Point{X: s.EndX, Y: s.EndY}
		g.doubleLine(d, shape.Point{X: s.StartX, Y: s.StartY}, end)
		for _, w := range s.ArrowHead() {
			g.doubleLine(d, end, w)
		}
	case shape.KindFreehand:
		pts := make([]shape.Point, len(s.Points))
		for i, p := range s.Points {
			pts[i] = g.jitter(p, 0.5, 1)
		}
		curve(d, pts, false)
	}
	return d
}

// fillDrawable builds the interior of a fill-capable shape.
func fillDrawable(s *shape.Shape) *Drawable {
	g := newGenerator(s)
	outline := s.Outline()
	gap := math.Max(4*s.StrokeWidth, 8)

	switch s.FillStyle {
	case shape.FillHachure:
		d := &Drawable{}
		for _, seg := range hachureSegments(outline, hachureAngle, gap) {
			g.line(d, seg[0], seg[1], true, false)
		}
		return d

	case shape.FillZigzag:
		d := &Drawable{}
		segs := hachureSegments(outline, hachureAngle, gap)
		var pts []shape.Point
		for i, seg := range segs {
			if i%2 == 1 {
				seg[0], seg[1] = seg[1], seg[0]
			}
			pts = append(pts, seg[0], seg[1])
		}
		for i := 1; i < len(pts); i++ {
			g.line(d, pts[i-1], pts[i], i == 1, false)
		}
		return d
	}

	d := &Drawable{Filled: true}
	if s.Kind == shape.KindEllipse {
		g.ellipse(d, s)
		return d
	}
	for i, p := range outline {
		p = g.jitter(p, maxRandomnessOffset, 1)
		if i == 0 {
			d.moveTo(p)
		} else {
			d.lineTo(p)
		}
	}
	d.close()
	return d
}

// hachureSegments clips parallel lines at angleDeg, spaced gap apart,
// against the polygon and returns the inside pieces.
func hachureSegments(poly []shape.Point, angleDeg, gap float64) [][2]shape.Point {
	if len(poly) < 3 || gap <= 0 {
		return nil
	}
	c := shape.PointsBounds(poly).Center()
	rad := angleDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	rotate := func(p shape.Point, s float64) shape.Point {
		dx, dy := p.X-c.X, p.Y-c.Y
		return shape.Point{X: c.X + dx*cos - dy*s, Y: c.Y + dx*s + dy*cos}
	}

	rotated := make([]shape.Point, len(poly))
	for i, p := range poly {
		rotated[i] = rotate(p, -sin)
	}
	b := shape.PointsBounds(rotated)

	var out [][2]shape.Point
	for y := b.MinY + gap/2; y < b.MaxY; y += gap {
		var xs []float64
		for i := range rotated {
			a, e := rotated[i], rotated[(i+1)%len(rotated)]
			if (a.Y <= y && e.Y > y) || (e.Y <= y && a.Y > y) {
				t := (y - a.Y) / (e.Y - a.Y)
				xs = append(xs, a.X+t*(e.X-a.X))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			out = append(out, [2]shape.Point{
				rotate(shape.Point{X: xs[i], Y: y}, sin),
				rotate(shape.Point{X: xs[i+1], Y: y}, sin),
			})
		}
	}
	return out
}
