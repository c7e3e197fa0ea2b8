package shape

import "math"

const (
	arrowHeadMin   = 10.0
	arrowHeadAngle = math.Pi / 6
)

// Closed reports whether the outline forms a polygon that can be filled.
func (s *Shape) Closed() bool {
	return s.Kind.SupportsFill()
}

// Outline returns the vertices the renderers stroke (and fill, for closed
// shapes). Ellipses are approximated by a polygon fine enough for export.
func (s *Shape) Outline() []Point {
	switch s.Kind {
	case KindRect, KindText:
		return []Point{
			{s.X, s.Y},
			{s.X + s.Width, s.Y},
			{s.X + s.Width, s.Y + s.Height},
			{s.X, s.Y + s.Height},
		}
	case KindDiamond:
		cx, cy := s.X+s.Width/2, s.Y+s.Height/2
		return []Point{
			{cx, s.Y},
			{s.X + s.Width, cy},
			{cx, s.Y + s.Height},
			{s.X, cy},
		}
	case KindEllipse:
		return EllipsePoints(s.CenterX, s.CenterY, s.RadiusX, s.RadiusY, ellipseSteps(s.RadiusX, s.RadiusY))
	case KindLine, KindArrow:
		return []Point{{s.StartX, s.StartY}, {s.EndX, s.EndY}}
	case KindFreehand:
		out := make([]Point, len(s.Points))
		copy(out, s.Points)
		return out
	}
	return nil
}

// ArrowHead returns the two wing tips of an arrow's head; the tip itself is
// the end point. Non-arrows return nil.
func (s *Shape) ArrowHead() []Point {
	if s.Kind != KindArrow {
		return nil
	}
	dx, dy := s.EndX-s.StartX, s.EndY-s.StartY
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	head := math.Max(arrowHeadMin, 3*s.StrokeWidth)
	head = math.Min(head, length/2)
	angle := math.Atan2(dy, dx)
	return []Point{
		{s.EndX - head*math.Cos(angle-arrowHeadAngle), s.EndY - head*math.Sin(angle-arrowHeadAngle)},
		{s.EndX - head*math.Cos(angle+arrowHeadAngle), s.EndY - head*math.Sin(angle+arrowHeadAngle)},
	}
}

// EllipsePoints samples n points around an ellipse, starting at angle 0.
func EllipsePoints(cx, cy, rx, ry float64, n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{cx + rx*math.Cos(a), cy + ry*math.Sin(a)}
	}
	return pts
}

func ellipseSteps(rx, ry float64) int {
	n := int(math.Ceil((rx + ry) / 4))
	if n < 16 {
		return 16
	}
	if n > 96 {
		return 96
	}
	return n
}
