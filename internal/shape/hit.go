package shape

import "math"

// DefaultHitBuffer is the hit tolerance in screen pixels. Callers divide it
// by the viewport scale before passing it to HitTest.
const DefaultHitBuffer = 10.0

// HitTest reports whether (px, py) touches the shape, with the outline
// inflated by buffer canvas units.
func (s *Shape) HitTest(px, py, buffer float64) bool {
	switch s.Kind {
	case KindRect, KindText:
		return px >= s.X-buffer && px <= s.X+s.Width+buffer &&
			py >= s.Y-buffer && py <= s.Y+s.Height+buffer

	case KindDiamond:
		halfW := s.Width/2 + buffer
		halfH := s.Height/2 + buffer
		if halfW <= 0 || halfH <= 0 {
			return false
		}
		dx := math.Abs(px - (s.X + s.Width/2))
		dy := math.Abs(py - (s.Y + s.Height/2))
		return dx/halfW+dy/halfH <= 1

	case KindEllipse:
		rx := s.RadiusX + buffer
		ry := s.RadiusY + buffer
		dx := px - s.CenterX
		dy := py - s.CenterY
		if math.Abs(dx) > rx || math.Abs(dy) > ry {
			return false
		}
		nx, ny := dx/rx, dy/ry
		return nx*nx+ny*ny <= 1

	case KindLine:
		return distToSegment(px, py, s.StartX, s.StartY, s.EndX, s.EndY) < buffer

	case KindArrow:
		if distToSegment(px, py, s.StartX, s.StartY, s.EndX, s.EndY) < buffer {
			return true
		}
		for _, w := range s.ArrowHead() {
			if distToSegment(px, py, s.EndX, s.EndY, w.X, w.Y) < buffer {
				return true
			}
		}
		return false

	case KindFreehand:
		if len(s.Points) < 2 {
			return false
		}
		for i := 1; i < len(s.Points); i++ {
			a, b := s.Points[i-1], s.Points[i]
			if distToSegment(px, py, a.X, a.Y, b.X, b.Y) < buffer {
				return true
			}
		}
		return false
	}
	return false
}

// distToSegment returns the distance from (px, py) to the segment a-b.
func distToSegment(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}
