package shape

import "math"

// Handle indexes the eight resize handles clockwise from the top-left.
type Handle int

const (
	HandleTopLeft Handle = iota
	HandleTopCenter
	HandleTopRight
	HandleRightCenter
	HandleBottomRight
	HandleBottomCenter
	HandleBottomLeft
	HandleLeftCenter

	HandleCount = 8
)

const (
	MinSize       = 10.0
	MinTextWidth  = 40.0
	MinTextHeight = 20.0
	MinRadius     = MinSize / 2

	MinFontSize = 10.0
	MaxFontSize = 120.0
)

func (h Handle) movesLeft() bool {
	return h == HandleTopLeft || h == HandleBottomLeft || h == HandleLeftCenter
}

func (h Handle) movesRight() bool {
	return h == HandleTopRight || h == HandleRightCenter || h == HandleBottomRight
}

func (h Handle) movesTop() bool {
	return h == HandleTopLeft || h == HandleTopCenter || h == HandleTopRight
}

func (h Handle) movesBottom() bool {
	return h == HandleBottomLeft || h == HandleBottomCenter || h == HandleBottomRight
}

func (h Handle) horizontal() bool { return h.movesLeft() || h.movesRight() }
func (h Handle) vertical() bool   { return h.movesTop() || h.movesBottom() }

// Resize drags the given handle to (px, py), mutating the geometry in place.
func (s *Shape) Resize(h Handle, px, py float64) {
	if h < 0 || h >= HandleCount {
		return
	}
	switch s.Kind {
	case KindRect, KindDiamond:
		s.X, s.Y, s.Width, s.Height = resizeBox(s.X, s.Y, s.Width, s.Height, h, px, py, MinSize, MinSize)

	case KindText:
		oldH := s.Height
		s.X, s.Y, s.Width, s.Height = resizeBox(s.X, s.Y, s.Width, s.Height, h, px, py, MinTextWidth, MinTextHeight)
		if oldH > 0 && s.FontSize > 0 {
			s.FontSize = clamp(s.FontSize*s.Height/oldH, MinFontSize, MaxFontSize)
		}

	case KindEllipse:
		rx := math.Max(math.Abs(px-s.CenterX), MinRadius)
		ry := math.Max(math.Abs(py-s.CenterY), MinRadius)
		switch h {
		case HandleTopCenter, HandleBottomCenter:
			s.RadiusY = ry
		case HandleRightCenter, HandleLeftCenter:
			s.RadiusX = rx
		default:
			s.RadiusX, s.RadiusY = rx, ry
		}

	case KindLine, KindArrow, KindFreehand:
		s.scaleAboutCenter(h, px, py)
	}
}

// resizeBox moves the edges named by the handle. When the result would be
// smaller than the minimum, the dragged edge stops at min distance from the
// anchored edge instead of pushing it.
func resizeBox(x, y, w, h float64, handle Handle, px, py, minW, minH float64) (float64, float64, float64, float64) {
	left, top := x, y
	right, bottom := x+w, y+h

	if handle.movesLeft() {
		left = px
		if right-left < minW {
			left = right - minW
		}
	}
	if handle.movesRight() {
		right = px
		if right-left < minW {
			right = left + minW
		}
	}
	if handle.movesTop() {
		top = py
		if bottom-top < minH {
			top = bottom - minH
		}
	}
	if handle.movesBottom() {
		bottom = py
		if bottom-top < minH {
			bottom = top + minH
		}
	}
	return left, top, right - left, bottom - top
}

// scaleAboutCenter stretches a linear shape's bounding box about its center
// so that the dragged handle follows the pointer; every point is remapped.
func (s *Shape) scaleAboutCenter(h Handle, px, py float64) {
	b := s.Bounds()
	if b.Empty() {
		return
	}
	c := b.Center()
	halfW, halfH := b.Width()/2, b.Height()/2

	sx, sy := 1.0, 1.0
	if h.horizontal() && halfW > 1e-9 {
		sx = math.Max(math.Abs(px-c.X), MinRadius) / halfW
	}
	if h.vertical() && halfH > 1e-9 {
		sy = math.Max(math.Abs(py-c.Y), MinRadius) / halfH
	}

	scale := func(x, y float64) (float64, float64) {
		return c.X + (x-c.X)*sx, c.Y + (y-c.Y)*sy
	}
	switch s.Kind {
	case KindLine, KindArrow:
		s.StartX, s.StartY = scale(s.StartX, s.StartY)
		s.EndX, s.EndY = scale(s.EndX, s.EndY)
	case KindFreehand:
		for i, p := range s.Points {
			s.Points[i].X, s.Points[i].Y = scale(p.X, p.Y)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
