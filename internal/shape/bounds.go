package shape

import "math"

// Rect is an axis-aligned box in canvas space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of the box.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Empty reports whether the box has no extent at all.
func (r Rect) Empty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

// HandlePoint returns where handle h sits on the box.
func (r Rect) HandlePoint(h Handle) Point {
	c := r.Center()
	x, y := c.X, c.Y
	if h.movesLeft() {
		x = r.MinX
	} else if h.movesRight() {
		x = r.MaxX
	}
	if h.movesTop() {
		y = r.MinY
	} else if h.movesBottom() {
		y = r.MaxY
	}
	return Point{X: x, Y: y}
}

// Pad grows the box by p on every side.
func (r Rect) Pad(p float64) Rect {
	return Rect{MinX: r.MinX - p, MinY: r.MinY - p, MaxX: r.MaxX + p, MaxY: r.MaxY + p}
}

// Contains reports whether (x, y) lies inside or on the edge of the box.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Overlaps reports whether two boxes share any area or edge.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.MaxX < o.MinX || o.MaxX < r.MinX || r.MaxY < o.MinY || o.MaxY < r.MinY)
}

// Union returns the smallest box covering both. An empty receiver yields o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// EmptyRect is the identity for Union.
func EmptyRect() Rect {
	return Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// PointsBounds returns the bounding box of a point list.
func PointsBounds(points []Point) Rect {
	if len(points) == 0 {
		return EmptyRect()
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// SceneBounds covers every shape plus padding around the result.
func SceneBounds(shapes []*Shape, padding float64) Rect {
	b := EmptyRect()
	for _, s := range shapes {
		b = b.Union(s.Bounds())
	}
	if b.Empty() {
		return b
	}
	return b.Pad(padding)
}
