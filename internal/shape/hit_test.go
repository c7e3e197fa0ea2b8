package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHitCenterAndFarAway(t *testing.T) {
	for _, s := range sampleShapes() {
		t.Run(string(s.Kind), func(t *testing.T) {
			var c Point
			switch s.Kind {
			case KindLine, KindArrow:
				c = Point{(s.StartX + s.EndX) / 2, (s.StartY + s.EndY) / 2}
			case KindFreehand:
				c = s.Points[1]
			default:
				c = s.Bounds().Center()
			}
			assert.True(t, s.HitTest(c.X, c.Y, DefaultHitBuffer))
			assert.False(t, s.HitTest(5000, -5000, DefaultHitBuffer))
		})
	}
}

func TestRectHitIncludesBuffer(t *testing.T) {
	s := &Shape{ID: "r", Kind: KindRect, X: 0, Y: 0, Width: 100, Height: 50}
	assert.True(t, s.HitTest(110, 25, 10), "edge of buffer is inclusive")
	assert.False(t, s.HitTest(110.5, 25, 10))
	assert.True(t, s.HitTest(-10, -10, 10))
}

func TestDiamondCornersMiss(t *testing.T) {
	s := &Shape{ID: "d", Kind: KindDiamond, X: 0, Y: 0, Width: 100, Height: 100}
	assert.True(t, s.HitTest(50, 50, 0))
	assert.True(t, s.HitTest(50, 0, 0), "top vertex")
	assert.False(t, s.HitTest(2, 2, 0), "bounding box corner is outside the diamond")
}

func TestEllipseHit(t *testing.T) {
	s := &Shape{ID: "e", Kind: KindEllipse, CenterX: 0, CenterY: 0, RadiusX: 50, RadiusY: 20}
	assert.True(t, s.HitTest(59, 0, 10))
	assert.False(t, s.HitTest(61, 0, 10))
	assert.False(t, s.HitTest(45, 18, 0), "inside bbox but outside the curve")
}

func TestLinearHitUsesBuffer(t *testing.T) {
	s := &Shape{ID: "l", Kind: KindLine, StartX: 0, StartY: 0, EndX: 100, EndY: 0}
	assert.True(t, s.HitTest(50, 9, 10))
	assert.False(t, s.HitTest(50, 10, 10), "distance must be strictly below the buffer")
	assert.False(t, s.HitTest(50, 9, 5), "a zoomed-in viewport shrinks the tolerance")
	assert.True(t, s.HitTest(105, 0, 10), "past the endpoint within tolerance")
}

func TestArrowHeadHit(t *testing.T) {
	s := &Shape{ID: "a", Kind: KindArrow, StartX: 0, StartY: 0, EndX: 100, EndY: 0, StrokeWidth: 2}
	wings := s.ArrowHead()
	assert.Len(t, wings, 2)
	assert.True(t, s.HitTest(wings[0].X, wings[0].Y, 1))
}

func TestFreehandNeedsTwoPoints(t *testing.T) {
	s := &Shape{ID: "p", Kind: KindFreehand, Points: []Point{{10, 10}}}
	assert.False(t, s.HitTest(10, 10, 10))
}
