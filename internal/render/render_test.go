package render

import (
	"math"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SketchBoard/internal/shape"
)

func TestSeedFromID(t *testing.T) {
	assert.Equal(t, int64(42), SeedFromID("no-digits"))
	assert.Equal(t, int64(42), SeedFromID("0000"))
	assert.Equal(t, int64(12345678), SeedFromID("a1b2c3d4e5f6g7h8i9"))
	assert.Equal(t, int64(7), SeedFromID("shape-7"))
}

func TestRandomIsReproducible(t *testing.T) {
	a, b := newRandom(1234), newRandom(1234)
	for i := 0; i < 100; i++ {
		v := a.next()
		assert.Equal(t, v, b.next())
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func rect(id string, rough shape.RoughStyle) *shape.Shape {
	return &shape.Shape{
		ID: id, Kind: shape.KindRect,
		X: 10, Y: 10, Width: 80, Height: 60,
		StrokeColor: "#ffffff", StrokeWidth: 2, RoughStyle: rough,
		FillColor: shape.Transparent, FillStyle: shape.FillSolid,
	}
}

func TestArchitectLineIsStraight(t *testing.T) {
	s := &shape.Shape{ID: "1", Kind: shape.KindLine, StartX: 0, StartY: 0, EndX: 100, EndY: 0, RoughStyle: shape.RoughArchitect}
	d := strokeDrawable(s)
	require.Len(t, d.Ops, 2)
	assert.Equal(t, OpMove, d.Ops[0].Kind)
	assert.Equal(t, shape.Point{X: 0, Y: 0}, d.Ops[0].P)
	c := d.Ops[1]
	assert.Equal(t, OpCubic, c.Kind)
	assert.Equal(t, 0.0, c.C1.Y)
	assert.Equal(t, 0.0, c.C2.Y)
	assert.Equal(t, shape.Point{X: 100, Y: 0}, c.P)
}

func TestRoughStrokeIsDeterministicPerID(t *testing.T) {
	a := strokeDrawable(rect("111", shape.RoughArtist))
	b := strokeDrawable(rect("111", shape.RoughArtist))
	c := strokeDrawable(rect("222", shape.RoughArtist))

	assert.Equal(t, a.Ops, b.Ops)
	assert.NotEqual(t, a.Ops, c.Ops)
	assert.Greater(t, len(a.Ops), len(strokeDrawable(rect("111", shape.RoughArchitect)).Ops),
		"rough strokes are drawn twice")
}

func TestHachureStaysInsideOutline(t *testing.T) {
	poly := []shape.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	segs := hachureSegments(poly, hachureAngle, 8)
	require.NotEmpty(t, segs)

	box := shape.PointsBounds(poly).Pad(1e-6)
	for _, seg := range segs {
		assert.True(t, box.Contains(seg[0].X, seg[0].Y))
		assert.True(t, box.Contains(seg[1].X, seg[1].Y))
		dx, dy := seg[1].X-seg[0].X, seg[1].Y-seg[0].Y
		rad := hachureAngle * math.Pi / 180
		cross := dx*math.Sin(rad) - dy*math.Cos(rad)
		assert.InDelta(t, 0, cross/math.Hypot(dx, dy), 1e-9, "parallel to the hachure angle")
	}
	assert.Nil(t, hachureSegments(poly[:2], hachureAngle, 8))
}

func TestFillDrawableByStyle(t *testing.T) {
	s := rect("5", shape.RoughArchitect)
	s.StrokeWidth = 1

	s.FillStyle = shape.FillSolid
	assert.True(t, fillDrawable(s).Filled)

	s.FillStyle = shape.FillHachure
	h := fillDrawable(s)
	assert.False(t, h.Filled)
	assert.NotEmpty(t, h.Ops)

	s.FillStyle = shape.FillZigzag
	z := fillDrawable(s)
	moves := 0
	for _, op := range z.Ops {
		if op.Kind == OpMove {
			moves++
		}
	}
	assert.Equal(t, 1, moves, "zigzag is one continuous path")
}

func TestCacheRegeneratesOnWatchedChange(t *testing.T) {
	c := NewCache()
	s := rect("9", shape.RoughArtist)

	assert.True(t, c.ShouldRegenerate(s, Watched(s, SlotStroke), StyleTag(s, SlotStroke), SlotStroke))
	first := c.Drawable(s, SlotStroke)
	assert.Same(t, first, c.Drawable(s, SlotStroke))
	assert.Equal(t, 1, c.Generated)

	s.X += 5
	moved := c.Drawable(s, SlotStroke)
	assert.NotSame(t, first, moved)
	assert.Equal(t, 2, c.Generated)

	s.RoughStyle = shape.RoughCartoonist
	assert.True(t, c.ShouldRegenerate(s, Watched(s, SlotStroke), StyleTag(s, SlotStroke), SlotStroke))

	s.StrokeColor = "#ff0000"
	c.Drawable(s, SlotStroke)
	n := c.Generated
	c.Drawable(s, SlotStroke)
	assert.Equal(t, n, c.Generated, "color is applied at paint time")
}

func TestCacheSlotsAreIndependent(t *testing.T) {
	c := NewCache()
	s := rect("10", shape.RoughArchitect)
	c.Drawable(s, SlotStroke)
	c.Drawable(s, SlotFill)

	s.FillStyle = shape.FillHachure
	assert.True(t, c.ShouldRegenerate(s, Watched(s, SlotFill), StyleTag(s, SlotFill), SlotFill))
	assert.False(t, c.ShouldRegenerate(s, Watched(s, SlotStroke), StyleTag(s, SlotStroke), SlotStroke))
}

func TestCacheInvalidateAndForget(t *testing.T) {
	c := NewCache()
	s := rect("11", shape.RoughArchitect)
	c.Drawable(s, SlotStroke)
	c.Drawable(s, SlotFill)

	c.Invalidate(s.ID)
	assert.Nil(t, c.Get(s.ID, SlotStroke))
	assert.Nil(t, c.Get(s.ID, SlotFill))
	assert.Equal(t, 1, c.Len())

	c.Forget(s.ID)
	assert.Equal(t, 0, c.Len())
}

func TestColor(t *testing.T) {
	_, ok := Color("transparent")
	assert.False(t, ok)
	_, ok = Color("")
	assert.False(t, ok)
	c, ok := Color("#ff0000")
	assert.True(t, ok)
	assert.Equal(t, 1.0, c.R)
	assert.Equal(t, 0.0, c.G)
}

func TestStrokeFor(t *testing.T) {
	s := &shape.Shape{StrokeWidth: 2, StrokeEdge: shape.EdgeRound, StrokeStyle: shape.StrokeSolid}
	st := strokeFor(s)
	assert.Equal(t, gg.LineCapRound, st.Cap)
	assert.Nil(t, st.Dash)

	s.StrokeEdge = shape.EdgeSquare
	s.StrokeStyle = shape.StrokeDashed
	st = strokeFor(s)
	assert.Equal(t, gg.LineCapSquare, st.Cap)
	require.NotNil(t, st.Dash)
	assert.Equal(t, []float64{16, 12}, st.Dash.Array)

	s.StrokeStyle = shape.StrokeDotted
	st = strokeFor(s)
	assert.Equal(t, gg.LineCapRound, st.Cap)
	assert.Equal(t, []float64{1, 6}, st.Dash.Array)
}

func TestRenderPaintsFillThenStroke(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	dc := gg.NewContext(100, 100)
	dc.ClearWithColor(gg.Black)

	s := rect("12", shape.RoughArchitect)
	s.StrokeWidth = 4
	s.FillColor = "#ff0000"
	require.NoError(t, r.Render(dc, s))

	img := dc.Image()
	red, green, _, _ := img.At(50, 40).RGBA()
	assert.Greater(t, red, uint32(0x8000), "interior is filled")
	assert.Less(t, green, uint32(0x4000))

	_, green, _, _ = img.At(10, 40).RGBA()
	assert.Greater(t, green, uint32(0x8000), "outline is white on top")

	red, _, _, _ = img.At(95, 95).RGBA()
	assert.Less(t, red, uint32(0x1000), "outside untouched")
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	err = r.Render(gg.NewContext(10, 10), &shape.Shape{ID: "x", Kind: "blob"})
	assert.ErrorIs(t, err, shape.ErrInvalidShape)
}

func TestRenderTextSkipsEmpty(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	dc := gg.NewContext(50, 50)
	s := shape.NewText(0, 0, "", shape.DefaultStyle())
	assert.NoError(t, r.Render(dc, s))
	assert.Equal(t, 0, r.Cache.Len())
}
