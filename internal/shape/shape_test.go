package shape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleShapes() []*Shape {
	st := DefaultStyle()
	rect := FromDrag(KindRect, 10, 10, 110, 60, st)
	rect.ID = "rect-1"
	diamond := FromDrag(KindDiamond, 200, 200, 260, 280, st)
	diamond.ID = "diamond-1"
	ellipse := FromDrag(KindEllipse, 300, 300, 400, 360, st)
	ellipse.ID = "ellipse-1"
	line := FromDrag(KindLine, 0, 0, 100, 100, st)
	line.ID = "line-1"
	arrow := FromDrag(KindArrow, 50, 400, 250, 400, st)
	arrow.ID = "arrow-1"
	pencil := NewFreehand([]Point{{500, 500}, {520, 510}, {540, 530}}, st)
	pencil.ID = "pencil-1"
	text := NewText(600, 100, "hello", st)
	text.ID = "text-1"
	return []*Shape{rect, diamond, ellipse, line, arrow, pencil, text}
}

func TestFromDragRect(t *testing.T) {
	s := FromDrag(KindRect, 10, 10, 110, 60, DefaultStyle())
	require.NotNil(t, s)

	assert.Equal(t, KindRect, s.Kind)
	assert.Equal(t, 10.0, s.X)
	assert.Equal(t, 10.0, s.Y)
	assert.Equal(t, 100.0, s.Width)
	assert.Equal(t, 50.0, s.Height)
	assert.Equal(t, "#ffffff", s.StrokeColor)
	assert.Equal(t, 2.0, s.StrokeWidth)
	assert.Equal(t, EdgeRound, s.StrokeEdge)
	assert.Equal(t, StrokeSolid, s.StrokeStyle)
}

func TestFromDragNormalizesDirection(t *testing.T) {
	s := FromDrag(KindRect, 110, 60, 10, 10, DefaultStyle())
	assert.Equal(t, 10.0, s.X)
	assert.Equal(t, 10.0, s.Y)
	assert.Equal(t, 100.0, s.Width)
	assert.Equal(t, 50.0, s.Height)

	assert.Nil(t, FromDrag(KindFreehand, 0, 0, 1, 1, DefaultStyle()))
}

func TestMarshalOnlyWritesOwnGeometry(t *testing.T) {
	t.Run("rect keeps zero coordinates", func(t *testing.T) {
		s := &Shape{ID: "a", Kind: KindRect, Width: 20, Height: 20}
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(data, &fields))
		assert.Equal(t, "rect", fields["type"])
		assert.Contains(t, fields, "x")
		assert.Contains(t, fields, "y")
		assert.NotContains(t, fields, "centerX")
		assert.NotContains(t, fields, "points")
		assert.NotContains(t, fields, "text")
	})

	t.Run("ellipse has no box fields", func(t *testing.T) {
		s := &Shape{ID: "e", Kind: KindEllipse, CenterX: 5, CenterY: 5, RadiusX: 3, RadiusY: 4, X: 99}
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.NotContains(t, string(data), `"x"`)
		assert.Contains(t, string(data), `"radiusY":4`)
	})

	t.Run("unknown kind fails", func(t *testing.T) {
		_, err := json.Marshal(&Shape{ID: "z", Kind: "hexagon"})
		assert.ErrorIs(t, err, ErrInvalidShape)
	})
}

func TestDecodeKeepsEveryKind(t *testing.T) {
	for _, s := range sampleShapes() {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var got Shape
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, *s, got, "kind %s", s.Kind)
		assert.NoError(t, got.Validate())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		ok    bool
	}{
		{"valid rect", Shape{ID: "1", Kind: KindRect, Width: 10, Height: 10}, true},
		{"missing id", Shape{Kind: KindRect, Width: 10, Height: 10}, false},
		{"unknown kind", Shape{ID: "1", Kind: "blob"}, false},
		{"zero width", Shape{ID: "1", Kind: KindRect, Height: 10}, false},
		{"ellipse without radii", Shape{ID: "1", Kind: KindEllipse}, false},
		{"single point pencil", Shape{ID: "1", Kind: KindFreehand, Points: []Point{{1, 1}}}, false},
		{"rect with ellipse fields", Shape{ID: "1", Kind: KindRect, Width: 10, Height: 10, RadiusX: 4}, false},
		{"line with points", Shape{ID: "1", Kind: KindLine, EndX: 4, Points: []Point{{0, 0}, {1, 1}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidShape)
			}
		})
	}
}

func TestNormalizeDropsForeignFields(t *testing.T) {
	s := &Shape{
		ID: "1", Kind: KindLine, EndX: 10, EndY: 10,
		X: 4, RadiusX: 3, Points: []Point{{1, 1}}, Text: "x", FillColor: "#ff0000",
	}
	s.Normalize()
	assert.Zero(t, s.X)
	assert.Zero(t, s.RadiusX)
	assert.Nil(t, s.Points)
	assert.Empty(t, s.Text)
	assert.Empty(t, s.FillColor)
	assert.Equal(t, 10.0, s.EndX)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewFreehand([]Point{{0, 0}, {10, 10}}, DefaultStyle())
	c := s.Clone()
	c.Points[0].X = 99
	assert.Equal(t, 0.0, s.Points[0].X)
}

func TestTranslate(t *testing.T) {
	for _, s := range sampleShapes() {
		before := s.Bounds()
		s.Translate(5, -3)
		after := s.Bounds()
		assert.InDelta(t, before.MinX+5, after.MinX, 1e-9, "kind %s", s.Kind)
		assert.InDelta(t, before.MinY-3, after.MinY, 1e-9, "kind %s", s.Kind)
		assert.InDelta(t, before.Width(), after.Width(), 1e-9, "kind %s", s.Kind)
	}
}

func TestCapabilities(t *testing.T) {
	assert.True(t, KindRect.SupportsFill())
	assert.True(t, KindEllipse.SupportsFill())
	assert.True(t, KindDiamond.SupportsFill())
	assert.False(t, KindLine.SupportsFill())
	assert.False(t, KindText.SupportsRough())
	assert.True(t, KindFreehand.IsLinear())
	assert.False(t, KindRect.IsLinear())
}

func TestPatchApply(t *testing.T) {
	s := FromDrag(KindRect, 0, 0, 50, 50, DefaultStyle())
	red := "#ff0000"
	hachure := FillHachure
	artist := RoughArtist

	changed := Patch{StrokeColor: &red, FillStyle: &hachure, RoughStyle: &artist}.Apply(s)
	assert.True(t, changed)
	assert.Equal(t, red, s.StrokeColor)
	assert.Equal(t, FillHachure, s.FillStyle)
	assert.Equal(t, RoughArtist, s.RoughStyle)

	assert.False(t, Patch{StrokeColor: &red}.Apply(s))

	line := FromDrag(KindLine, 0, 0, 50, 50, DefaultStyle())
	assert.False(t, Patch{FillStyle: &hachure}.Apply(line), "lines have no fill")
}

func TestSceneBounds(t *testing.T) {
	shapes := sampleShapes()
	b := SceneBounds(shapes, 10)
	for _, s := range shapes {
		sb := s.Bounds()
		assert.True(t, b.Contains(sb.MinX, sb.MinY), "kind %s", s.Kind)
		assert.True(t, b.Contains(sb.MaxX, sb.MaxY), "kind %s", s.Kind)
	}
	assert.True(t, SceneBounds(nil, 10).Empty())
}
