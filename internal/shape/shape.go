package shape

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidShape is returned when a shape fails validation or encoding.
var ErrInvalidShape = errors.New("invalid shape")

// Kind tags which variant of Shape is populated.
type Kind string

const (
	KindRect     Kind = "rect"
	KindEllipse  Kind = "ellipse"
	KindLine     Kind = "line"
	KindArrow    Kind = "arrow"
	KindFreehand Kind = "pencil"
	KindDiamond  Kind = "diamond"
	KindText     Kind = "text"
)

// Known reports whether k is one of the seven shape kinds.
func (k Kind) Known() bool {
	switch k {
	case KindRect, KindEllipse, KindLine, KindArrow, KindFreehand, KindDiamond, KindText:
		return true
	}
	return false
}

// SupportsFill reports whether shapes of this kind have a fillable interior.
func (k Kind) SupportsFill() bool {
	return k == KindRect || k == KindEllipse || k == KindDiamond
}

// SupportsRough reports whether the hand-drawn backend applies to this kind.
func (k Kind) SupportsRough() bool {
	return k.Known() && k != KindText
}

// IsLinear reports whether the kind is made of segments rather than an area.
func (k Kind) IsLinear() bool {
	return k == KindLine || k == KindArrow || k == KindFreehand
}

// usesBox reports whether the kind stores its geometry as x/y/width/height.
func (k Kind) usesBox() bool {
	return k == KindRect || k == KindDiamond || k == KindText
}

type Edge string

const (
	EdgeRound  Edge = "round"
	EdgeSquare Edge = "square"
)

type StrokeStyle string

const (
	StrokeSolid  StrokeStyle = "solid"
	StrokeDashed StrokeStyle = "dashed"
	StrokeDotted StrokeStyle = "dotted"
)

// RoughStyle selects how much hand-drawn jitter strokes and fills get.
type RoughStyle string

const (
	RoughArchitect  RoughStyle = "architect"
	RoughArtist     RoughStyle = "artist"
	RoughCartoonist RoughStyle = "cartoonist"
)

// Roughness maps the style to the generator's jitter amplitude.
func (r RoughStyle) Roughness() float64 {
	switch r {
	case RoughArtist:
		return 1
	case RoughCartoonist:
		return 2
	}
	return 0
}

type FillStyle string

const (
	FillSolid   FillStyle = "solid"
	FillHachure FillStyle = "hachure"
	FillZigzag  FillStyle = "zigzag"
)

// DefaultFillStyle is the fill used by the clean (architect) renderer.
const DefaultFillStyle = FillSolid

// Point is a canvas-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is one drawable entity. Kind decides which geometry group is
// meaningful; fields of the other groups stay zero (see Normalize).
type Shape struct {
	ID   string `json:"id"`
	Kind Kind   `json:"type"`

	StrokeColor string      `json:"strokeColor,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	StrokeEdge  Edge        `json:"strokeEdge,omitempty"`
	StrokeStyle StrokeStyle `json:"strokeStyle,omitempty"`
	RoughStyle  RoughStyle  `json:"roughStyle,omitempty"`
	FillColor   string      `json:"fillColor,omitempty"`
	FillStyle   FillStyle   `json:"fillStyle,omitempty"`

	// rect, diamond, text
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// ellipse
	CenterX float64 `json:"centerX,omitempty"`
	CenterY float64 `json:"centerY,omitempty"`
	RadiusX float64 `json:"radiusX,omitempty"`
	RadiusY float64 `json:"radiusY,omitempty"`

	// line, arrow
	StartX float64 `json:"startX,omitempty"`
	StartY float64 `json:"startY,omitempty"`
	EndX   float64 `json:"endX,omitempty"`
	EndY   float64 `json:"endY,omitempty"`

	// pencil
	Points []Point `json:"points,omitempty"`

	// text
	Text       string  `json:"text,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	Color      string  `json:"color,omitempty"`
}

type wireCommon struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"type"`
	StrokeColor string      `json:"strokeColor,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	StrokeEdge  Edge        `json:"strokeEdge,omitempty"`
	StrokeStyle StrokeStyle `json:"strokeStyle,omitempty"`
	RoughStyle  RoughStyle  `json:"roughStyle,omitempty"`
	FillColor   string      `json:"fillColor,omitempty"`
	FillStyle   FillStyle   `json:"fillStyle,omitempty"`
}

type wireBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wireOval struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	RadiusX float64 `json:"radiusX"`
	RadiusY float64 `json:"radiusY"`
}

type wireSegment struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

type wirePath struct {
	Points []Point `json:"points"`
}

type wireText struct {
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	Color      string  `json:"color,omitempty"`
}

// MarshalJSON writes only the geometry group that belongs to the shape's
// kind, so zero coordinates are kept and foreign fields never leak.
func (s Shape) MarshalJSON() ([]byte, error) {
	c := wireCommon{
		ID:          s.ID,
		Kind:        s.Kind,
		StrokeColor: s.StrokeColor,
		StrokeWidth: s.StrokeWidth,
		StrokeEdge:  s.StrokeEdge,
		StrokeStyle: s.StrokeStyle,
		RoughStyle:  s.RoughStyle,
		FillColor:   s.FillColor,
		FillStyle:   s.FillStyle,
	}
	box := wireBox{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}

	switch s.Kind {
	case KindRect, KindDiamond:
		return json.Marshal(struct {
			wireCommon
			wireBox
		}{c, box})
	case KindText:
		return json.Marshal(struct {
			wireCommon
			wireBox
			wireText
		}{c, box, wireText{
			Text:       s.Text,
			FontSize:   s.FontSize,
			FontFamily: s.FontFamily,
			FontStyle:  s.FontStyle,
			TextAlign:  s.TextAlign,
			Color:      s.Color,
		}})
	case KindEllipse:
		return json.Marshal(struct {
			wireCommon
			wireOval
		}{c, wireOval{CenterX: s.CenterX, CenterY: s.CenterY, RadiusX: s.RadiusX, RadiusY: s.RadiusY}})
	case KindLine, KindArrow:
		return json.Marshal(struct {
			wireCommon
			wireSegment
		}{c, wireSegment{StartX: s.StartX, StartY: s.StartY, EndX: s.EndX, EndY: s.EndY}})
	case KindFreehand:
		pts := s.Points
		if pts == nil {
			pts = []Point{}
		}
		return json.Marshal(struct {
			wireCommon
			wirePath
		}{c, wirePath{Points: pts}})
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, s.Kind)
}

// Clone returns a deep copy.
func (s *Shape) Clone() *Shape {
	c := *s
	if s.Points != nil {
		c.Points = make([]Point, len(s.Points))
		copy(c.Points, s.Points)
	}
	return &c
}

// Normalize zeroes every field that does not belong to the shape's kind and
// flips negative box extents produced by dragging up or left.
func (s *Shape) Normalize() {
	if !s.Kind.usesBox() {
		s.X, s.Y, s.Width, s.Height = 0, 0, 0, 0
	} else {
		if s.Width < 0 {
			s.X += s.Width
			s.Width = -s.Width
		}
		if s.Height < 0 {
			s.Y += s.Height
			s.Height = -s.Height
		}
	}
	if s.Kind != KindEllipse {
		s.CenterX, s.CenterY, s.RadiusX, s.RadiusY = 0, 0, 0, 0
	} else {
		if s.RadiusX < 0 {
			s.RadiusX = -s.RadiusX
		}
		if s.RadiusY < 0 {
			s.RadiusY = -s.RadiusY
		}
	}
	if s.Kind != KindLine && s.Kind != KindArrow {
		s.StartX, s.StartY, s.EndX, s.EndY = 0, 0, 0, 0
	}
	if s.Kind != KindFreehand {
		s.Points = nil
	}
	if s.Kind != KindText {
		s.Text, s.FontSize, s.FontFamily, s.FontStyle, s.TextAlign, s.Color = "", 0, "", "", "", ""
	}
	if !s.Kind.SupportsFill() {
		s.FillColor, s.FillStyle = "", ""
	}
}

// Validate checks the invariants a shape must satisfy before it is stored
// or sent: a known kind, an id, positive extents and no foreign fields.
func (s *Shape) Validate() error {
	if !s.Kind.Known() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, s.Kind)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidShape)
	}

	switch s.Kind {
	case KindRect, KindDiamond, KindText:
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: %s %s has non-positive size %gx%g", ErrInvalidShape, s.Kind, s.ID, s.Width, s.Height)
		}
	case KindEllipse:
		if s.RadiusX <= 0 || s.RadiusY <= 0 {
			return fmt.Errorf("%w: ellipse %s has non-positive radii", ErrInvalidShape, s.ID)
		}
	case KindFreehand:
		if len(s.Points) < 2 {
			return fmt.Errorf("%w: pencil %s has %d points", ErrInvalidShape, s.ID, len(s.Points))
		}
	}

	n := s.Clone()
	n.Normalize()
	if !n.sameGeometry(s) {
		return fmt.Errorf("%w: %s %s carries fields of another kind", ErrInvalidShape, s.Kind, s.ID)
	}
	return nil
}

func (s *Shape) sameGeometry(o *Shape) bool {
	if s.X != o.X || s.Y != o.Y || s.Width != o.Width || s.Height != o.Height ||
		s.CenterX != o.CenterX || s.CenterY != o.CenterY || s.RadiusX != o.RadiusX || s.RadiusY != o.RadiusY ||
		s.StartX != o.StartX || s.StartY != o.StartY || s.EndX != o.EndX || s.EndY != o.EndY ||
		s.Text != o.Text || s.FontSize != o.FontSize {
		return false
	}
	if len(s.Points) != len(o.Points) {
		return false
	}
	for i := range s.Points {
		if s.Points[i] != o.Points[i] {
			return false
		}
	}
	return true
}

// Translate moves the shape by (dx, dy) in canvas space.
func (s *Shape) Translate(dx, dy float64) {
	switch s.Kind {
	case KindRect, KindDiamond, KindText:
		s.X += dx
		s.Y += dy
	case KindEllipse:
		s.CenterX += dx
		s.CenterY += dy
	case KindLine, KindArrow:
		s.StartX += dx
		s.StartY += dy
		s.EndX += dx
		s.EndY += dy
	case KindFreehand:
		for i := range s.Points {
			s.Points[i].X += dx
			s.Points[i].Y += dy
		}
	}
}

// Origin is the reference point used when dragging a shape.
func (s *Shape) Origin() Point {
	switch s.Kind {
	case KindEllipse:
		return Point{s.CenterX, s.CenterY}
	case KindLine, KindArrow:
		return Point{s.StartX, s.StartY}
	case KindFreehand:
		if len(s.Points) > 0 {
			return s.Points[0]
		}
		return Point{}
	}
	return Point{s.X, s.Y}
}

// Bounds returns the axis-aligned bounding box of the geometry.
func (s *Shape) Bounds() Rect {
	switch s.Kind {
	case KindEllipse:
		return Rect{
			MinX: s.CenterX - s.RadiusX, MinY: s.CenterY - s.RadiusY,
			MaxX: s.CenterX + s.RadiusX, MaxY: s.CenterY + s.RadiusY,
		}
	case KindLine, KindArrow:
		return PointsBounds([]Point{{s.StartX, s.StartY}, {s.EndX, s.EndY}})
	case KindFreehand:
		return PointsBounds(s.Points)
	}
	return Rect{MinX: s.X, MinY: s.Y, MaxX: s.X + s.Width, MaxY: s.Y + s.Height}
}
