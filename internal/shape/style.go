package shape

import (
	"math"
	"strings"
)

// Style is the record the tool UI hands the core when a shape is created.
type Style struct {
	StrokeFill  string      `json:"strokeFill" yaml:"strokeFill"`
	BgFill      string      `json:"bgFill" yaml:"bgFill"`
	StrokeWidth float64     `json:"strokeWidth" yaml:"strokeWidth"`
	StrokeEdge  Edge        `json:"strokeEdge" yaml:"strokeEdge"`
	StrokeStyle StrokeStyle `json:"strokeStyle" yaml:"strokeStyle"`
	RoughStyle  RoughStyle  `json:"roughStyle" yaml:"roughStyle"`
	FillStyle   FillStyle   `json:"fillStyle" yaml:"fillStyle"`
	FontFamily  string      `json:"fontFamily" yaml:"fontFamily"`
	FontSize    float64     `json:"fontSize" yaml:"fontSize"`
	TextAlign   string      `json:"textAlign" yaml:"textAlign"`
}

const Transparent = "transparent"

// DefaultStyle is used whenever the style supplier is unavailable.
func DefaultStyle() Style {
	return Style{
		StrokeFill:  "#ffffff",
		BgFill:      Transparent,
		StrokeWidth: 2,
		StrokeEdge:  EdgeRound,
		StrokeStyle: StrokeSolid,
		RoughStyle:  RoughArchitect,
		FillStyle:   DefaultFillStyle,
		FontFamily:  "Nunito",
		FontSize:    20,
		TextAlign:   "left",
	}
}

// WithDefaults fills every zero field from DefaultStyle.
func (st Style) WithDefaults() Style {
	d := DefaultStyle()
	if st.StrokeFill == "" {
		st.StrokeFill = d.StrokeFill
	}
	if st.BgFill == "" {
		st.BgFill = d.BgFill
	}
	if st.StrokeWidth <= 0 {
		st.StrokeWidth = d.StrokeWidth
	}
	if st.StrokeEdge == "" {
		st.StrokeEdge = d.StrokeEdge
	}
	if st.StrokeStyle == "" {
		st.StrokeStyle = d.StrokeStyle
	}
	if st.RoughStyle == "" {
		st.RoughStyle = d.RoughStyle
	}
	if st.FillStyle == "" {
		st.FillStyle = d.FillStyle
	}
	if st.FontFamily == "" {
		st.FontFamily = d.FontFamily
	}
	if st.FontSize <= 0 {
		st.FontSize = d.FontSize
	}
	if st.TextAlign == "" {
		st.TextAlign = d.TextAlign
	}
	return st
}

// Apply copies the style onto a shape, honouring what its kind supports.
func (st Style) Apply(s *Shape) {
	st = st.WithDefaults()
	s.StrokeColor = st.StrokeFill
	s.StrokeWidth = st.StrokeWidth
	s.StrokeEdge = st.StrokeEdge
	s.StrokeStyle = st.StrokeStyle
	if s.Kind.SupportsRough() {
		s.RoughStyle = st.RoughStyle
	}
	if s.Kind.SupportsFill() {
		s.FillColor = st.BgFill
		s.FillStyle = st.FillStyle
	}
	if s.Kind == KindText {
		s.Color = st.StrokeFill
		s.FontSize = st.FontSize
		s.FontFamily = st.FontFamily
		s.TextAlign = st.TextAlign
		if s.FontStyle == "" {
			s.FontStyle = "normal"
		}
	}
}

// FromDrag builds a shape of the given kind spanning a pointer drag from
// (x0, y0) to (x1, y1). Pencil and text are not drag-built and return nil.
func FromDrag(kind Kind, x0, y0, x1, y1 float64, st Style) *Shape {
	s := &Shape{Kind: kind}
	switch kind {
	case KindRect, KindDiamond:
		s.X, s.Y = math.Min(x0, x1), math.Min(y0, y1)
		s.Width, s.Height = math.Abs(x1-x0), math.Abs(y1-y0)
	case KindEllipse:
		s.CenterX, s.CenterY = (x0+x1)/2, (y0+y1)/2
		s.RadiusX, s.RadiusY = math.Abs(x1-x0)/2, math.Abs(y1-y0)/2
	case KindLine, KindArrow:
		s.StartX, s.StartY, s.EndX, s.EndY = x0, y0, x1, y1
	default:
		return nil
	}
	st.Apply(s)
	return s
}

// NewFreehand builds a pencil stroke from captured points.
func NewFreehand(points []Point, st Style) *Shape {
	s := &Shape{Kind: KindFreehand, Points: append([]Point(nil), points...)}
	st.Apply(s)
	return s
}

// NewText builds a text shape anchored at (x, y), sized to fit its content.
func NewText(x, y float64, text string, st Style) *Shape {
	s := &Shape{Kind: KindText, X: x, Y: y, Text: text}
	st.Apply(s)
	s.Width, s.Height = TextExtent(text, s.FontSize)
	return s
}

// TextExtent estimates the box a text needs at the given font size.
func TextExtent(text string, fontSize float64) (float64, float64) {
	lines := strings.Split(text, "\n")
	longest := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > longest {
			longest = n
		}
	}
	w := math.Max(MinTextWidth, float64(longest)*fontSize*0.6)
	h := math.Max(MinTextHeight, float64(len(lines))*fontSize*1.25)
	return w, h
}

// Patch is a partial style edit applied to an existing shape. Nil fields
// are left untouched.
type Patch struct {
	StrokeColor *string      `json:"strokeColor,omitempty"`
	StrokeWidth *float64     `json:"strokeWidth,omitempty"`
	StrokeEdge  *Edge        `json:"strokeEdge,omitempty"`
	StrokeStyle *StrokeStyle `json:"strokeStyle,omitempty"`
	RoughStyle  *RoughStyle  `json:"roughStyle,omitempty"`
	FillColor   *string      `json:"fillColor,omitempty"`
	FillStyle   *FillStyle   `json:"fillStyle,omitempty"`
	FontSize    *float64     `json:"fontSize,omitempty"`
	FontFamily  *string      `json:"fontFamily,omitempty"`
	TextAlign   *string      `json:"textAlign,omitempty"`
}

// Apply writes the patch onto s and reports whether anything changed.
func (p Patch) Apply(s *Shape) bool {
	changed := false
	setString := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	setFloat := func(dst *float64, v *float64) {
		if v != nil && *v > 0 && *dst != *v {
			*dst = *v
			changed = true
		}
	}

	if s.Kind == KindText {
		setString(&s.Color, p.StrokeColor)
		setFloat(&s.FontSize, p.FontSize)
		setString(&s.FontFamily, p.FontFamily)
		setString(&s.TextAlign, p.TextAlign)
		if p.FontSize != nil {
			s.FontSize = clamp(s.FontSize, MinFontSize, MaxFontSize)
		}
	}
	setString(&s.StrokeColor, p.StrokeColor)
	setFloat(&s.StrokeWidth, p.StrokeWidth)
	if p.StrokeEdge != nil && s.StrokeEdge != *p.StrokeEdge {
		s.StrokeEdge = *p.StrokeEdge
		changed = true
	}
	if p.StrokeStyle != nil && s.StrokeStyle != *p.StrokeStyle {
		s.StrokeStyle = *p.StrokeStyle
		changed = true
	}
	if s.Kind.SupportsRough() && p.RoughStyle != nil && s.RoughStyle != *p.RoughStyle {
		s.RoughStyle = *p.RoughStyle
		changed = true
	}
	if s.Kind.SupportsFill() {
		setString(&s.FillColor, p.FillColor)
		if p.FillStyle != nil && s.FillStyle != *p.FillStyle {
			s.FillStyle = *p.FillStyle
			changed = true
		}
	}
	return changed
}
