package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"

	"SketchBoard/internal/shape"
)

// Renderer paints shapes onto a gg context using the hand-drawn cache.
// The context's transform maps canvas space to pixels.
type Renderer struct {
	Cache *Cache
	fonts *fonts
}

func NewRenderer() (*Renderer, error) {
	f, err := newFonts()
	if err != nil {
		return nil, err
	}
	return &Renderer{Cache: NewCache(), fonts: f}, nil
}

// Color parses a CSS-style hex color. Empty and "transparent" report false.
func Color(c string) (gg.RGBA, bool) {
	c = strings.TrimSpace(c)
	if c == "" || strings.EqualFold(c, shape.Transparent) {
		return gg.RGBA{}, false
	}
	return gg.Hex(c), true
}

// Render draws s. The fill goes down first so the stroke sits on top of it.
// Geometry is never modified.
func (r *Renderer) Render(dc *gg.Context, s *shape.Shape) error {
	if s.Kind == shape.KindText {
		r.renderText(dc, s)
		return nil
	}
	if !s.Kind.Known() {
		return fmt.Errorf("render %q: %w", s.Kind, shape.ErrInvalidShape)
	}

	if s.Kind.SupportsFill() {
		if c, ok := Color(s.FillColor); ok {
			if err := r.paintFill(dc, s, c); err != nil {
				return fmt.Errorf("fill %s: %w", s.ID, err)
			}
		}
	}

	c, ok := Color(s.StrokeColor)
	if !ok {
		return nil
	}
	dc.SetColor(c.Color())
	dc.SetStroke(strokeFor(s))
	r.Cache.Drawable(s, SlotStroke).Replay(dc)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke %s: %w", s.ID, err)
	}
	return nil
}

func (r *Renderer) paintFill(dc *gg.Context, s *shape.Shape, c gg.RGBA) error {
	d := r.Cache.Drawable(s, SlotFill)
	dc.SetColor(c.Color())
	d.Replay(dc)
	if d.Filled {
		return dc.Fill()
	}
	dc.SetStroke(gg.Stroke{
		Width:      math.Max(1, s.StrokeWidth/2),
		Cap:        gg.LineCapRound,
		Join:       gg.LineJoinRound,
		MiterLimit: 4,
	})
	return dc.Stroke()
}

func strokeFor(s *shape.Shape) gg.Stroke {
	st := gg.Stroke{Width: strokeWidth(s), Cap: gg.LineCapRound, Join: gg.LineJoinRound, MiterLimit: 4}
	if s.StrokeEdge == shape.EdgeSquare {
		st.Cap = gg.LineCapSquare
		st.Join = gg.LineJoinMiter
	}
	if d := DashPattern(s); d != nil {
		st.Dash = gg.NewDash(d...)
		if s.StrokeStyle == shape.StrokeDotted {
			st.Cap = gg.LineCapRound
		}
	}
	return st
}

func strokeWidth(s *shape.Shape) float64 {
	if s.StrokeWidth <= 0 {
		return 1
	}
	return s.StrokeWidth
}

// DashPattern returns the on/off lengths for the shape's stroke style, nil
// for solid strokes.
func DashPattern(s *shape.Shape) []float64 {
	w := strokeWidth(s)
	switch s.StrokeStyle {
	case shape.StrokeDashed:
		return []float64{8 * w, 6 * w}
	case shape.StrokeDotted:
		return []float64{1, 3 * w}
	}
	return nil
}

const lineHeight = 1.25

// renderText places each line by hand. gg draws glyphs in device space, so
// the baseline is transformed and the face scaled to the current zoom.
func (r *Renderer) renderText(dc *gg.Context, s *shape.Shape) {
	if s.Text == "" {
		return
	}
	col := s.Color
	if col == "" {
		col = s.StrokeColor
	}
	c, ok := Color(col)
	if !ok {
		return
	}

	m := dc.GetTransform()
	zoom := math.Hypot(m.A, m.D)
	if zoom == 0 {
		return
	}
	size := s.FontSize
	if size <= 0 {
		size = shape.DefaultStyle().FontSize
	}
	face := r.fonts.face(s.FontStyle, size*zoom)
	dc.SetFont(face)
	dc.SetColor(c.Color())

	for i, line := range strings.Split(s.Text, "\n") {
		x := s.X
		lw := face.Advance(line) / zoom
		switch s.TextAlign {
		case "center":
			x += (s.Width - lw) / 2
		case "right":
			x += s.Width - lw
		}
		y := s.Y + float64(i)*size*lineHeight + size
		px, py := dc.TransformPoint(x, y)
		dc.DrawString(line, px, py)
	}
}
