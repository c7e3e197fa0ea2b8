// Package export writes the scene out as PDF or PNG.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"SketchBoard/internal/render"
	"SketchBoard/internal/shape"
)

// ErrEmptyScene is returned when there is nothing to export.
var ErrEmptyScene = errors.New("nothing to export")

const (
	// Padding around the scene, in canvas units.
	Padding = 20.0
	// pdfFontScale maps canvas font pixels to PDF points.
	pdfFontScale = 0.75
	lineHeight   = 1.25
)

// Options controls both exporters.
type Options struct {
	// Background is painted behind the scene; empty or "transparent" skips it.
	Background string
	// Scale multiplies the PNG resolution. Ignored by PDF.
	Scale float64
	Title string
}

// PDF writes shapes to w as a single page sized to the scene, one point
// per canvas unit. Strokes are exact; the hand-drawn jitter is not carried
// over.
func PDF(w io.Writer, shapes []*shape.Shape, opts Options) error {
	b := shape.SceneBounds(shapes, Padding)
	if b.Empty() {
		return ErrEmptyScene
	}

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation(b),
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: b.Width(), Ht: b.Height()},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	if opts.Title != "" {
		p.SetTitle(opts.Title, true)
	}
	p.SetCreator("SketchBoard", true)
	p.AddPage()

	if c, ok := rgb(opts.Background); ok {
		p.SetFillColor(c[0], c[1], c[2])
		p.Rect(0, 0, b.Width(), b.Height(), "F")
	}

	tr := p.UnicodeTranslatorFromDescriptor("")
	for _, s := range shapes {
		ps := *s
		ps.Points = append([]shape.Point(nil), s.Points...)
		ps.Translate(-b.MinX, -b.MinY)
		drawPDF(p, &ps, tr)
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}

func orientation(b shape.Rect) string {
	if b.Width() > b.Height() {
		return "L"
	}
	return "P"
}

func drawPDF(p *gofpdf.Fpdf, s *shape.Shape, tr func(string) string) {
	if s.Kind == shape.KindText {
		drawPDFText(p, s, tr)
		return
	}

	stroke, hasStroke := rgb(s.StrokeColor)
	fill, hasFill := rgb(s.FillColor)
	hasFill = hasFill && s.Kind.SupportsFill()
	if !hasStroke && !hasFill {
		return
	}
	style := ""
	if hasFill {
		p.SetFillColor(fill[0], fill[1], fill[2])
		style += "F"
	}
	if hasStroke {
		p.SetDrawColor(stroke[0], stroke[1], stroke[2])
		style += "D"
	}
	setPDFStroke(p, s)

	switch s.Kind {
	case shape.KindRect:
		p.Rect(s.X, s.Y, s.Width, s.Height, style)
	case shape.KindDiamond, shape.KindEllipse:
		p.Polygon(pdfPoints(s.Outline()), style)
	case shape.KindLine:
		if hasStroke {
			p.Line(s.StartX, s.StartY, s.EndX, s.EndY)
		}
	case shape.KindArrow:
		if hasStroke {
			p.Line(s.StartX, s.StartY, s.EndX, s.EndY)
			for _, w := range s.ArrowHead() {
				p.Line(s.EndX, s.EndY, w.X, w.Y)
			}
		}
	case shape.KindFreehand:
		if hasStroke {
			for i := 1; i < len(s.Points); i++ {
				p.Line(s.Points[i-1].X, s.Points[i-1].Y, s.Points[i].X, s.Points[i].Y)
			}
		}
	}
	p.SetDashPattern([]float64{}, 0)
}

func setPDFStroke(p *gofpdf.Fpdf, s *shape.Shape) {
	p.SetLineWidth(math.Max(s.StrokeWidth, 0.5))
	if s.StrokeEdge == shape.EdgeSquare {
		p.SetLineCapStyle("square")
		p.SetLineJoinStyle("miter")
	} else {
		p.SetLineCapStyle("round")
		p.SetLineJoinStyle("round")
	}
	if d := render.DashPattern(s); d != nil {
		p.SetDashPattern(d, 0)
	}
}

func drawPDFText(p *gofpdf.Fpdf, s *shape.Shape, tr func(string) string) {
	col := s.Color
	if col == "" {
		col = s.StrokeColor
	}
	c, ok := rgb(col)
	if !ok || s.Text == "" {
		return
	}
	p.SetTextColor(c[0], c[1], c[2])

	fontStyle := ""
	switch s.FontStyle {
	case "bold":
		fontStyle = "B"
	case "italic":
		fontStyle = "I"
	}
	size := s.FontSize
	if size <= 0 {
		size = shape.DefaultStyle().FontSize
	}
	p.SetFont("Helvetica", fontStyle, size*pdfFontScale)

	for i, line := range strings.Split(s.Text, "\n") {
		x := s.X
		lw := p.GetStringWidth(tr(line))
		switch s.TextAlign {
		case "center":
			x = s.X + (s.Width-lw)/2
		case "right":
			x = s.X + s.Width - lw
		}
		p.Text(x, s.Y+size+float64(i)*size*lineHeight, tr(line))
	}
}

func pdfPoints(pts []shape.Point) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(pts))
	for i, pt := range pts {
		out[i] = gofpdf.PointType{X: pt.X, Y: pt.Y}
	}
	return out
}

// rgb converts a scene color to the 0-255 triple gofpdf takes.
func rgb(c string) ([3]int, bool) {
	col, ok := render.Color(c)
	if !ok {
		return [3]int{}, false
	}
	n := col.Color()
	if n.A == 0 {
		return [3]int{}, false
	}
	return [3]int{int(n.R), int(n.G), int(n.B)}, true
}
