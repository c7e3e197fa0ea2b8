package canvas

import (
	"fmt"
	"image"
	"io"
	"log"
	"math"

	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"SketchBoard/internal/render"
	"SketchBoard/internal/shape"
)

const (
	// HandleSize is the side of a resize handle in screen pixels.
	HandleSize = 8.0
	// HandleMargin keeps handles off the body of closed shapes.
	HandleMargin = 6.0

	MinScale = 0.1
	MaxScale = 10.0

	DefaultBackground = "#121212"
	selectionColor    = "#6965db"

	// DefaultGrid is the grid spacing in canvas units.
	DefaultGrid = 20.0
	// minGridPixels hides the grid once lines would be closer than this on screen.
	minGridPixels = 6.0
)

// Viewport maps canvas space to screen space: screen = canvas*Scale + Offset.
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Engine owns the scene, the viewport and the selection, and keeps a
// rendered frame in sync with them. Every mutation redraws. Engine is not
// safe for concurrent use; callers serialize access.
type Engine struct {
	shapes   []*shape.Shape
	view     Viewport
	selected string
	preview  *shape.Shape

	dc       *gg.Context
	renderer *render.Renderer

	Background string
	// Grid is the background grid spacing in canvas units. Zero hides it.
	Grid float64

	// Redraws counts full repaints.
	Redraws int
	// OnRedraw fires after every repaint.
	OnRedraw func()
}

func NewEngine(width, height int) (*Engine, error) {
	r, err := render.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	return &Engine{
		view:       Viewport{Scale: 1},
		dc:         gg.NewContext(width, height),
		renderer:   r,
		Background: DefaultBackground,
	}, nil
}

func (e *Engine) Viewport() Viewport { return e.view }

func (e *Engine) Scale() float64 { return e.view.Scale }

// SetScale changes the zoom and redraws. Unchanged values are ignored.
func (e *Engine) SetScale(s float64) {
	if s <= 0 || s == e.view.Scale {
		return
	}
	e.view.Scale = s
	e.ClearCanvas()
}

// SetOffset changes the pan and redraws. Unchanged values are ignored.
func (e *Engine) SetOffset(x, y float64) {
	if x == e.view.OffsetX && y == e.view.OffsetY {
		return
	}
	e.view.OffsetX, e.view.OffsetY = x, y
	e.ClearCanvas()
}

// ZoomAt scales by factor keeping the canvas point under (sx, sy) fixed.
func (e *Engine) ZoomAt(factor, sx, sy float64) {
	if factor <= 0 {
		return
	}
	next := math.Max(MinScale, math.Min(MaxScale, e.view.Scale*factor))
	if next == e.view.Scale {
		return
	}
	cx, cy := e.ScreenToCanvas(sx, sy)
	e.view.Scale = next
	e.view.OffsetX = sx - cx*next
	e.view.OffsetY = sy - cy*next
	e.ClearCanvas()
}

// Pan shifts the viewport by a screen-space delta.
func (e *Engine) Pan(dx, dy float64) {
	e.SetOffset(e.view.OffsetX+dx, e.view.OffsetY+dy)
}

func (e *Engine) ScreenToCanvas(sx, sy float64) (float64, float64) {
	return (sx - e.view.OffsetX) / e.view.Scale, (sy - e.view.OffsetY) / e.view.Scale
}

func (e *Engine) CanvasToScreen(x, y float64) (float64, float64) {
	return x*e.view.Scale + e.view.OffsetX, y*e.view.Scale + e.view.OffsetY
}

// Resize changes the frame size in pixels.
func (e *Engine) Resize(width, height int) error {
	if width == e.dc.Width() && height == e.dc.Height() {
		return nil
	}
	if err := e.dc.Resize(width, height); err != nil {
		return err
	}
	e.ClearCanvas()
	return nil
}

func (e *Engine) Size() (int, int) { return e.dc.Width(), e.dc.Height() }

// ClearCanvas repaints the whole frame: background, every shape in scene
// order, the in-progress preview, then the selection frame on top.
func (e *Engine) ClearCanvas() {
	bg, ok := render.Color(e.Background)
	if !ok {
		bg = gg.Transparent
	}
	e.dc.ClearWithColor(bg)

	e.dc.Push()
	e.dc.Translate(e.view.OffsetX, e.view.OffsetY)
	e.dc.Scale(e.view.Scale, e.view.Scale)

	e.drawGrid()
	for _, s := range e.shapes {
		if err := e.renderer.Render(e.dc, s); err != nil {
			log.Printf("[CANVAS] skip %s: %v", s.ID, err)
		}
	}
	if e.preview != nil {
		if err := e.renderer.Render(e.dc, e.preview); err != nil {
			log.Printf("[CANVAS] preview: %v", err)
		}
	}
	if s := e.find(e.selected); s != nil {
		e.drawSelection(s)
	}

	e.dc.Pop()
	e.Redraws++
	if e.OnRedraw != nil {
		e.OnRedraw()
	}
}

func (e *Engine) drawGrid() {
	step := e.Grid
	if step <= 0 || step*e.view.Scale < minGridPixels {
		return
	}
	x0, y0 := e.ScreenToCanvas(0, 0)
	x1, y1 := e.ScreenToCanvas(float64(e.dc.Width()), float64(e.dc.Height()))

	for x := math.Floor(x0/step) * step; x <= x1; x += step {
		e.dc.MoveTo(x, y0)
		e.dc.LineTo(x, y1)
	}
	for y := math.Floor(y0/step) * step; y <= y1; y += step {
		e.dc.MoveTo(x0, y)
		e.dc.LineTo(x1, y)
	}
	e.dc.SetColor(gg.RGBA{R: 1, G: 1, B: 1, A: 0.06}.Color())
	e.dc.SetStroke(gg.Stroke{Width: 1 / e.view.Scale, Cap: gg.LineCapButt, Join: gg.LineJoinMiter, MiterLimit: 4})
	_ = e.dc.Stroke()
}

// SetGrid changes the grid spacing and redraws.
func (e *Engine) SetGrid(step float64) {
	if step < 0 || step == e.Grid {
		return
	}
	e.Grid = step
	e.ClearCanvas()
}

func (e *Engine) drawSelection(s *shape.Shape) {
	col := gg.Hex(selectionColor)
	w := 1 / e.view.Scale

	b := e.selectionBounds(s)
	e.dc.SetColor(col.Color())
	e.dc.SetStroke(gg.Stroke{Width: w, Cap: gg.LineCapButt, Join: gg.LineJoinMiter, MiterLimit: 4, Dash: gg.NewDash(4*w, 4*w)})
	e.dc.DrawRectangle(b.MinX, b.MinY, b.Width(), b.Height())
	_ = e.dc.Stroke()

	size := HandleSize / e.view.Scale
	e.dc.SetStroke(gg.Stroke{Width: w, Cap: gg.LineCapButt, Join: gg.LineJoinMiter, MiterLimit: 4})
	for _, p := range e.HandlePositions(s) {
		e.dc.DrawRectangle(p.X-size/2, p.Y-size/2, size, size)
		e.dc.SetColor(gg.White.Color())
		_ = e.dc.FillPreserve()
		e.dc.SetColor(col.Color())
		_ = e.dc.Stroke()
	}
}

func (e *Engine) selectionBounds(s *shape.Shape) shape.Rect {
	b := s.Bounds()
	if s.Kind.SupportsFill() {
		b = b.Pad(HandleMargin / e.view.Scale)
	}
	return b
}

// HandlePositions returns the eight resize handles of s in canvas space,
// clockwise from the top-left corner.
func (e *Engine) HandlePositions(s *shape.Shape) [shape.HandleCount]shape.Point {
	b := e.selectionBounds(s)
	var out [shape.HandleCount]shape.Point
	for h := range out {
		out[h] = b.HandlePoint(shape.Handle(h))
	}
	return out
}

// GetHandleAtPoint returns the first handle of s whose hit square contains
// the canvas point (px, py).
func (e *Engine) GetHandleAtPoint(s *shape.Shape, px, py float64) (shape.Handle, bool) {
	if s == nil {
		return 0, false
	}
	half := HandleSize / 2 / e.view.Scale
	for i, p := range e.HandlePositions(s) {
		if math.Abs(px-p.X) <= half && math.Abs(py-p.Y) <= half {
			return shape.Handle(i), true
		}
	}
	return 0, false
}

// FindShapeUnderPoint hit-tests the scene at a screen position, topmost
// shape first. The tolerance is constant in screen pixels.
func (e *Engine) FindShapeUnderPoint(clientX, clientY float64) *shape.Shape {
	x, y := e.ScreenToCanvas(clientX, clientY)
	buffer := shape.DefaultHitBuffer / e.view.Scale
	for i := len(e.shapes) - 1; i >= 0; i-- {
		if e.shapes[i].HitTest(x, y, buffer) {
			return e.shapes[i].Clone()
		}
	}
	return nil
}

// AddShape appends s to the scene, assigning an id and the default edge
// and stroke style when missing. An id already in the scene is replaced
// instead.
func (e *Engine) AddShape(s *shape.Shape) *shape.Shape {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StrokeEdge == "" {
		s.StrokeEdge = shape.EdgeRound
	}
	if s.StrokeStyle == "" {
		s.StrokeStyle = shape.StrokeSolid
	}
	if e.index(s.ID) >= 0 {
		e.UpdateShape(s)
		return e.ShapeByID(s.ID)
	}
	e.shapes = append(e.shapes, s.Clone())
	e.ClearCanvas()
	return s.Clone()
}

// UpdateShape replaces the shape with the same id wholesale. A stroke,
// rough or fill style change on a fillable shape drops its drawables, and
// switching the rough style resets the fill to the default.
func (e *Engine) UpdateShape(next *shape.Shape) bool {
	i := e.index(next.ID)
	if i < 0 {
		return false
	}
	prev := e.shapes[i]
	next = next.Clone()
	if next.Kind.SupportsFill() &&
		(prev.StrokeStyle != next.StrokeStyle || prev.RoughStyle != next.RoughStyle || prev.FillStyle != next.FillStyle) {
		e.renderer.Cache.Invalidate(next.ID)
		if prev.RoughStyle != next.RoughStyle {
			next.FillStyle = shape.DefaultFillStyle
		}
	}
	e.shapes[i] = next
	e.ClearCanvas()
	return true
}

// EraseShapeById removes id from the scene and reports whether it was
// there. Only an actual removal redraws.
func (e *Engine) EraseShapeById(id string) bool {
	i := e.index(id)
	if i < 0 {
		return false
	}
	e.shapes = append(e.shapes[:i], e.shapes[i+1:]...)
	e.renderer.Cache.Forget(id)
	if e.selected == id {
		e.selected = ""
	}
	e.ClearCanvas()
	return true
}

// SetShapes replaces the whole scene.
func (e *Engine) SetShapes(shapes []*shape.Shape) {
	e.shapes = make([]*shape.Shape, 0, len(shapes))
	for _, s := range shapes {
		e.shapes = append(e.shapes, s.Clone())
	}
	e.renderer.Cache.Reset()
	if e.index(e.selected) < 0 {
		e.selected = ""
	}
	e.preview = nil
	e.ClearCanvas()
}

// SetPreview shows s on top of the scene without adding it. nil clears.
func (e *Engine) SetPreview(s *shape.Shape) {
	if s == nil && e.preview == nil {
		return
	}
	if s != nil {
		s = s.Clone()
		if s.ID == "" {
			s.ID = "preview"
		}
		e.renderer.Cache.Invalidate(s.ID)
	}
	e.preview = s
	e.ClearCanvas()
}

// Select makes id the only selected shape. An empty or unknown id clears
// the selection.
func (e *Engine) Select(id string) {
	if e.index(id) < 0 {
		id = ""
	}
	if id == e.selected {
		return
	}
	e.selected = id
	e.ClearCanvas()
}

func (e *Engine) SelectedID() string { return e.selected }

// Selected returns a copy of the selected shape, or nil.
func (e *Engine) Selected() *shape.Shape {
	if s := e.find(e.selected); s != nil {
		return s.Clone()
	}
	return nil
}

// Shapes returns copies of the scene in z-order.
func (e *Engine) Shapes() []*shape.Shape {
	out := make([]*shape.Shape, len(e.shapes))
	for i, s := range e.shapes {
		out[i] = s.Clone()
	}
	return out
}

func (e *Engine) Len() int { return len(e.shapes) }

// ShapeByID returns a copy of the shape with id, or nil.
func (e *Engine) ShapeByID(id string) *shape.Shape {
	if s := e.find(id); s != nil {
		return s.Clone()
	}
	return nil
}

// Image returns a copy of the current frame.
func (e *Engine) Image() image.Image {
	return e.dc.Image()
}

// EncodePNG writes the current frame as PNG.
func (e *Engine) EncodePNG(w io.Writer) error {
	return e.dc.EncodePNG(w)
}

func (e *Engine) index(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range e.shapes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) find(id string) *shape.Shape {
	if i := e.index(id); i >= 0 {
		return e.shapes[i]
	}
	return nil
}
