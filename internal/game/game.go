// Package game turns pointer and keyboard input into scene edits and keeps
// the local scene converged with the room. Every local edit is applied to
// the canvas engine first and then broadcast; inbound payloads go through
// HandlePayload.
package game

import (
	"context"
	"image"
	"log"
	"math"
	"sync"
	"unicode"

	"SketchBoard/internal/canvas"
	"SketchBoard/internal/shape"
	"SketchBoard/internal/state"
)

type Tool string

const (
	ToolSelect  Tool = "select"
	ToolRect    Tool = "rect"
	ToolEllipse Tool = "ellipse"
	ToolLine    Tool = "line"
	ToolArrow   Tool = "arrow"
	ToolPencil  Tool = "pencil"
	ToolDiamond Tool = "diamond"
	ToolText    Tool = "text"
	ToolEraser  Tool = "eraser"
	ToolHand    Tool = "hand"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolHand, ToolRect, ToolDiamond, ToolEllipse, ToolArrow, ToolLine, ToolPencil, ToolText, ToolEraser}

// Kind is the shape kind a drawing tool creates.
func (t Tool) Kind() (shape.Kind, bool) {
	switch t {
	case ToolRect, ToolEllipse, ToolLine, ToolArrow, ToolPencil, ToolDiamond, ToolText:
		return shape.Kind(t), true
	}
	return "", false
}

var toolKeys = map[rune]Tool{
	'v': ToolSelect, '1': ToolSelect,
	'h': ToolHand,
	'r': ToolRect, '2': ToolRect,
	'd': ToolDiamond, '3': ToolDiamond,
	'o': ToolEllipse, '4': ToolEllipse,
	'a': ToolArrow, '5': ToolArrow,
	'l': ToolLine, '6': ToolLine,
	'p': ToolPencil, '7': ToolPencil,
	't': ToolText, '8': ToolText,
	'e': ToolEraser, '0': ToolEraser,
}

// ToolForKey maps a keyboard shortcut to its tool.
func ToolForKey(r rune) (Tool, bool) {
	t, ok := toolKeys[unicode.ToLower(r)]
	return t, ok
}

const (
	// commitThreshold is the drag distance in screen pixels below which a
	// gesture is treated as a click.
	commitThreshold = 2.0
	// minPointDistSq filters freehand samples closer than 2px to the last one.
	minPointDistSq = 4.0
	zoomStep       = 1.1
)

// Sender carries encoded payloads to the room.
type Sender interface {
	Send(payload string) error
}

// HistoryFetcher returns a room's persisted payloads in log order.
type HistoryFetcher interface {
	Fetch(ctx context.Context, roomID string) ([]string, error)
}

type Game struct {
	mu     sync.Mutex
	engine *canvas.Engine
	sender Sender
	roomID string

	tool   Tool
	style  shape.Style
	erased map[string]struct{}

	mouseDown bool
	startX    float64
	startY    float64
	points    []shape.Point

	dragID string
	dragDX float64
	dragDY float64
	moved  bool

	resizeID string
	handle   shape.Handle
	// resizeDX/DY carry the pointer's offset from the edge it grabbed, so
	// the edge keeps its distance from the pointer.
	resizeDX float64
	resizeDY float64

	erasing bool

	panning bool
	lastSX  float64
	lastSY  float64

	pendingText *shape.Point

	// touched collects ids written while a history fetch is in flight.
	touched map[string]struct{}

	// OnToolChange fires whenever the active tool changes.
	OnToolChange func(Tool)
	// OnTextRequest asks the UI for text to place at a screen position.
	// The answer comes back through CommitText or CancelText.
	OnTextRequest func(sx, sy float64)
	// OnSelectionChange reports the selected shape, nil when cleared.
	OnSelectionChange func(*shape.Shape)
}

// New wires a game to an engine. sender may be nil for an offline board.
func New(engine *canvas.Engine, sender Sender, roomID string) *Game {
	return &Game{
		engine: engine,
		sender: sender,
		roomID: roomID,
		tool:   ToolSelect,
		style:  shape.DefaultStyle(),
		erased: make(map[string]struct{}),
	}
}

// SetSender swaps the outbound transport, nil to go offline.
func (g *Game) SetSender(s Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sender = s
}

func (g *Game) RoomID() string { return g.roomID }

func (g *Game) Tool() Tool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tool
}

// SetTool changes the active tool. The selection is kept.
func (g *Game) SetTool(t Tool) {
	g.mu.Lock()
	changed := g.setToolLocked(t)
	g.mu.Unlock()
	if changed && g.OnToolChange != nil {
		g.OnToolChange(t)
	}
}

func (g *Game) setToolLocked(t Tool) bool {
	if g.tool == t {
		return false
	}
	g.cancelGestureLocked()
	g.tool = t
	return true
}

func (g *Game) Style() shape.Style {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.style
}

// SetStyle sets the style used for new shapes.
func (g *Game) SetStyle(st shape.Style) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.style = st.WithDefaults()
}

// Selected returns a copy of the selected shape, or nil.
func (g *Game) Selected() *shape.Shape {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Selected()
}

func (g *Game) Shapes() []*shape.Shape {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Shapes()
}

func (g *Game) Viewport() canvas.Viewport {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Viewport()
}

// Do runs fn with exclusive access to the engine.
func (g *Game) Do(fn func(e *canvas.Engine)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.engine)
}

func (g *Game) PointerDown(sx, sy float64) {
	g.mu.Lock()
	var textAt *shape.Point
	prevSel := g.engine.SelectedID()
	g.pointerDownLocked(sx, sy)
	if g.pendingText != nil && g.tool == ToolText {
		textAt = &shape.Point{X: sx, Y: sy}
	}
	g.mu.Unlock()

	g.notifySelection(prevSel)
	if textAt != nil && g.OnTextRequest != nil {
		g.OnTextRequest(textAt.X, textAt.Y)
	}
}

func (g *Game) pointerDownLocked(sx, sy float64) {
	g.mouseDown = true
	g.startX, g.startY = sx, sy
	g.lastSX, g.lastSY = sx, sy
	cx, cy := g.engine.ScreenToCanvas(sx, sy)

	if g.tool != ToolEraser && g.tool != ToolHand && g.tool != ToolText {
		if sel := g.engine.Selected(); sel != nil {
			if h, ok := g.engine.GetHandleAtPoint(sel, cx, cy); ok {
				a := sel.Bounds().HandlePoint(h)
				g.resizeID = sel.ID
				g.handle = h
				g.resizeDX, g.resizeDY = a.X-cx, a.Y-cy
				g.moved = false
				return
			}
		}
	}

	switch g.tool {
	case ToolSelect:
		hit := g.engine.FindShapeUnderPoint(sx, sy)
		if hit == nil {
			g.engine.Select("")
			return
		}
		g.engine.Select(hit.ID)
		o := hit.Origin()
		g.dragID = hit.ID
		g.dragDX, g.dragDY = cx-o.X, cy-o.Y
		g.moved = false
	case ToolHand:
		g.panning = true
	case ToolEraser:
		g.erasing = true
		g.eraseAtLocked(sx, sy)
	case ToolPencil:
		g.points = []shape.Point{{X: cx, Y: cy}}
	case ToolText:
		g.mouseDown = false
		g.pendingText = &shape.Point{X: cx, Y: cy}
	}
}

func (g *Game) PointerMove(sx, sy float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mouseDown {
		return
	}
	cx, cy := g.engine.ScreenToCanvas(sx, sy)

	switch {
	case g.resizeID != "":
		s := g.engine.ShapeByID(g.resizeID)
		if s == nil {
			g.resizeID = ""
			return
		}
		s.Resize(g.handle, cx+g.resizeDX, cy+g.resizeDY)
		g.moved = g.engine.UpdateShape(s) || g.moved
	case g.dragID != "":
		s := g.engine.ShapeByID(g.dragID)
		if s == nil {
			g.dragID = ""
			return
		}
		o := s.Origin()
		dx, dy := cx-g.dragDX-o.X, cy-g.dragDY-o.Y
		if dx == 0 && dy == 0 {
			return
		}
		s.Translate(dx, dy)
		g.engine.UpdateShape(s)
		g.moved = true
	case g.panning:
		g.engine.Pan(sx-g.lastSX, sy-g.lastSY)
	case g.erasing:
		g.eraseAtLocked(sx, sy)
	case g.tool == ToolPencil && len(g.points) > 0:
		last := g.points[len(g.points)-1]
		if dx, dy := cx-last.X, cy-last.Y; dx*dx+dy*dy > minPointDistSq {
			g.points = append(g.points, shape.Point{X: cx, Y: cy})
			g.engine.SetPreview(shape.NewFreehand(g.points, g.style))
		}
	default:
		kind, ok := g.tool.Kind()
		if !ok {
			return
		}
		x0, y0 := g.engine.ScreenToCanvas(g.startX, g.startY)
		if p := shape.FromDrag(kind, x0, y0, cx, cy, g.style); p != nil {
			g.engine.SetPreview(p)
		}
	}
	g.lastSX, g.lastSY = sx, sy
}

func (g *Game) PointerUp(sx, sy float64) {
	g.mu.Lock()
	var toolChanged bool
	prevSel := g.engine.SelectedID()
	if g.mouseDown {
		toolChanged = g.pointerUpLocked(sx, sy)
	}
	tool := g.tool
	g.mu.Unlock()

	g.notifySelection(prevSel)
	if toolChanged && g.OnToolChange != nil {
		g.OnToolChange(tool)
	}
}

func (g *Game) pointerUpLocked(sx, sy float64) bool {
	defer g.resetGestureLocked()

	switch {
	case g.resizeID != "":
		if g.moved {
			g.broadcastShapeLocked(g.resizeID)
		}
		return false
	case g.dragID != "":
		if g.moved {
			g.broadcastShapeLocked(g.dragID)
		}
		return false
	case g.panning, g.erasing:
		return false
	}

	kind, ok := g.tool.Kind()
	if !ok || kind == shape.KindText {
		return false
	}
	g.engine.SetPreview(nil)

	var s *shape.Shape
	if kind == shape.KindFreehand {
		s = g.freehandLocked()
	} else {
		s = g.dragShapeLocked(kind, sx, sy)
	}
	if s == nil {
		return false
	}
	g.commitLocked(s)
	return g.setToolLocked(ToolSelect)
}

func (g *Game) freehandLocked() *shape.Shape {
	if len(g.points) < 2 {
		return nil
	}
	first := g.points[0]
	far := 0.0
	for _, p := range g.points[1:] {
		far = math.Max(far, math.Hypot(p.X-first.X, p.Y-first.Y))
	}
	if far*g.engine.Scale() <= commitThreshold {
		return nil
	}
	return shape.NewFreehand(g.points, g.style)
}

// dragShapeLocked builds the shape for a finished drag, or nil for a click.
// Box kinds need both axes past the threshold; segments need either.
func (g *Game) dragShapeLocked(kind shape.Kind, sx, sy float64) *shape.Shape {
	w, h := math.Abs(sx-g.startX), math.Abs(sy-g.startY)
	if kind.IsLinear() {
		if w <= commitThreshold && h <= commitThreshold {
			return nil
		}
	} else if w <= commitThreshold || h <= commitThreshold {
		return nil
	}
	x0, y0 := g.engine.ScreenToCanvas(g.startX, g.startY)
	x1, y1 := g.engine.ScreenToCanvas(sx, sy)
	return shape.FromDrag(kind, x0, y0, x1, y1, g.style)
}

func (g *Game) commitLocked(s *shape.Shape) {
	added := g.engine.AddShape(s)
	g.touchLocked(added.ID)
	log.Printf("[GAME] Added %s %s", added.Kind, added.ID)
	g.broadcastLocked(state.Upsert(added))
}

func (g *Game) eraseAtLocked(sx, sy float64) {
	hit := g.engine.FindShapeUnderPoint(sx, sy)
	if hit == nil {
		return
	}
	g.eraseLocked(hit.ID)
}

func (g *Game) eraseLocked(id string) {
	if !g.engine.EraseShapeById(id) {
		return
	}
	g.erased[id] = struct{}{}
	log.Printf("[GAME] Erased %s", id)
	g.broadcastLocked(state.Erase(id))
}

// cancelGestureLocked abandons the gesture in progress. A drag or resize
// has already been applied locally, so it is broadcast as it stands.
func (g *Game) cancelGestureLocked() {
	if g.moved {
		switch {
		case g.resizeID != "":
			g.broadcastShapeLocked(g.resizeID)
		case g.dragID != "":
			g.broadcastShapeLocked(g.dragID)
		}
	}
	g.resetGestureLocked()
}

func (g *Game) resetGestureLocked() {
	g.mouseDown = false
	g.points = nil
	g.dragID = ""
	g.resizeID = ""
	g.moved = false
	g.erasing = false
	g.panning = false
	g.engine.SetPreview(nil)
}

// CommitText places text at the position of the last text-tool click.
// Blank text is discarded.
func (g *Game) CommitText(text string) *shape.Shape {
	g.mu.Lock()
	at := g.pendingText
	g.pendingText = nil
	if at == nil || text == "" {
		g.mu.Unlock()
		return nil
	}
	s := shape.NewText(at.X, at.Y, text, g.style)
	g.commitLocked(s)
	changed := g.setToolLocked(ToolSelect)
	id := s.ID
	g.mu.Unlock()

	if changed && g.OnToolChange != nil {
		g.OnToolChange(ToolSelect)
	}
	return g.shapeByID(id)
}

func (g *Game) CancelText() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pendingText = nil
}

func (g *Game) shapeByID(id string) *shape.Shape {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.ShapeByID(id)
}

// UpdateSelectedShapeStyle applies a style edit to the selected shape and
// broadcasts the result. It reports whether anything changed.
func (g *Game) UpdateSelectedShapeStyle(p shape.Patch) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.engine.Selected()
	if s == nil || !p.Apply(s) {
		return false
	}
	if !g.engine.UpdateShape(s) {
		return false
	}
	g.broadcastShapeLocked(s.ID)
	return true
}

// KeyDown handles the board's key bindings: Delete and BackSpace erase the
// selection, Escape abandons the current gesture and clears the selection.
func (g *Game) KeyDown(key string) {
	g.mu.Lock()
	prevSel := g.engine.SelectedID()
	switch key {
	case "Delete", "BackSpace":
		if id := g.engine.SelectedID(); id != "" {
			g.eraseLocked(id)
		}
	case "Escape":
		g.cancelGestureLocked()
		g.pendingText = nil
		g.engine.Select("")
	}
	g.mu.Unlock()
	g.notifySelection(prevSel)
}

// Wheel zooms about the pointer when zoom is set and pans otherwise.
func (g *Game) Wheel(dx, dy, sx, sy float64, zoom bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !zoom {
		g.engine.Pan(dx, dy)
		return
	}
	switch {
	case dy > 0:
		g.engine.ZoomAt(zoomStep, sx, sy)
	case dy < 0:
		g.engine.ZoomAt(1/zoomStep, sx, sy)
	}
}

// ResetView returns to 100% with no pan.
func (g *Game) ResetView() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engine.SetScale(1)
	g.engine.SetOffset(0, 0)
}

// HandlePayload applies one inbound replication payload. Malformed
// payloads are logged and dropped. Upserts for ids erased during this
// session are ignored.
func (g *Game) HandlePayload(raw string) {
	m, err := state.DecodePayload(raw)
	if err != nil {
		log.Printf("[GAME] Dropping inbound payload: %v", err)
		return
	}

	g.mu.Lock()
	prevSel := g.engine.SelectedID()
	g.applyLocked(m)
	g.mu.Unlock()
	g.notifySelection(prevSel)
}

func (g *Game) applyLocked(m state.Message) {
	if m.IsErase() {
		g.erased[m.EraseID] = struct{}{}
		g.engine.EraseShapeById(m.EraseID)
		return
	}
	if _, gone := g.erased[m.Shape.ID]; gone {
		log.Printf("[GAME] Ignoring upsert for erased %s", m.Shape.ID)
		return
	}
	if !g.engine.UpdateShape(m.Shape) {
		g.engine.AddShape(m.Shape)
	}
	g.touchLocked(m.Shape.ID)
}

func (g *Game) touchLocked(id string) {
	if g.touched != nil {
		g.touched[id] = struct{}{}
	}
}

// LoadHistory replays the room log into the scene. The fetch runs without
// holding the game, so drawing and live traffic continue meanwhile; a shape
// written in that window keeps its newer version over the logged one. A
// failed fetch leaves the scene as it is.
func (g *Game) LoadHistory(ctx context.Context, f HistoryFetcher) (int, error) {
	g.mu.Lock()
	if g.touched == nil {
		g.touched = make(map[string]struct{})
	}
	g.mu.Unlock()

	payloads, err := f.Fetch(ctx, g.roomID)
	if err != nil {
		g.mu.Lock()
		g.touched = nil
		g.mu.Unlock()
		log.Printf("[HISTORY] Fetching %s failed, starting empty: %v", g.roomID, err)
		return 0, err
	}
	board := state.ReplayBoard(payloads)

	g.mu.Lock()
	defer g.mu.Unlock()
	touched := g.touched
	g.touched = nil

	for _, id := range board.Tombstones() {
		g.erased[id] = struct{}{}
	}
	merged := make([]*shape.Shape, 0, board.Len())
	seen := make(map[string]bool)
	for _, s := range board.Shapes() {
		if _, gone := g.erased[s.ID]; gone {
			continue
		}
		seen[s.ID] = true
		if _, live := touched[s.ID]; live {
			if cur := g.engine.ShapeByID(s.ID); cur != nil {
				s = cur
			}
		}
		merged = append(merged, s)
	}
	for _, s := range g.engine.Shapes() {
		if _, gone := g.erased[s.ID]; gone || seen[s.ID] {
			continue
		}
		merged = append(merged, s)
	}
	g.engine.SetShapes(merged)
	log.Printf("[HISTORY] Replayed %d payloads into %d shapes for %s", len(payloads), len(merged), g.roomID)
	return len(merged), nil
}

// LoadShapes upserts shapes from a snapshot and broadcasts each, so the
// room picks them up too. Erased ids are skipped.
func (g *Game) LoadShapes(shapes []*shape.Shape) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range shapes {
		if _, gone := g.erased[s.ID]; gone {
			continue
		}
		if !g.engine.UpdateShape(s) {
			g.engine.AddShape(s)
		}
		g.broadcastShapeLocked(s.ID)
		n++
	}
	return n
}

// Image returns a copy of the current frame.
func (g *Game) Image() image.Image {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Image()
}

// Resize changes the frame size.
func (g *Game) Resize(width, height int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.Resize(width, height)
}

func (g *Game) broadcastShapeLocked(id string) {
	g.touchLocked(id)
	if s := g.engine.ShapeByID(id); s != nil {
		g.broadcastLocked(state.Upsert(s))
	}
}

func (g *Game) broadcastLocked(m state.Message) {
	if g.sender == nil {
		return
	}
	payload, err := state.EncodePayload(m)
	if err != nil {
		log.Printf("[GAME] Encoding %s: %v", m.ID(), err)
		return
	}
	if err := g.sender.Send(payload); err != nil {
		log.Printf("[NET] Sending %s: %v", m.ID(), err)
	}
}

func (g *Game) notifySelection(prev string) {
	if g.OnSelectionChange == nil {
		return
	}
	g.mu.Lock()
	cur := g.engine.Selected()
	g.mu.Unlock()
	id := ""
	if cur != nil {
		id = cur.ID
	}
	if id != prev {
		g.OnSelectionChange(cur)
	}
}
