package ui

import (
	"fmt"
	"log"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	sbcanvas "SketchBoard/internal/canvas"
	"SketchBoard/internal/game"
	"SketchBoard/internal/shape"
)

// BoardWidget shows the game's frame and feeds it pointer, wheel and key
// input. The frame is pulled from the game after each event that redrew.
type BoardWidget struct {
	widget.BaseWidget
	game   *game.Game
	image  *canvas.Image
	dirty  atomic.Bool
	window fyne.Window

	statusBar *widget.Label
	conn      atomic.Value // string
	// OnStatus is told about every status change, in addition to the bar.
	OnStatus func(string)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ fyne.Focusable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(g *game.Game) *BoardWidget {
	b := &BoardWidget{
		game:      g,
		statusBar: widget.NewLabel("Ready"),
	}
	b.conn.Store("offline")
	b.image = canvas.NewImageFromImage(g.Image())
	b.image.FillMode = canvas.ImageFillStretch
	g.Do(func(e *sbcanvas.Engine) {
		e.OnRedraw = func() { b.dirty.Store(true) }
	})
	g.OnTextRequest = b.askText
	g.OnSelectionChange = func(*shape.Shape) { b.dirty.Store(true) }
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) Game() *game.Game { return b.game }

// SetWindow gives the board a parent for its dialogs.
func (b *BoardWidget) SetWindow(w fyne.Window) { b.window = w }

func (b *BoardWidget) StatusBar() *widget.Label { return b.statusBar }

// Sync copies a new frame into the widget if the game redrew. It must run
// on the UI goroutine.
func (b *BoardWidget) Sync() {
	if !b.dirty.Swap(false) {
		return
	}
	b.image.Image = b.game.Image()
	b.image.Refresh()
	b.updateStatus()
}

// Apply hands an inbound payload to the game. Safe from any goroutine.
func (b *BoardWidget) Apply(payload string) {
	b.game.HandlePayload(payload)
	fyne.Do(b.Sync)
}

// SetConnection records the transport state shown in the status bar. Safe
// from any goroutine.
func (b *BoardWidget) SetConnection(state string) {
	b.conn.Store(state)
	fyne.Do(b.updateStatus)
}

// ConnectionLost is wired to the transport's close hook.
func (b *BoardWidget) ConnectionLost(err error) {
	log.Printf("[UI] Connection lost: %v", err)
	b.SetConnection("disconnected")
	fyne.Do(func() {
		if b.window == nil {
			return
		}
		dialog.ShowInformation("Disconnected",
			"The connection to the room was lost. Sign in again to keep drawing together;\nyour edits stay on this board meanwhile.", b.window)
	})
}

func (b *BoardWidget) updateStatus() {
	text := statusText(b.game.RoomID(), len(b.game.Shapes()), b.game.Viewport().Scale, b.conn.Load().(string), b.game.Selected())
	b.statusBar.SetText(text)
	if b.OnStatus != nil {
		b.OnStatus(text)
	}
}

func statusText(room string, shapes int, scale float64, conn string, sel *shape.Shape) string {
	text := fmt.Sprintf("room %s | %s | %d shapes | %.0f%%", room, conn, shapes, scale*100)
	if sel != nil {
		text += " | selected " + string(sel.Kind)
	}
	return text
}

func (b *BoardWidget) askText(sx, sy float64) {
	if b.window == nil {
		b.game.CancelText()
		return
	}
	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder("Text")
	d := dialog.NewCustomConfirm("Add text", "Add", "Cancel", entry, func(ok bool) {
		if ok {
			b.game.CommitText(entry.Text)
		} else {
			b.game.CancelText()
		}
		b.Sync()
	}, b.window)
	d.Resize(fyne.NewSize(320, 180))
	d.Show()
	b.window.Canvas().Focus(entry)
}

func (b *BoardWidget) focus() {
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Focus(b)
	}
}

func pos(p fyne.Position) (float64, float64) {
	return float64(p.X), float64(p.Y)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	b.focus()
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.game.PointerDown(pos(e.Position))
	b.Sync()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.game.PointerUp(pos(e.Position))
	b.Sync()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.game.PointerMove(pos(e.Position))
	b.Sync()
}

func (b *BoardWidget) DragEnd() {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.game.PointerMove(pos(e.Position))
	b.Sync()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}
func (b *BoardWidget) MouseOut()                   {}

// Scrolled pans, or zooms about the pointer while Ctrl or Cmd is held.
func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	zoom := false
	if d, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
		mods := d.CurrentKeyModifiers()
		zoom = mods&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0
	}
	sx, sy := pos(e.Position)
	b.game.Wheel(float64(e.Scrolled.DX), float64(e.Scrolled.DY), sx, sy, zoom)
	b.Sync()
}

func (b *BoardWidget) FocusGained() {}
func (b *BoardWidget) FocusLost()   {}

func (b *BoardWidget) TypedRune(r rune) {
	if t, ok := game.ToolForKey(r); ok {
		b.game.SetTool(t)
	}
}

func (b *BoardWidget) TypedKey(e *fyne.KeyEvent) {
	b.game.KeyDown(string(e.Name))
	b.Sync()
}

func (b *BoardWidget) ZoomIn() {
	b.zoomCenter(1)
}

func (b *BoardWidget) ZoomOut() {
	b.zoomCenter(-1)
}

func (b *BoardWidget) zoomCenter(dir float64) {
	size := b.Size()
	b.game.Wheel(0, dir, float64(size.Width)/2, float64(size.Height)/2, true)
	b.Sync()
}

func (b *BoardWidget) ResetView() {
	b.game.ResetView()
	b.Sync()
}

func (b *BoardWidget) ToggleGrid() {
	b.game.Do(func(e *sbcanvas.Engine) {
		if e.Grid > 0 {
			e.SetGrid(0)
		} else {
			e.SetGrid(sbcanvas.DefaultGrid)
		}
	})
	b.Sync()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{board: b}
}

type boardWidgetRenderer struct {
	board *BoardWidget
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.board.image}
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.board.image.Resize(size)
	if err := r.board.game.Resize(int(size.Width), int(size.Height)); err != nil {
		log.Printf("[UI] Resizing board to %v: %v", size, err)
	}
	r.board.Sync()
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Refresh() {
	r.board.dirty.Store(true)
	r.board.Sync()
}

func (r *boardWidgetRenderer) Destroy() {}
