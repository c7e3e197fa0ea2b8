package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SketchBoard/internal/canvas"
	"SketchBoard/internal/shape"
	"SketchBoard/internal/state"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return nil
}

func (f *fakeSender) messages(t *testing.T) []state.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]state.Message, 0, len(f.sent))
	for _, p := range f.sent {
		m, err := state.DecodePayload(p)
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

type fetcher struct {
	payloads []string
	err      error
}

func (f fetcher) Fetch(context.Context, string) ([]string, error) {
	return f.payloads, f.err
}

func newGame(t *testing.T) (*Game, *fakeSender) {
	t.Helper()
	e, err := canvas.NewEngine(800, 600)
	require.NoError(t, err)
	s := &fakeSender{}
	return New(e, s, "room"), s
}

func drag(g *Game, tool Tool, x0, y0, x1, y1 float64) {
	g.SetTool(tool)
	g.PointerDown(x0, y0)
	g.PointerMove(x1, y1)
	g.PointerUp(x1, y1)
}

func click(g *Game, x, y float64) {
	g.PointerDown(x, y)
	g.PointerUp(x, y)
}

func rect(id string, x, y, w, h float64) *shape.Shape {
	s := &shape.Shape{Kind: shape.KindRect, X: x, Y: y, Width: w, Height: h}
	shape.DefaultStyle().Apply(s)
	s.ID = id
	return s
}

func encode(t *testing.T, m state.Message) string {
	t.Helper()
	p, err := state.EncodePayload(m)
	require.NoError(t, err)
	return p
}

func TestDragCreatesRectangle(t *testing.T) {
	g, sender := newGame(t)
	var tools []Tool
	g.OnToolChange = func(tl Tool) { tools = append(tools, tl) }

	drag(g, ToolRect, 10, 10, 110, 60)

	shapes := g.Shapes()
	require.Len(t, shapes, 1)
	s := shapes[0]
	assert.Equal(t, shape.KindRect, s.Kind)
	assert.Equal(t, []float64{10, 10, 100, 50}, []float64{s.X, s.Y, s.Width, s.Height})
	assert.Equal(t, "#ffffff", s.StrokeColor)
	assert.Equal(t, 2.0, s.StrokeWidth)
	assert.NotEmpty(t, s.ID)

	assert.Equal(t, ToolSelect, g.Tool(), "commits return to select")
	assert.Equal(t, []Tool{ToolRect, ToolSelect}, tools)

	sent := sender.messages(t)
	require.Len(t, sent, 1)
	assert.Equal(t, s, sent[0].Shape)

	hit := g.engine.FindShapeUnderPoint(60, 35)
	require.NotNil(t, hit)
	assert.Equal(t, s.ID, hit.ID)
	assert.Nil(t, g.engine.FindShapeUnderPoint(500, 500))
}

func TestClickDoesNotCreate(t *testing.T) {
	g, sender := newGame(t)
	drag(g, ToolRect, 10, 10, 11, 11)

	assert.Empty(t, g.Shapes())
	assert.Empty(t, sender.sent)
	assert.Equal(t, ToolRect, g.Tool())

	drag(g, ToolRect, 10, 10, 50, 11)
	assert.Empty(t, g.Shapes(), "boxes need both axes past the threshold")

	drag(g, ToolLine, 10, 10, 50, 11)
	assert.Len(t, g.Shapes(), 1, "segments need only one")
}

func TestEraseBroadcastsTombstone(t *testing.T) {
	g, sender := newGame(t)
	drag(g, ToolRect, 10, 10, 110, 60)
	id := g.Shapes()[0].ID

	click(g, 60, 35)
	require.NotNil(t, g.Selected())
	assert.Len(t, sender.sent, 1, "a click without movement sends nothing")

	g.SetTool(ToolEraser)
	click(g, 60, 35)

	assert.Empty(t, g.Shapes())
	assert.Nil(t, g.Selected())
	require.Len(t, sender.sent, 2)
	assert.JSONEq(t, `{"eraseId":"`+id+`"}`, sender.sent[1])
}

func TestEraserSweepsWhileHeld(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Upsert(rect("a", 0, 0, 40, 40))))
	g.HandlePayload(encode(t, state.Upsert(rect("b", 200, 0, 40, 40))))

	g.SetTool(ToolEraser)
	g.PointerDown(20, 20)
	g.PointerMove(120, 20)
	g.PointerMove(220, 20)
	g.PointerUp(220, 20)
	g.PointerMove(20, 20)

	assert.Empty(t, g.Shapes())
	msgs := sender.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].EraseID)
	assert.Equal(t, "b", msgs[1].EraseID)
}

func TestRemoteTombstoneIsFinal(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Upsert(rect("r1", 0, 0, 20, 20))))
	require.Len(t, g.Shapes(), 1)

	g.HandlePayload(encode(t, state.Erase("r1")))
	assert.Empty(t, g.Shapes())

	g.HandlePayload(encode(t, state.Upsert(rect("r1", 5, 0, 20, 20))))
	assert.Empty(t, g.Shapes(), "late upsert does not resurrect")
	assert.Empty(t, sender.sent, "inbound traffic is not echoed")
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	g, _ := newGame(t)
	g.HandlePayload("garbage")
	g.HandlePayload(`{"other":1}`)
	g.HandlePayload(`{"shape":{"id":"x","type":"rect","width":0,"height":5}}`)
	assert.Empty(t, g.Shapes())

	g.HandlePayload(encode(t, state.Upsert(rect("ok", 0, 0, 20, 20))))
	assert.Len(t, g.Shapes(), 1)
}

func TestUpsertIsIdempotent(t *testing.T) {
	once, _ := newGame(t)
	twice, _ := newGame(t)
	p := encode(t, state.Upsert(rect("a", 3, 4, 20, 20)))

	once.HandlePayload(p)
	twice.HandlePayload(p)
	twice.HandlePayload(p)
	assert.Equal(t, once.Shapes(), twice.Shapes())

	twice.HandlePayload(encode(t, state.Upsert(rect("a", 9, 4, 20, 20))))
	require.Len(t, twice.Shapes(), 1)
	assert.Equal(t, 9.0, twice.Shapes()[0].X, "last arrival wins")
}

func TestDragMovesAndBroadcastsOnce(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Upsert(rect("a", 10, 10, 100, 50))))

	g.PointerDown(60, 35)
	g.PointerMove(70, 45)
	g.PointerMove(80, 55)
	g.PointerUp(80, 55)

	s := g.Shapes()[0]
	assert.Equal(t, []float64{30, 30}, []float64{s.X, s.Y})
	msgs := sender.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, 30.0, msgs[0].Shape.X)
	assert.Equal(t, "a", g.Selected().ID)
}

func TestResizeFromHandle(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Upsert(rect("a", 10, 10, 100, 50))))
	click(g, 60, 35)

	// bottom-right handle sits outside the body by the handle margin; the
	// corner follows the pointer at that same distance
	g.PointerDown(116, 66)
	g.PointerMove(117, 67)
	s := g.Shapes()[0]
	assert.Equal(t, []float64{10, 10, 101, 51}, []float64{s.X, s.Y, s.Width, s.Height}, "no jump on grab")

	g.PointerMove(156, 86)
	g.PointerUp(156, 86)

	s = g.Shapes()[0]
	assert.Equal(t, []float64{10, 10, 140, 70}, []float64{s.X, s.Y, s.Width, s.Height})
	msgs := sender.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, 140.0, msgs[0].Shape.Width)
	assert.Equal(t, 1, g.engine.Len(), "no new shape started")
}

func TestFreehandFiltersCloseSamples(t *testing.T) {
	g, sender := newGame(t)
	g.SetTool(ToolPencil)
	g.PointerDown(10, 10)
	g.PointerMove(11, 10)
	g.PointerMove(20, 10)
	g.PointerMove(21, 11)
	g.PointerMove(30, 20)
	g.PointerUp(30, 20)

	shapes := g.Shapes()
	require.Len(t, shapes, 1)
	assert.Equal(t, shape.KindFreehand, shapes[0].Kind)
	assert.Equal(t, []shape.Point{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 30, Y: 20}}, shapes[0].Points)
	assert.Len(t, sender.sent, 1)
	assert.Equal(t, ToolSelect, g.Tool())
}

func TestFreehandDotIsDiscarded(t *testing.T) {
	g, sender := newGame(t)
	g.SetTool(ToolPencil)
	g.PointerDown(10, 10)
	g.PointerMove(11, 11)
	g.PointerUp(11, 11)

	assert.Empty(t, g.Shapes())
	assert.Empty(t, sender.sent)
	assert.Equal(t, ToolPencil, g.Tool())
}

func TestTextCommit(t *testing.T) {
	g, sender := newGame(t)
	var asked []float64
	g.OnTextRequest = func(sx, sy float64) { asked = []float64{sx, sy} }

	g.SetTool(ToolText)
	click(g, 40, 50)
	assert.Equal(t, []float64{40, 50}, asked)

	s := g.CommitText("hello")
	require.NotNil(t, s)
	assert.Equal(t, shape.KindText, s.Kind)
	assert.Equal(t, "hello", s.Text)
	assert.Equal(t, []float64{40, 50}, []float64{s.X, s.Y})
	assert.Equal(t, ToolSelect, g.Tool())
	assert.Len(t, sender.sent, 1)

	g.SetTool(ToolText)
	click(g, 10, 10)
	g.CancelText()
	assert.Nil(t, g.CommitText("late"))
	assert.Nil(t, g.CommitText(""))
	assert.Len(t, g.Shapes(), 1)
}

func TestUpdateSelectedShapeStyle(t *testing.T) {
	g, sender := newGame(t)
	r := rect("a", 10, 10, 100, 50)
	r.FillColor = "#ff0000"
	r.FillStyle = shape.FillHachure
	g.HandlePayload(encode(t, state.Upsert(r)))

	artist := shape.RoughArtist
	assert.False(t, g.UpdateSelectedShapeStyle(shape.Patch{RoughStyle: &artist}), "nothing selected")

	click(g, 60, 35)
	require.True(t, g.UpdateSelectedShapeStyle(shape.Patch{RoughStyle: &artist}))

	s := g.Selected()
	assert.Equal(t, shape.RoughArtist, s.RoughStyle)
	assert.Equal(t, shape.DefaultFillStyle, s.FillStyle, "rough change resets the fill")
	msgs := sender.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, s, msgs[0].Shape)

	assert.False(t, g.UpdateSelectedShapeStyle(shape.Patch{RoughStyle: &artist}), "unchanged")
	assert.Len(t, sender.sent, 1)
}

func TestLoadHistoryMergesAndRemembersTombstones(t *testing.T) {
	g, sender := newGame(t)
	drag(g, ToolRect, 300, 300, 400, 400)
	local := g.Shapes()[0].ID

	n, err := g.LoadHistory(context.Background(), fetcher{payloads: []string{
		encode(t, state.Upsert(rect("A", 0, 0, 20, 20))),
		encode(t, state.Erase("B")),
		encode(t, state.Upsert(rect("B", 0, 0, 20, 20))),
		"garbage",
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids := []string{}
	for _, s := range g.Shapes() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"A", local}, ids)

	g.HandlePayload(encode(t, state.Upsert(rect("B", 0, 0, 20, 20))))
	assert.Len(t, g.Shapes(), 2, "history tombstones hold for live traffic")
	assert.Len(t, sender.sent, 1, "history is not rebroadcast")
}

type liveFetcher struct {
	during  func()
	history []string
}

func (f liveFetcher) Fetch(context.Context, string) ([]string, error) {
	f.during()
	return f.history, nil
}

func TestLoadHistoryKeepsWritesMadeDuringFetch(t *testing.T) {
	g, _ := newGame(t)
	n, err := g.LoadHistory(context.Background(), liveFetcher{
		during: func() {
			g.HandlePayload(encode(t, state.Upsert(rect("A", 50, 0, 20, 20))))
			drag(g, ToolRect, 300, 300, 400, 400)
		},
		history: []string{
			encode(t, state.Upsert(rect("A", 0, 0, 20, 20))),
			encode(t, state.Upsert(rect("B", 5, 5, 20, 20))),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	shapes := g.Shapes()
	require.Len(t, shapes, 3)
	assert.Equal(t, "A", shapes[0].ID)
	assert.Equal(t, 50.0, shapes[0].X, "live upsert beats the logged copy")
	assert.Equal(t, "B", shapes[1].ID)

	// once loaded, later history calls start from a clean slate
	_, err = g.LoadHistory(context.Background(), fetcher{payloads: []string{
		encode(t, state.Upsert(rect("A", 7, 0, 20, 20))),
	}})
	require.NoError(t, err)
	assert.Equal(t, 7.0, g.Shapes()[0].X)
}

func TestEscapeMidDragBroadcastsPosition(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Upsert(rect("a", 10, 10, 100, 50))))

	g.PointerDown(60, 35)
	g.PointerMove(160, 135)
	g.KeyDown("Escape")
	g.PointerUp(160, 135)

	s := g.Shapes()[0]
	assert.Equal(t, []float64{110, 110}, []float64{s.X, s.Y})
	msgs := sender.messages(t)
	require.Len(t, msgs, 1, "the room sees where the shape ended up")
	assert.Equal(t, 110.0, msgs[0].Shape.X)
	assert.Nil(t, g.Selected())
}

func TestToolSwitchMidResizeBroadcastsSize(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Upsert(rect("a", 10, 10, 100, 50))))
	click(g, 60, 35)

	g.PointerDown(116, 66)
	g.PointerMove(156, 86)
	g.SetTool(ToolPencil)
	g.PointerUp(156, 86)

	msgs := sender.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, []float64{140, 70}, []float64{msgs[0].Shape.Width, msgs[0].Shape.Height})
	assert.Equal(t, msgs[0].Shape, g.Shapes()[0])

	g.SetTool(ToolSelect)
	assert.Len(t, sender.sent, 1, "an idle tool switch sends nothing")
}

func TestLoadHistoryFailureKeepsBoardUsable(t *testing.T) {
	g, _ := newGame(t)
	_, err := g.LoadHistory(context.Background(), fetcher{err: errors.New("503")})
	assert.Error(t, err)
	assert.Empty(t, g.Shapes())

	drag(g, ToolEllipse, 10, 10, 60, 60)
	assert.Len(t, g.Shapes(), 1)
}

func TestKeyBindings(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Upsert(rect("a", 10, 10, 100, 50))))
	g.HandlePayload(encode(t, state.Upsert(rect("b", 300, 10, 100, 50))))

	var selections []*shape.Shape
	g.OnSelectionChange = func(s *shape.Shape) { selections = append(selections, s) }

	click(g, 60, 35)
	g.KeyDown("Escape")
	assert.Nil(t, g.Selected())

	click(g, 60, 35)
	g.KeyDown("Delete")
	require.Len(t, g.Shapes(), 1)
	assert.Equal(t, "b", g.Shapes()[0].ID)
	require.Len(t, sender.sent, 1)
	assert.JSONEq(t, `{"eraseId":"a"}`, sender.sent[0])

	g.KeyDown("BackSpace")
	assert.Len(t, g.Shapes(), 1, "nothing selected")

	require.Len(t, selections, 4)
	assert.Equal(t, "a", selections[0].ID)
	assert.Nil(t, selections[1])
	assert.Nil(t, selections[3])
}

func TestWheelZoomsAboutPointer(t *testing.T) {
	g, _ := newGame(t)
	g.Wheel(0, 1, 100, 100, true)

	assert.InDelta(t, 1.1, g.Viewport().Scale, 1e-9)
	var cx, cy float64
	g.Do(func(e *canvas.Engine) { cx, cy = e.ScreenToCanvas(100, 100) })
	assert.InDelta(t, 100, cx, 1e-9)
	assert.InDelta(t, 100, cy, 1e-9)

	g.Wheel(0, -1, 100, 100, true)
	assert.InDelta(t, 1.0, g.Viewport().Scale, 1e-9)

	g.ResetView()
	g.Wheel(5, -3, 0, 0, false)
	assert.Equal(t, canvas.Viewport{Scale: 1, OffsetX: 5, OffsetY: -3}, g.Viewport())
}

func TestHandToolPans(t *testing.T) {
	g, sender := newGame(t)
	drag(g, ToolHand, 0, 0, 10, 5)

	v := g.Viewport()
	assert.Equal(t, []float64{10, 5}, []float64{v.OffsetX, v.OffsetY})
	assert.Equal(t, ToolHand, g.Tool())
	assert.Empty(t, sender.sent)
}

func TestLoadShapesBroadcasts(t *testing.T) {
	g, sender := newGame(t)
	g.HandlePayload(encode(t, state.Erase("gone")))

	n := g.LoadShapes([]*shape.Shape{rect("a", 0, 0, 20, 20), rect("gone", 0, 0, 20, 20)})
	assert.Equal(t, 1, n)
	assert.Len(t, g.Shapes(), 1)
	assert.Len(t, sender.sent, 1)
}

func TestOfflineGameDraws(t *testing.T) {
	e, err := canvas.NewEngine(100, 100)
	require.NoError(t, err)
	g := New(e, nil, "solo")
	drag(g, ToolDiamond, 10, 10, 60, 60)
	assert.Len(t, g.Shapes(), 1)
}

func TestToolForKey(t *testing.T) {
	tl, ok := ToolForKey('R')
	require.True(t, ok)
	assert.Equal(t, ToolRect, tl)

	tl, ok = ToolForKey('7')
	require.True(t, ok)
	assert.Equal(t, ToolPencil, tl)

	_, ok = ToolForKey('z')
	assert.False(t, ok)

	for _, tl := range Tools {
		if k, ok := tl.Kind(); ok {
			assert.True(t, k.Known(), tl)
		}
	}
}

func TestImageReflectsScene(t *testing.T) {
	g, _ := newGame(t)
	drag(g, ToolRect, 10, 10, 110, 60)
	img := g.Image()
	assert.Equal(t, 800, img.Bounds().Dx())

	require.NoError(t, g.Resize(320, 240))
	assert.Equal(t, 320, g.Image().Bounds().Dx())
}
