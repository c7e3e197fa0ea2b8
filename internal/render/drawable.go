package render

import (
	"github.com/gogpu/gg"

	"SketchBoard/internal/shape"
)

type OpKind int

const (
	OpMove OpKind = iota
	OpLine
	OpCubic
	OpClose
)

// Op is one path command. Cubic uses C1 and C2 as control points and P as
// the end point; Move and Line only use P.
type Op struct {
	Kind   OpKind
	C1, C2 shape.Point
	P      shape.Point
}

// Drawable is a generated path, ready to be replayed onto a context.
// Filled drawables are painted with Fill, the rest with Stroke.
type Drawable struct {
	Ops    []Op
	Filled bool
}

func (d *Drawable) moveTo(p shape.Point) {
	d.Ops = append(d.Ops, Op{Kind: OpMove, P: p})
}

func (d *Drawable) lineTo(p shape.Point) {
	d.Ops = append(d.Ops, Op{Kind: OpLine, P: p})
}

func (d *Drawable) cubicTo(c1, c2, p shape.Point) {
	d.Ops = append(d.Ops, Op{Kind: OpCubic, C1: c1, C2: c2, P: p})
}

func (d *Drawable) close() {
	d.Ops = append(d.Ops, Op{Kind: OpClose})
}

// Replay adds the drawable's path to dc without painting it.
func (d *Drawable) Replay(dc *gg.Context) {
	for _, op := range d.Ops {
		switch op.Kind {
		case OpMove:
			dc.MoveTo(op.P.X, op.P.Y)
		case OpLine:
			dc.LineTo(op.P.X, op.P.Y)
		case OpCubic:
			dc.CubicTo(op.C1.X, op.C1.Y, op.C2.X, op.C2.Y, op.P.X, op.P.Y)
		case OpClose:
			dc.ClosePath()
		}
	}
}
