package export

import (
	"fmt"
	"io"
	"math"

	"SketchBoard/internal/canvas"
	"SketchBoard/internal/shape"
)

// maxPixels caps the PNG frame so a stray far-away shape cannot allocate
// gigabytes.
const maxPixels = 64 << 20

// PNG renders shapes off screen with the same renderer the board uses and
// writes the frame as PNG.
func PNG(w io.Writer, shapes []*shape.Shape, opts Options) error {
	b := shape.SceneBounds(shapes, Padding)
	if b.Empty() {
		return ErrEmptyScene
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	width := int(math.Ceil(b.Width() * scale))
	height := int(math.Ceil(b.Height() * scale))
	if width*height > maxPixels {
		return fmt.Errorf("png: %dx%d frame is too large", width, height)
	}

	e, err := canvas.NewEngine(width, height)
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	e.Background = opts.Background
	e.SetScale(scale)
	e.SetOffset(-b.MinX*scale, -b.MinY*scale)
	e.SetShapes(shapes)
	return e.EncodePNG(w)
}
