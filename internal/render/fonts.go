package render

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

type faceKey struct {
	style string
	size  float64
}

// fonts maps font styles onto the bundled Go fonts. Every family renders
// with the same faces.
type fonts struct {
	sources map[string]*text.FontSource
	faces   map[faceKey]text.Face
}

func newFonts() (*fonts, error) {
	f := &fonts{
		sources: make(map[string]*text.FontSource),
		faces:   make(map[faceKey]text.Face),
	}
	for style, ttf := range map[string][]byte{
		"regular": goregular.TTF,
		"bold":    gobold.TTF,
		"italic":  goitalic.TTF,
	} {
		src, err := text.NewFontSource(ttf)
		if err != nil {
			return nil, fmt.Errorf("load %s font: %w", style, err)
		}
		f.sources[style] = src
	}
	return f, nil
}

func (f *fonts) face(fontStyle string, size float64) text.Face {
	style := "regular"
	switch s := strings.ToLower(fontStyle); {
	case strings.Contains(s, "bold"):
		style = "bold"
	case strings.Contains(s, "italic"):
		style = "italic"
	}

	// sizes are rounded so zooming does not grow the map without bound
	key := faceKey{style: style, size: float64(int(size*4+0.5)) / 4}
	if face, ok := f.faces[key]; ok {
		return face
	}
	face := f.sources[style].Face(key.size)
	f.faces[key] = face
	return face
}
