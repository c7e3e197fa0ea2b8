package render

import (
	"SketchBoard/internal/shape"
)

// Slot selects one of the two drawables kept per shape.
type Slot int

const (
	SlotFill Slot = iota
	SlotStroke
)

type entry struct {
	drawable *Drawable
	watched  []float64
	styleTag string
}

// Cache memoizes generated drawables per shape id. It lives next to the
// scene, never on the shapes, so nothing here reaches the wire. Not safe
// for concurrent use.
type Cache struct {
	entries map[string]*[2]*entry

	// Generated counts regenerations.
	Generated int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*[2]*entry)}
}

// ShouldRegenerate reports whether slot has no drawable for s, or whether
// any watched value or the style tag differs from the last Store.
func (c *Cache) ShouldRegenerate(s *shape.Shape, watched []float64, styleTag string, slot Slot) bool {
	slots, ok := c.entries[s.ID]
	if !ok || slots[slot] == nil {
		return true
	}
	e := slots[slot]
	if e.styleTag != styleTag || len(e.watched) != len(watched) {
		return true
	}
	for i, v := range watched {
		if e.watched[i] != v {
			return true
		}
	}
	return false
}

// Store records d for slot together with a copy of the inputs used to
// generate it.
func (c *Cache) Store(s *shape.Shape, watched []float64, styleTag string, slot Slot, d *Drawable) {
	slots, ok := c.entries[s.ID]
	if !ok {
		slots = &[2]*entry{}
		c.entries[s.ID] = slots
	}
	slots[slot] = &entry{
		drawable: d,
		watched:  append([]float64(nil), watched...),
		styleTag: styleTag,
	}
}

func (c *Cache) Get(id string, slot Slot) *Drawable {
	if slots, ok := c.entries[id]; ok && slots[slot] != nil {
		return slots[slot].drawable
	}
	return nil
}

// Invalidate drops both slots of id; the next render regenerates them.
func (c *Cache) Invalidate(id string) {
	if slots, ok := c.entries[id]; ok {
		slots[SlotFill], slots[SlotStroke] = nil, nil
	}
}

// Forget removes every trace of id, used once a shape is erased.
func (c *Cache) Forget(id string) {
	delete(c.entries, id)
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.entries = make(map[string]*[2]*entry)
}

func (c *Cache) Len() int {
	return len(c.entries)
}

// Drawable returns the cached drawable for slot, generating and storing
// a new one when the watched inputs changed.
func (c *Cache) Drawable(s *shape.Shape, slot Slot) *Drawable {
	watched := Watched(s, slot)
	tag := StyleTag(s, slot)
	if !c.ShouldRegenerate(s, watched, tag, slot) {
		return c.Get(s.ID, slot)
	}

	var d *Drawable
	if slot == SlotFill {
		d = fillDrawable(s)
	} else {
		d = strokeDrawable(s)
	}
	c.Generated++
	c.Store(s, watched, tag, slot, d)
	return d
}

// Watched lists the inputs a drawable in slot depends on. Colors and dash
// patterns are applied at paint time and are not part of it.
func Watched(s *shape.Shape, slot Slot) []float64 {
	v := []float64{s.StrokeWidth}
	switch s.Kind {
	case shape.KindRect, shape.KindDiamond, shape.KindText:
		v = append(v, s.X, s.Y, s.Width, s.Height)
	case shape.KindEllipse:
		v = append(v, s.CenterX, s.CenterY, s.RadiusX, s.RadiusY)
	case shape.KindLine, shape.KindArrow:
		v = append(v, s.StartX, s.StartY, s.EndX, s.EndY)
	case shape.KindFreehand:
		v = append(v, float64(len(s.Points)))
		for _, p := range s.Points {
			v = append(v, p.X, p.Y)
		}
	}
	return v
}

// StyleTag names the style inputs of slot.
func StyleTag(s *shape.Shape, slot Slot) string {
	if slot == SlotFill {
		return string(s.Kind) + "/" + string(s.RoughStyle) + "/" + string(s.FillStyle)
	}
	return string(s.Kind) + "/" + string(s.RoughStyle)
}
