package state

import (
	"log"
	"sync"

	"SketchBoard/internal/shape"
)

// Board is a last-writer-wins map of shapes keyed by id. Arrival order is
// authoritative: an upsert replaces the whole shape, a tombstone removes
// it for good. Shapes keep the order in which their id first appeared.
type Board struct {
	order  []string
	shapes map[string]*shape.Shape
	erased map[string]struct{}
	mu     sync.RWMutex
}

func NewBoard() *Board {
	return &Board{
		shapes: make(map[string]*shape.Shape),
		erased: make(map[string]struct{}),
	}
}

// Apply folds one message into the board and reports whether the visible
// state changed.
func (b *Board) Apply(m Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m.IsErase() {
		b.erased[m.EraseID] = struct{}{}
		if _, ok := b.shapes[m.EraseID]; ok {
			delete(b.shapes, m.EraseID)
			return true
		}
		return false
	}
	if m.Shape == nil {
		return false
	}

	id := m.Shape.ID
	if _, dead := b.erased[id]; dead {
		log.Printf("[HISTORY] Ignoring upsert for erased shape %s", id)
		return false
	}
	if _, seen := b.shapes[id]; !seen {
		b.order = append(b.order, id)
	}
	b.shapes[id] = m.Shape.Clone()
	return true
}

// Tombstone marks id erased without touching the order.
func (b *Board) Tombstone(id string) {
	b.Apply(Erase(id))
}

func (b *Board) Erased(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.erased[id]
	return ok
}

// Shapes returns copies of the live shapes ordered by first appearance.
func (b *Board) Shapes() []*shape.Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*shape.Shape, 0, len(b.shapes))
	for _, id := range b.order {
		if s, ok := b.shapes[id]; ok {
			out = append(out, s.Clone())
		}
	}
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.shapes)
}

// Tombstones lists every erased id.
func (b *Board) Tombstones() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.erased))
	for id := range b.erased {
		out = append(out, id)
	}
	return out
}

// Replay rebuilds a scene from a persisted log. Every eraseId anywhere in
// the log is collected first, so no upsert can bring an erased shape back
// whatever its position. Malformed entries are logged and skipped.
func Replay(payloads []string) []*shape.Shape {
	return ReplayBoard(payloads).Shapes()
}

// ReplayBoard is Replay keeping the board, tombstones included.
func ReplayBoard(payloads []string) *Board {
	msgs := make([]Message, 0, len(payloads))
	for i, raw := range payloads {
		m, err := DecodePayload(raw)
		if err != nil {
			log.Printf("[HISTORY] Dropping entry %d: %v", i, err)
			continue
		}
		msgs = append(msgs, m)
	}
	return replay(msgs)
}

func ReplayMessages(msgs []Message) []*shape.Shape {
	return replay(msgs).Shapes()
}

func replay(msgs []Message) *Board {
	b := NewBoard()
	for _, m := range msgs {
		if m.IsErase() {
			b.Tombstone(m.EraseID)
		}
	}
	for _, m := range msgs {
		if !m.IsErase() {
			b.Apply(m)
		}
	}
	return b
}
