package state

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"SketchBoard/internal/shape"
)

type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
)

const snapshotVersion = 1

// FormatForPath picks the snapshot encoding from a file name: .sbm is
// msgpack, anything else JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".sbm") {
		return FormatMsgpack
	}
	return FormatJSON
}

// Snapshot is a saved board.
type Snapshot struct {
	Version int            `json:"version"`
	RoomID  string         `json:"roomId,omitempty"`
	SavedAt time.Time      `json:"savedAt"`
	Shapes  []*shape.Shape `json:"shapes"`
}

func NewSnapshot(roomID string, shapes []*shape.Shape) Snapshot {
	return Snapshot{Version: snapshotVersion, RoomID: roomID, SavedAt: time.Now().UTC(), Shapes: shapes}
}

// Write encodes the snapshot in the given format.
func (s Snapshot) Write(w io.Writer, f Format) error {
	switch f {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode msgpack snapshot: %w", err)
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode json snapshot: %w", err)
		}
		return nil
	}
}

// ReadSnapshot decodes a snapshot. Shapes that fail validation are
// dropped; the number dropped is returned alongside.
func ReadSnapshot(r io.Reader, f Format) (Snapshot, int, error) {
	var s Snapshot
	switch f {
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&s); err != nil {
			return Snapshot{}, 0, fmt.Errorf("decode msgpack snapshot: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return Snapshot{}, 0, fmt.Errorf("decode json snapshot: %w", err)
		}
	}
	if s.Version > snapshotVersion {
		return Snapshot{}, 0, fmt.Errorf("snapshot version %d is newer than %d", s.Version, snapshotVersion)
	}

	kept := s.Shapes[:0]
	dropped := 0
	for _, sh := range s.Shapes {
		if sh == nil {
			dropped++
			continue
		}
		sh.Normalize()
		if err := sh.Validate(); err != nil {
			dropped++
			continue
		}
		kept = append(kept, sh)
	}
	s.Shapes = kept
	return s, dropped, nil
}
