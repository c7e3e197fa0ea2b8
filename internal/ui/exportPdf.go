package ui

import (
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	sbcanvas "SketchBoard/internal/canvas"
	"SketchBoard/internal/export"
	"SketchBoard/internal/game"
	"SketchBoard/internal/state"
)

// FileActions runs the open, save and export dialogs for a board.
type FileActions struct {
	board  *BoardWidget
	window fyne.Window
	// ExportScale multiplies the PNG resolution.
	ExportScale float64
}

func NewFileActions(board *BoardWidget, w fyne.Window) *FileActions {
	return &FileActions{board: board, window: w, ExportScale: 2}
}

func (f *FileActions) status(text string) {
	log.Printf("[UI] %s", text)
	f.board.statusBar.SetText(text)
}

func (f *FileActions) ShowSave() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, f.window)
			return
		}
		if w == nil {
			return
		}
		f.SaveToFile(w)
	}, f.window)
	d.SetFileName(f.board.game.RoomID() + ".json")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json", ".sbm"}))
	d.Show()
}

func (f *FileActions) ShowOpen() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, f.window)
			return
		}
		if r == nil {
			return
		}
		f.LoadFromFile(r)
	}, f.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json", ".sbm"}))
	d.Show()
}

// ShowExport asks where to write a .pdf or .png of the scene.
func (f *FileActions) ShowExport(ext string) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, f.window)
			return
		}
		if w == nil {
			return
		}
		f.ExportToFile(w)
	}, f.window)
	d.SetFileName(f.board.game.RoomID() + ext)
	d.SetFilter(storage.NewExtensionFileFilter([]string{ext}))
	d.Show()
}

func (f *FileActions) SaveToFile(writer fyne.URIWriteCloser) {
	defer closeLogged(writer)
	n, err := saveSnapshot(writer, writer.URI().Path(), f.board.game)
	if err != nil {
		f.status("Error saving file")
		dialog.ShowError(err, f.window)
		return
	}
	f.status(fmt.Sprintf("Saved %d shapes to %s", n, writer.URI().Name()))
}

func (f *FileActions) LoadFromFile(reader fyne.URIReadCloser) {
	defer closeLogged(reader)
	loaded, dropped, err := loadSnapshot(reader, reader.URI().Path(), f.board.game)
	f.board.Sync()
	if err != nil {
		f.status("Error reading file")
		dialog.ShowError(err, f.window)
		return
	}
	msg := fmt.Sprintf("Loaded %d shapes", loaded)
	if dropped > 0 {
		msg += fmt.Sprintf(" (%d invalid skipped)", dropped)
	}
	f.status(msg)
}

func (f *FileActions) ExportToFile(writer fyne.URIWriteCloser) {
	defer closeLogged(writer)
	if err := exportScene(writer, writer.URI().Path(), f.board.game, f.ExportScale); err != nil {
		f.status("Export failed")
		dialog.ShowError(err, f.window)
		return
	}
	f.status("Exported " + writer.URI().Name())
}

func closeLogged(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("[UI] Error closing file: %v", err)
	}
}

func saveSnapshot(w io.Writer, name string, g *game.Game) (int, error) {
	snap := state.NewSnapshot(g.RoomID(), g.Shapes())
	if err := snap.Write(w, state.FormatForPath(name)); err != nil {
		return 0, err
	}
	return len(snap.Shapes), nil
}

// loadSnapshot merges a saved board into the live one, broadcasting each
// shape.
func loadSnapshot(r io.Reader, name string, g *game.Game) (loaded, dropped int, err error) {
	snap, dropped, err := state.ReadSnapshot(r, state.FormatForPath(name))
	if err != nil {
		return 0, 0, err
	}
	return g.LoadShapes(snap.Shapes), dropped, nil
}

func exportScene(w io.Writer, name string, g *game.Game, scale float64) error {
	var bg string
	g.Do(func(e *sbcanvas.Engine) { bg = e.Background })
	opts := export.Options{Background: bg, Scale: scale, Title: g.RoomID()}

	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return export.PDF(w, g.Shapes(), opts)
	case ".png":
		return export.PNG(w, g.Shapes(), opts)
	}
	return fmt.Errorf("unsupported export type %q", path.Ext(name))
}
