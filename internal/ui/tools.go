package ui

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"SketchBoard/internal/game"
	"SketchBoard/internal/render"
	"SketchBoard/internal/shape"
)

var (
	strokePalette = []string{"#ffffff", "#e03131", "#2f9e44", "#1971c2", "#f08c00"}
	fillPalette   = []string{shape.Transparent, "#ffc9c9", "#b2f2bb", "#a5d8ff", "#ffec99"}
	fontSizes     = []string{"16", "20", "28", "36"}
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Hex      string
	OnTapped func(string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

// swatchColor converts a palette entry for display.
func swatchColor(hex string) color.Color {
	c, ok := render.Color(hex)
	if !ok {
		return color.Transparent
	}
	return c.Color()
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(swatchColor(s.Hex))
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Hex)
	}
}

// styleEditor applies a toolbar change both to the style used for new
// shapes and to the selected shape, if any.
type styleEditor struct {
	board *BoardWidget
}

func (e styleEditor) edit(set func(*shape.Style), patch shape.Patch) {
	g := e.board.game
	st := g.Style()
	set(&st)
	g.SetStyle(st)
	g.UpdateSelectedShapeStyle(patch)
	e.board.Sync()
}

func toolNames() []string {
	names := make([]string, len(game.Tools))
	for i, t := range game.Tools {
		names[i] = string(t)
	}
	return names
}

// --- The Main Toolbar ---
func NewToolbar(board *BoardWidget, actions *widget.Toolbar) fyne.CanvasObject {
	g := board.game
	ed := styleEditor{board: board}
	st := g.Style()

	tools := widget.NewRadioGroup(toolNames(), func(name string) {
		if name != "" {
			g.SetTool(game.Tool(name))
		}
	})
	tools.Horizontal = true
	tools.Required = true
	tools.SetSelected(string(g.Tool()))
	g.OnToolChange = func(t game.Tool) { tools.SetSelected(string(t)) }

	// --- Color Palettes ---
	strokeBox := container.NewHBox()
	for _, hex := range strokePalette {
		strokeBox.Add(newColorSwatch(hex, func(c string) {
			ed.edit(func(s *shape.Style) { s.StrokeFill = c }, shape.Patch{StrokeColor: &c})
		}))
	}
	fillBox := container.NewHBox()
	for _, hex := range fillPalette {
		fillBox.Add(newColorSwatch(hex, func(c string) {
			ed.edit(func(s *shape.Style) { s.BgFill = c }, shape.Patch{FillColor: &c})
		}))
	}

	// --- Stroke Width Slider ---
	strokeSlider := widget.NewSlider(1.0, 20.0)
	strokeSlider.SetValue(st.StrokeWidth)
	strokeSlider.OnChangeEnded = func(val float64) {
		ed.edit(func(s *shape.Style) { s.StrokeWidth = val }, shape.Patch{StrokeWidth: &val})
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), strokeSlider)

	strokeStyle := widget.NewSelect([]string{"solid", "dashed", "dotted"}, func(v string) {
		ss := shape.StrokeStyle(v)
		ed.edit(func(s *shape.Style) { s.StrokeStyle = ss }, shape.Patch{StrokeStyle: &ss})
	})
	strokeStyle.SetSelected(string(st.StrokeStyle))

	edge := widget.NewSelect([]string{"round", "square"}, func(v string) {
		e := shape.Edge(v)
		ed.edit(func(s *shape.Style) { s.StrokeEdge = e }, shape.Patch{StrokeEdge: &e})
	})
	edge.SetSelected(string(st.StrokeEdge))

	rough := widget.NewSelect([]string{"architect", "artist", "cartoonist"}, func(v string) {
		r := shape.RoughStyle(v)
		ed.edit(func(s *shape.Style) { s.RoughStyle = r }, shape.Patch{RoughStyle: &r})
	})
	rough.SetSelected(string(st.RoughStyle))

	fill := widget.NewSelect([]string{"solid", "hachure", "zigzag"}, func(v string) {
		f := shape.FillStyle(v)
		ed.edit(func(s *shape.Style) { s.FillStyle = f }, shape.Patch{FillStyle: &f})
	})
	fill.SetSelected(string(st.FillStyle))

	fontSize := widget.NewSelect(fontSizes, func(v string) {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return
		}
		ed.edit(func(s *shape.Style) { s.FontSize = size }, shape.Patch{FontSize: &size})
	})
	fontSize.SetSelected(strconv.FormatFloat(st.FontSize, 'f', -1, 64))

	// --- Assemble everything ---
	row1 := container.NewHBox(widget.NewLabel("Tool:"), tools, layout.NewSpacer(), actions)
	row2 := container.NewHBox(
		widget.NewLabel("Stroke:"), strokeBox,
		widget.NewSeparator(),
		widget.NewLabel("Background:"), fillBox,
		widget.NewSeparator(),
		widget.NewLabel("Width:"), sliderContainer,
		strokeStyle, edge, rough, fill, fontSize,
		layout.NewSpacer(),
	)
	return container.NewVBox(row1, row2)
}

// NewActions builds the icon toolbar for file, view and selection actions.
func NewActions(board *BoardWidget, files *FileActions, share func()) *widget.Toolbar {
	items := []widget.ToolbarItem{
		widget.NewToolbarAction(theme.FolderOpenIcon(), files.ShowOpen),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), files.ShowSave),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() { files.ShowExport(".pdf") }),
		widget.NewToolbarAction(theme.FileImageIcon(), func() { files.ShowExport(".png") }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), board.ZoomOut),
		widget.NewToolbarAction(theme.ZoomFitIcon(), board.ResetView),
		widget.NewToolbarAction(theme.ZoomInIcon(), board.ZoomIn),
		widget.NewToolbarAction(theme.GridIcon(), board.ToggleGrid),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { board.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete}) }),
	}
	if share != nil {
		items = append(items, widget.NewToolbarAction(theme.MailSendIcon(), share))
	}
	return widget.NewToolbar(items...)
}
