package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"

	"SketchBoard/internal/game"
)

type Options struct {
	Title string
	// ShareLink is copied to the clipboard by the share action. Empty hides it.
	ShareLink string
	// Ready runs once the window is built and before the event loop starts.
	// Networking is started from here so its callbacks have a board to land on.
	Ready func(board *BoardWidget)
}

func RunApp(g *game.Game, opts Options) {
	myApp := app.New()
	myWindow := myApp.NewWindow(opts.Title)
	myWindow.Resize(fyne.NewSize(1024, 768))

	// Create the interactive board widget
	board := NewBoardWidget(g)
	board.SetWindow(myWindow)
	files := NewFileActions(board, myWindow)

	var share func()
	if opts.ShareLink != "" {
		share = func() {
			myWindow.Clipboard().SetContent(opts.ShareLink)
			board.statusBar.SetText("Share link copied: " + opts.ShareLink)
		}
	}

	// Create the toolbar and pass it a reference to the board
	toolbar := NewToolbar(board, NewActions(board, files, share))

	// Set up the main layout
	content := container.NewBorder(toolbar, board.StatusBar(), nil, nil, board)

	myWindow.SetContent(content)
	myWindow.Canvas().Focus(board)
	if opts.Ready != nil {
		opts.Ready(board)
	}
	myWindow.ShowAndRun()
}
