package ui

import (
	"fmt"
	"log"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/rivo/tview"

	"termcatan/engine"
	"termcatan/types"
)

// StatusNotifier shows turn changes and errors on a one-line status bar.
// It is safe to call from any goroutine.
type StatusNotifier struct {
	app  *tview.Application
	view *tview.TextView
}

var _ engine.Notifier = (*StatusNotifier)(nil)

func NewStatusNotifier(app *tview.Application) *StatusNotifier {
	view := tview.NewTextView()
	view.SetDynamicColors(true)
	view.SetBorderPadding(0, 0, 1, 1)
	return &StatusNotifier{app: app, view: view}
}

// View returns the status bar.
func (s *StatusNotifier) View() *tview.TextView {
	return s.view
}

func (s *StatusNotifier) NotifyTurnChange(state *types.BoardState) {
	if state.Finished() {
		s.set(fmt.Sprintf("[yellow]%s[-]", WinnerLine(state)))
		return
	}
	s.set(fmt.Sprintf("%s to move", colorTag(state.CurrentColor, string(state.CurrentColor))))
}

func (s *StatusNotifier) NotifyError(err error) {
	s.set(fmt.Sprintf("[red]%s[-]", tview.Escape(err.Error())))
}

// Clear empties the status bar. Must be called on the UI goroutine.
func (s *StatusNotifier) Clear() {
	s.view.SetText("")
}

// Show sets the status text. Must be called on the UI goroutine.
func (s *StatusNotifier) Show(text string) {
	s.view.SetText(tview.Escape(text))
}

func (s *StatusNotifier) set(text string) {
	// Spawn goroutine to avoid deadlock when called from the UI goroutine
	go func() {
		s.app.QueueUpdateDraw(func() {
			s.view.SetText(text)
		})
	}()
}

// GameReference is the shareable id of a game, with the state index in replay.
func GameReference(gameID string, stateIndex *int) string {
	if stateIndex == nil {
		return gameID
	}
	return gameID + "/" + strconv.Itoa(*stateIndex)
}

// CopyReference puts the game reference on the system clipboard.
func CopyReference(gameID string, stateIndex *int) error {
	ref := GameReference(gameID, stateIndex)
	if err := clipboard.WriteAll(ref); err != nil {
		log.Println("clipboard copy failed:", err)
		return fmt.Errorf("couldn't copy (install xclip/xsel on Linux): %w", err)
	}
	return nil
}
