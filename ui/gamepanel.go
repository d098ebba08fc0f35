package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"termcatan/types"
)

// maxLogLines bounds the event log shown in the panel.
const maxLogLines = 14

// GameInfoPanel displays players, the winner and the action log alongside the board.
type GameInfoPanel struct {
	box        *tview.TextView
	boardState *types.BoardState
	gameID     string
	stateIndex *int
	names      map[types.Color]string
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetGame sets the game reference shown in the header.
func (p *GameInfoPanel) SetGame(gameID string, stateIndex *int) {
	p.gameID = gameID
	p.stateIndex = stateIndex
	p.refresh()
}

// SetBoardState updates the panel with current board state.
func (p *GameInfoPanel) SetBoardState(state *types.BoardState) {
	p.boardState = state
	p.refresh()
}

func (p *GameInfoPanel) refresh() {
	p.box.SetText(p.render())
}

func (p *GameInfoPanel) render() string {
	var b strings.Builder

	b.WriteString("[white::b]Game[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	if p.gameID != "" {
		ref := p.gameID
		if p.stateIndex != nil {
			ref = fmt.Sprintf("%s @%d", ref, *p.stateIndex)
		}
		fmt.Fprintf(&b, "[dimgray]%s[-]\n", tview.Escape(ref))
	}
	if p.boardState == nil {
		return b.String()
	}

	b.WriteString(PlayersHeader(p.boardState))
	b.WriteString("\n")
	if line := WinnerLine(p.boardState); line != "" {
		fmt.Fprintf(&b, "[yellow::b]%s[-:-:-]\n", line)
	} else {
		fmt.Fprintf(&b, "[white]Turn:[-:-:-] %s\n", colorTag(p.boardState.CurrentColor, string(p.boardState.CurrentColor)))
	}
	if line := RobberLine(p.boardState); line != "" {
		fmt.Fprintf(&b, "[dimgray]%s[-]\n", line)
	}
	for _, c := range p.boardState.Colors {
		lines := PlayerSummary(p.boardState, c)
		if len(lines) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	lines := EventLog(p.boardState)
	if len(lines) == 0 {
		return b.String()
	}
	b.WriteString("\n[white::b]Log[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	shown := lines
	if len(shown) > maxLogLines {
		shown = shown[:maxLogLines]
	}
	for _, line := range shown {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(lines) > len(shown) {
		fmt.Fprintf(&b, "[dimgray]  ··· %d earlier[-]\n", len(lines)-len(shown))
	}
	return b.String()
}

// PlayersHeader lists each seat's kind in its color, joined by "vs".
func PlayersHeader(state *types.BoardState) string {
	parts := make([]string, 0, len(state.Colors))
	for _, c := range state.Colors {
		kind := "HUMAN"
		if p, ok := state.Player(c); ok && p.Kind != "" {
			kind = p.Kind
		} else if state.IsBot(c) {
			kind = "BOT"
		}
		parts = append(parts, colorTag(c, kind))
	}
	return strings.Join(parts, " vs ")
}

// WinnerLine returns "<KIND> wins", or "" while the game is running.
func WinnerLine(state *types.BoardState) string {
	if !state.Finished() {
		return ""
	}
	who := string(state.WinningColor)
	if p, ok := state.Player(state.WinningColor); ok && p.Kind != "" {
		who = p.Kind
	}
	return who + " wins"
}

// PlayerSummary renders color's public victory points, awards and hand
// counts from the engine's player table. It is empty when the snapshot
// carries no table for color.
func PlayerSummary(state *types.BoardState, color types.Color) []string {
	vp, ok := state.PlayerStat(color, "VICTORY_POINTS")
	if !ok {
		return nil
	}
	head := fmt.Sprintf("%s %d VP", colorTag(color, string(color)), vp)
	if n, _ := state.PlayerStat(color, "HAS_ROAD"); n > 0 {
		head += " · longest road"
	}
	if n, _ := state.PlayerStat(color, "HAS_ARMY"); n > 0 {
		head += " · largest army"
	}

	hand := make([]string, 0, len(types.Resources))
	for _, res := range types.Resources {
		n, _ := state.PlayerStat(color, res+"_IN_HAND")
		hand = append(hand, fmt.Sprintf("%s %d", strings.ToLower(res), n))
	}
	dev := 0
	for _, card := range types.DevelopmentCards {
		n, _ := state.PlayerStat(color, card+"_IN_HAND")
		dev += n
	}
	cards := fmt.Sprintf("  %s  dev %d", strings.Join(hand[3:], "  "), dev)
	if knights, _ := state.PlayerStat(color, "PLAYED_KNIGHT"); knights > 0 {
		cards += fmt.Sprintf("  knights %d", knights)
	}
	return []string{head, "  " + strings.Join(hand[:3], "  "), cards}
}

// RobberLine names the tile the robber sits on.
func RobberLine(state *types.BoardState) string {
	tile, ok := state.TileAt(state.RobberCoordinate)
	if !ok {
		return ""
	}
	if tile.Type == "RESOURCE_TILE" {
		return fmt.Sprintf("Robber on %s %d", tile.Resource, tile.Number)
	}
	return "Robber on " + tile.Type
}

// EventLog humanizes the action history, most recent first.
func EventLog(state *types.BoardState) []string {
	lines := make([]string, 0, len(state.Actions))
	for i := len(state.Actions) - 1; i >= 0; i-- {
		a := state.Actions[i]
		text := strings.ReplaceAll(string(a.Type), "_", " ")
		if len(a.Value) > 0 && string(a.Value) != "null" {
			text += " " + string(a.Value)
		}
		lines = append(lines, fmt.Sprintf("%s %s", colorTag(a.Color, string(a.Color)), tview.Escape(text)))
	}
	return lines
}

func colorTag(c types.Color, text string) string {
	name := strings.ToLower(string(c))
	if c == types.Violet {
		name = "purple"
	}
	return fmt.Sprintf("[%s]%s[-]", name, tview.Escape(text))
}

// CreateGameLayout creates the main game layout with board, side panel, status and hint.
func CreateGameLayout(board *HexBoardUI, status *StatusNotifier, hint *tview.TextView) (*tview.Flex, *GameInfoPanel) {
	infoPanel := NewGameInfoPanel()
	board.SetInfoPanel(infoPanel)

	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)
	boardRow.AddItem(infoPanel.Box(), 34, 0, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(boardRow, 0, 1, true)
	mainFlex.AddItem(status.View(), 1, 0, false)
	mainFlex.AddItem(hint, 2, 0, false)

	return mainFlex, infoPanel
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form *tview.Flex, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)
	centered.AddItem(form, maxWidth, 0, true)
	centered.AddItem(nil, 0, 1, false)

	return centered
}
