// Package ui specifies custom controls for tview to play Catan in the terminal.
package ui

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termcatan/actions"
	"termcatan/config"
	"termcatan/geometry"
	"termcatan/store"
	"termcatan/turn"
	"termcatan/types"
)

// Mover is the part of the turn controller the board talks to.
type Mover interface {
	Submit(action types.Action) error
	Phase() turn.Phase
}

type HexBoardUI struct {
	Box        *tview.Box
	BoardState *types.BoardState
	hint       *tview.TextView
	cfg        *config.Config
	app        *tview.Application
	mover      Mover
	handlers   *actions.HandlerCache
	infoPanel  *GameInfoPanel
	viewer     types.Color
	replay     bool
	mode       actions.BuildMode
	order      []int // clickable node ids in layout order
	cursor     int   // index into order, -1 when nothing is selected
	lastErr    error
	pending    bool // a submission was issued and its snapshot has not arrived
	attached   *store.Store
	unsub      func()
}

func NewHexBoard(app *tview.Application, c *config.Config, hint *tview.TextView) *HexBoardUI {
	board := &HexBoardUI{
		Box:    tview.NewBox(),
		hint:   hint,
		app:    app,
		cursor: -1,
	}
	board.SetConfig(c)
	board.handlers = actions.NewHandlerCache(board.submit)
	board.Box.SetDrawFunc(board.draw)
	return board
}

// Attach follows st and sends moves through mover. Any previous
// attachment is dropped.
func (g *HexBoardUI) Attach(st *store.Store, mover Mover, viewer types.Color, replay bool) {
	g.Detach()
	g.mover = mover
	g.viewer = viewer
	g.replay = replay
	g.mode = actions.None
	g.lastErr = nil
	g.pending = false
	g.BoardState = nil
	g.attached = st
	g.unsub = st.Subscribe(func(prev, next *types.BoardState) {
		// Observers run on the controller goroutine; hop to the UI goroutine
		// and always render the latest snapshot.
		go func() {
			g.app.QueueUpdateDraw(func() {
				g.follow(st)
			})
		}()
	})
	g.SetBoardState(st.State())
}

// Detach stops following the store.
func (g *HexBoardUI) Detach() {
	if g.unsub != nil {
		g.unsub()
		g.unsub = nil
	}
	g.attached = nil
	g.mover = nil
}

// follow renders st's latest snapshot unless the board has since been
// attached elsewhere. Updates queued before a re-attach land here late.
func (g *HexBoardUI) follow(st *store.Store) {
	if g.attached != st {
		return
	}
	g.SetBoardState(st.State())
}

// SetBoardState installs a snapshot. Must be called on the UI goroutine.
func (g *HexBoardUI) SetBoardState(next *types.BoardState) {
	if next == g.BoardState {
		return
	}
	if g.pending || actions.PhaseChanged(g.BoardState, next) {
		g.mode = actions.None
	}
	g.pending = false
	g.BoardState = next
	g.recompute()
	g.refreshHint()
}

// Mode returns the active build mode.
func (g *HexBoardUI) Mode() actions.BuildMode {
	return g.mode
}

// ToggleMode switches to target, or back to none if target is active.
func (g *HexBoardUI) ToggleMode(target actions.BuildMode) {
	g.mode = g.mode.Toggle(target)
	g.lastErr = nil
	g.recompute()
	g.refreshHint()
}

// SelectedNode returns the node under the cursor.
func (g *HexBoardUI) SelectedNode() (int, bool) {
	if g.cursor < 0 || g.cursor >= len(g.order) {
		return 0, false
	}
	return g.order[g.cursor], true
}

// MoveSelection steps the cursor through the clickable nodes.
func (g *HexBoardUI) MoveSelection(delta int) {
	if len(g.order) == 0 {
		g.cursor = -1
		return
	}
	if g.cursor < 0 {
		g.cursor = 0
		return
	}
	g.cursor = ((g.cursor+delta)%len(g.order) + len(g.order)) % len(g.order)
}

func (g *HexBoardUI) ResetSelection() {
	g.cursor = -1
}

// PlaySelected fires the cached handler of the selected node.
func (g *HexBoardUI) PlaySelected() {
	id, ok := g.SelectedNode()
	if !ok {
		return
	}
	g.report(g.handlers.Click(id))
}

// PlayAction submits the viewer's first playable action of type t,
// e.g. ROLL or END_TURN.
func (g *HexBoardUI) PlayAction(t types.ActionType) {
	if g.BoardState == nil || g.replay || !actions.IsPlayersTurn(g.BoardState, g.viewer) {
		return
	}
	human, _ := actions.HumanColor(g.BoardState, g.viewer)
	for _, a := range g.BoardState.Playable(t) {
		if a.Color == human {
			g.report(g.submit(a))
			return
		}
	}
	g.report(fmt.Errorf("%s is not playable now", t))
}

func (g *HexBoardUI) submit(action types.Action) error {
	if g.mover == nil {
		return turn.ErrClosed
	}
	return g.mover.Submit(action)
}

// report shows the outcome of issuing a move. The build mode stays until
// the resulting snapshot is installed, so a rejected move keeps it.
func (g *HexBoardUI) report(err error) {
	g.lastErr = err
	if err == nil {
		g.pending = true
	}
	g.refreshHint()
}

// recompute rebuilds the clickable node map and keeps the cursor on the
// same node when it is still clickable.
func (g *HexBoardUI) recompute() {
	selected, hadSelection := g.SelectedNode()

	nodes := map[int]types.Action{}
	if g.BoardState != nil && !g.replay {
		nodes = actions.BuildableNodeActions(g.BoardState, g.mode, g.viewer)
	}
	g.handlers.Update(nodes)

	g.order = nil
	g.cursor = -1
	if len(nodes) == 0 {
		return
	}
	ids := make([]int, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	g.order = geometry.NewLayout(g.BoardState, 1, 0, 0).NodeOrder(ids)
	for i, id := range g.order {
		if hadSelection && id == selected {
			g.cursor = i
			return
		}
	}
	if hadSelection {
		g.cursor = 0
	}
}

func (g *HexBoardUI) SetConfig(c *config.Config) {
	g.cfg = c
}

// SetInfoPanel connects the side panel that mirrors the board.
func (g *HexBoardUI) SetInfoPanel(p *GameInfoPanel) {
	g.infoPanel = p
	if p != nil {
		p.SetBoardState(g.BoardState)
	}
}

func (g *HexBoardUI) refreshHint() {
	if g.infoPanel != nil {
		g.infoPanel.SetBoardState(g.BoardState)
	}

	var turnLine, controlsLine string
	state := g.BoardState
	switch {
	case state == nil:
		turnLine = "  ◌ Loading..."
	case state.Finished():
		turnLine = fmt.Sprintf("  Game over · %s wins", state.WinningColor)
		controlsLine = "  q · menu"
	case g.replay:
		turnLine = fmt.Sprintf("  Replay · %s to move", state.CurrentColor)
		controlsLine = "  [ ] step   y copy   q menu"
	case actions.IsPlayersTurn(state, g.viewer):
		human, _ := actions.HumanColor(state, g.viewer)
		turnLine = fmt.Sprintf("  ● Your move (%s)", human)
		if actions.InitialPlacement(state) {
			turnLine += " · place a starting settlement"
		} else if g.mode != actions.None {
			turnLine += " · " + g.mode.String()
		}
		controlsLine = "  hjkl/↑↓←→ select  ⏎ build  s settle  c city  r roll  e end  y copy  q menu"
	default:
		turnLine = fmt.Sprintf("  ◌ %s is thinking...", state.CurrentColor)
		controlsLine = "  y copy   q menu"
	}
	if g.lastErr != nil {
		turnLine += fmt.Sprintf("  [red]%s[-]", tview.Escape(describe(g.lastErr)))
	}
	g.hint.SetText(turnLine + "\n" + controlsLine)
}

func describe(err error) string {
	switch {
	case errors.Is(err, turn.ErrSubmissionInFlight), errors.Is(err, turn.ErrNotSettled):
		return "wait for the board to settle"
	case errors.Is(err, actions.ErrNotClickable):
		return "that spot is no longer available"
	}
	return err.Error()
}

func (g *HexBoardUI) palette(idx int) tcell.Color {
	return tcell.PaletteColor(idx)
}

func (g *HexBoardUI) playerColor(c types.Color) tcell.Color {
	if idx, ok := g.cfg.Theme.Colors.Players[c]; ok {
		return g.palette(idx)
	}
	return tcell.ColorWhite
}

func (g *HexBoardUI) tileColor(t types.Tile) tcell.Color {
	colors := g.cfg.Theme.Colors
	switch t.Type {
	case "RESOURCE_TILE":
		if idx, ok := colors.Resources[t.Resource]; ok {
			return g.palette(idx)
		}
	case "DESERT":
		return g.palette(colors.Desert)
	case "PORT":
		return g.palette(colors.Port)
	}
	return g.palette(colors.Water)
}

// draw renders the board. Terminal cells are about twice as tall as they
// are wide, so layout runs in a space where one row counts as two units.
func (g *HexBoardUI) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	state := g.BoardState
	if state == nil || len(state.Tiles) == 0 {
		return x, y, width, height
	}
	size := geometry.FitSize(float64(width), float64(height*2))
	if !geometry.Drawable(size) {
		return x, y, width, height
	}
	layout := geometry.NewLayout(state, size, float64(width)/2, float64(height))

	toCell := func(p geometry.Point) (int, int, bool) {
		col := int(math.Floor(p.X))
		row := int(math.Floor(p.Y / 2))
		return x + col, y + row, col >= 0 && col < width && row >= 0 && row < height
	}

	// Tile backgrounds: every cell takes the color of the nearest tile
	// center within one circumradius, which traces out the hexes.
	bg := make([]tcell.Color, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			bg[row*width+col] = tcell.ColorDefault
			if !g.cfg.Theme.DrawTileBackground {
				continue
			}
			px, py := float64(col)+0.5, float64(row)*2+1
			best := size
			for _, t := range state.Tiles {
				center, ok := layout.Tiles[t.Coordinate]
				if !ok {
					continue
				}
				if d := math.Hypot(px-center.X, py-center.Y); d <= best {
					best = d
					bg[row*width+col] = g.tileColor(t.Tile)
				}
			}
			screen.SetContent(x+col, y+row, ' ', nil, tcell.StyleDefault.Background(bg[row*width+col]))
		}
	}
	put := func(p geometry.Point, r rune, fg tcell.Color) {
		cx, cy, ok := toCell(p)
		if !ok {
			return
		}
		screen.SetContent(cx, cy, r, nil, tcell.StyleDefault.Foreground(fg).Background(bg[(cy-y)*width+(cx-x)]))
	}
	putText := func(p geometry.Point, s string, fg tcell.Color) {
		p.X -= float64(len([]rune(s))) / 2
		for _, r := range s {
			put(p, r, fg)
			p.X++
		}
	}

	numberColor := g.palette(g.cfg.Theme.Colors.Number)
	for _, t := range state.Tiles {
		center, ok := layout.Tiles[t.Coordinate]
		if !ok {
			continue
		}
		label := tileLabel(t.Tile)
		if size >= 3 && label != "" {
			putText(center.Add(geometry.Point{Y: -2}), label, numberColor)
		}
		if t.Tile.Number > 0 {
			putText(center, strconv.Itoa(t.Tile.Number), numberColor)
		}
	}

	sym := g.cfg.Theme.Symbols
	for id, e := range state.Edges {
		if e.Color == "" {
			continue
		}
		if p, ok := layout.Edges[id]; ok {
			put(p, sym.Road, g.playerColor(e.Color))
		}
	}

	selected, hasSelection := g.SelectedNode()
	highlight := g.palette(g.cfg.Theme.Colors.Highlight)
	for id, n := range state.Nodes {
		p, ok := layout.Nodes[id]
		if !ok {
			continue
		}
		switch {
		case n.Building == "CITY":
			put(p, sym.City, g.playerColor(n.Color))
		case n.Building == "SETTLEMENT":
			put(p, sym.Settlement, g.playerColor(n.Color))
		case g.handlers.Clickable(id):
			put(p, sym.Clickable, highlight)
			if g.cfg.Theme.ShowNodeIDs {
				putText(p.Add(geometry.Point{X: 2}), strconv.Itoa(id), highlight)
			}
		default:
			put(p, sym.EmptyNode, numberColor)
		}
		if hasSelection && id == selected {
			if cx, cy, ok := toCell(p); ok {
				r, _, _, _ := screen.GetContent(cx, cy)
				style := tcell.StyleDefault.
					Foreground(g.palette(g.cfg.Theme.Colors.CursorFG)).
					Background(g.palette(g.cfg.Theme.Colors.CursorBG))
				screen.SetContent(cx, cy, r, nil, style)
			}
		}
	}

	put(layout.Robber, sym.Robber, g.palette(g.cfg.Theme.Colors.Robber))
	return x, y, width, height
}

func tileLabel(t types.Tile) string {
	switch t.Type {
	case "RESOURCE_TILE":
		if len(t.Resource) > 3 {
			return t.Resource[:3]
		}
		return t.Resource
	case "DESERT":
		return "DES"
	case "PORT":
		if t.Resource == "" {
			return "3:1"
		}
		return "2:1"
	}
	return ""
}
