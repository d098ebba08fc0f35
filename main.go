// termcatan is a terminal client for playing Catan against bots on a game server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termcatan/actions"
	"termcatan/config"
	"termcatan/engine"
	"termcatan/engine/catanapi"
	"termcatan/store"
	"termcatan/turn"
	"termcatan/types"
	"termcatan/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagServer  = flag.String("server", "", "Game server base URL")
	flagPlayers = flag.String("players", "", "Comma separated seats, e.g. HUMAN,MCTS")
	flagMode    = flag.String("mode", "", "Preset seats: RANDOM_VS_RANDOM, MCTS_VS_RANDOM, HUMAN_VS_RANDOM, HUMAN_VS_MCTS")
	flagGame    = flag.String("game", "", "Open an existing game id")
	flagState   = flag.Int("state", -1, "Replay the game at this state index")
	flagColor   = flag.String("color", "", "Color you play (default: first human seat)")
	flagSave    = flag.Bool("save", false, "Write -server and -color to the config file")
	flagVersion = flag.Bool("version", false, "Print version and exit")
)

var app *tview.Application
var rootPage *tview.Pages
var gameBoard *ui.HexBoardUI
var infoPanel *ui.GameInfoPanel
var status *ui.StatusNotifier
var cfg *config.Config
var client *catanapi.Client
var debugOut *log.Logger
var session *gameSession

// gameSession is the game currently on screen.
type gameSession struct {
	ctrl       *turn.Controller
	gameID     string
	stateIndex *int
}

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("termcatan %s\n", Version)
		return
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *flagServer != "" {
		cfg.Server.URL = *flagServer
	}
	if *flagColor != "" {
		cfg.Game.Viewer = types.Color(strings.ToUpper(*flagColor))
	}
	if *flagSave {
		if err := cfg.Save(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	var closer io.Closer
	debugOut, closer = config.OpenDebugLog("")
	defer closer.Close()
	log.SetOutput(debugOut.Writer())
	log.SetFlags(debugOut.Flags())
	catanapi.SetDebugLog(log.New(debugOut.Writer(), "catanapi ", debugOut.Flags()))

	client = catanapi.NewClient(cfg.Server.URL, cfg.Server.Timeout())

	quickStart, err := buildGameConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app = tview.NewApplication()
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ⬡ termcatan ")

	hint := tview.NewTextView()
	hint.SetDynamicColors(true)
	hint.SetBorderPadding(0, 0, 1, 1)
	status = ui.NewStatusNotifier(app)
	gameBoard = ui.NewHexBoard(app, cfg, hint)

	var gameFrame *tview.Flex
	gameFrame, infoPanel = ui.CreateGameLayout(gameBoard, status, hint)

	gameBoard.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyLeft:
			gameBoard.MoveSelection(-1)
			return nil
		case tcell.KeyDown, tcell.KeyRight:
			gameBoard.MoveSelection(1)
			return nil
		case tcell.KeyEnter:
			gameBoard.PlaySelected()
			return nil
		case tcell.KeyEsc:
			gameBoard.ResetSelection()
			return nil
		case tcell.KeyRune:
		default:
			return event
		}
		switch event.Rune() {
		case 'q':
			if _, ok := gameBoard.SelectedNode(); ok {
				gameBoard.ResetSelection()
			} else {
				closeSession()
				rootPage.SwitchToPage("setup")
			}
		case 'h', 'k':
			gameBoard.MoveSelection(-1)
		case 'j', 'l':
			gameBoard.MoveSelection(1)
		case 's':
			gameBoard.ToggleMode(actions.BuildingSettlement)
		case 'c':
			gameBoard.ToggleMode(actions.BuildingCity)
		case 'e':
			gameBoard.PlayAction(types.EndTurn)
		case 'r':
			gameBoard.PlayAction(types.Roll)
		case '[':
			stepReplay(-1)
		case ']':
			stepReplay(1)
		case 'y':
			copyReference()
		default:
			return event
		}
		return nil
	})

	defaults, _ := cfg.Game.PlayerKinds()
	var setupUI *ui.GameSetupUI
	setupUI = ui.NewGameSetup(defaults,
		func(gameCfg engine.GameConfig) {
			setupUI.ResetHelp()
			startGame(gameCfg)
		},
		func() {
			app.Stop()
		},
	)
	setupUI.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			app.Stop()
			return nil
		}
		return event
	})

	rootPage.AddPage("setup", ui.CreateCenteredForm(setupUI.Form(), 60), true, quickStart == nil)
	rootPage.AddPage("gameview", gameFrame, true, quickStart != nil)

	if quickStart != nil {
		startGame(*quickStart)
	}

	if err := app.SetRoot(rootPage, true).Run(); err != nil {
		panic(err)
	}
	closeSession()
}

// startGame opens gameCfg.GameID, creating a game first when it is empty.
func startGame(gameCfg engine.GameConfig) {
	if gameCfg.Viewer == "" {
		gameCfg.Viewer = cfg.Game.Viewer
	}
	if gameCfg.GameID != "" {
		openGame(gameCfg)
		return
	}
	status.Show("Creating game...")
	go func() {
		id, err := client.CreateGame(context.Background(), gameCfg.Players)
		app.QueueUpdateDraw(func() {
			if err != nil {
				showError(err)
				return
			}
			gameCfg.GameID = id
			openGame(gameCfg)
		})
	}()
}

// openGame wires a fresh store and controller to the board.
func openGame(gameCfg engine.GameConfig) {
	closeSession()

	st := store.New()
	ctrl := turn.New(client, st, status,
		turn.WithReplay(gameCfg.Replay),
		turn.WithThinkingFloor(cfg.Game.ThinkingFloor()),
		turn.WithLogger(log.New(debugOut.Writer(), "turn ", debugOut.Flags())),
	)
	session = &gameSession{ctrl: ctrl, gameID: gameCfg.GameID, stateIndex: gameCfg.StateIndex}

	status.Clear()
	gameBoard.Attach(st, ctrl, gameCfg.Viewer, gameCfg.Replay)
	infoPanel.SetGame(session.gameID, session.stateIndex)
	ctrl.Load(session.gameID, session.stateIndex)
	rootPage.SwitchToPage("gameview")
}

func closeSession() {
	if session == nil {
		return
	}
	gameBoard.Detach()
	session.ctrl.Close()
	session = nil
}

// stepReplay moves the replayed state index by delta.
func stepReplay(delta int) {
	if session == nil || !session.ctrl.Replay() || session.stateIndex == nil {
		return
	}
	next := *session.stateIndex + delta
	if next < 0 {
		return
	}
	session.stateIndex = &next
	infoPanel.SetGame(session.gameID, session.stateIndex)
	session.ctrl.Load(session.gameID, session.stateIndex)
}

func copyReference() {
	if session == nil {
		return
	}
	if err := ui.CopyReference(session.gameID, session.stateIndex); err != nil {
		status.Show(err.Error())
		return
	}
	status.Show("Copied " + ui.GameReference(session.gameID, session.stateIndex))
}

func showError(err error) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Failed to start game:\n%s", err.Error())).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			rootPage.RemovePage("error")
		})
	rootPage.AddPage("error", modal, true, true)
}

// buildGameConfigFromFlags returns the game to open right away, or nil to
// show the setup screen.
func buildGameConfigFromFlags() (*engine.GameConfig, error) {
	gameCfg := engine.DefaultConfig()
	gameCfg.Viewer = cfg.Game.Viewer

	switch {
	case *flagGame != "":
		gameCfg.GameID = *flagGame
		gameCfg.Players = nil
		if *flagState >= 0 {
			idx := *flagState
			gameCfg.StateIndex = &idx
			gameCfg.Replay = true
		}
	case *flagMode != "":
		kinds, err := engine.PlayersFor(engine.GameMode(strings.ToUpper(*flagMode)))
		if err != nil {
			return nil, err
		}
		gameCfg.Players = kinds
	case *flagPlayers != "":
		kinds, err := engine.ParsePlayerList(*flagPlayers)
		if err != nil {
			return nil, err
		}
		gameCfg.Players = kinds
	default:
		if *flagState >= 0 {
			return nil, fmt.Errorf("-state needs -game")
		}
		return nil, nil
	}
	return &gameCfg, nil
}
