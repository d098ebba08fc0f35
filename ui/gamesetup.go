package ui

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termcatan/engine"
	"termcatan/types"
)

// setupModes is the order game modes appear in the dropdown.
var setupModes = []engine.GameMode{
	engine.HumanVsRandom,
	engine.HumanVsMCTS,
	engine.MCTSVsRandom,
	engine.RandomVsRandom,
}

// GameSetupUI provides a form for starting a new game or opening an existing one.
type GameSetupUI struct {
	form     *tview.Form
	flex     *tview.Flex
	help     *tview.TextView
	onStart  func(engine.GameConfig)
	onCancel func()

	players    string
	gameID     string
	viewer     string
	stateIndex string
}

// NewGameSetup creates a new game setup form. defaults seeds the player list.
func NewGameSetup(defaults []engine.PlayerKind, onStart func(engine.GameConfig), onCancel func()) *GameSetupUI {
	setup := &GameSetupUI{
		onStart:  onStart,
		onCancel: onCancel,
		players:  kindList(defaults),
	}

	modes := make([]string, 0, len(setupModes)+1)
	for _, m := range setupModes {
		modes = append(modes, string(m))
	}
	modes = append(modes, "CUSTOM")

	form := tview.NewForm()

	form.AddInputField("Players", setup.players, 30, nil, func(text string) {
		setup.players = text
	})
	players := form.GetFormItemByLabel("Players").(*tview.InputField)

	form.AddDropDown("Game Mode", modes, len(modes)-1, func(option string, index int) {
		if index >= len(setupModes) {
			return
		}
		if kinds, err := engine.PlayersFor(setupModes[index]); err == nil {
			setup.players = kindList(kinds)
			players.SetText(setup.players)
		}
	})

	form.AddInputField("Open Game ID", "", 30, nil, func(text string) {
		setup.gameID = strings.TrimSpace(text)
	})

	form.AddInputField("Replay State", "", 8, func(text string, lastChar rune) bool {
		return lastChar >= '0' && lastChar <= '9'
	}, func(text string) {
		setup.stateIndex = strings.TrimSpace(text)
	})

	form.AddInputField("Your Color", "", 10, nil, func(text string) {
		setup.viewer = strings.ToUpper(strings.TrimSpace(text))
	})

	form.AddButton("Start", func() {
		cfg, err := setup.GameConfig()
		if err != nil {
			setup.help.SetTextColor(tcell.ColorRed)
			setup.help.SetText(err.Error())
			return
		}
		onStart(cfg)
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Game ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)
	form.SetFieldBackgroundColor(MenuColors.CardBG)
	form.SetLabelColor(MenuColors.Label)

	help := tview.NewTextView().
		SetText(setupHelp).
		SetTextAlign(tview.AlignCenter)
	help.SetTextColor(MenuColors.Hint)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(help, 1, 0, false)

	setup.form = form
	setup.flex = flex
	setup.help = help
	return setup
}

const setupHelp = "Tab/Shift+Tab: navigate fields  |  Game ID empty: new game  |  Enter: confirm"

// GameConfig builds the configuration the form describes.
func (s *GameSetupUI) GameConfig() (engine.GameConfig, error) {
	cfg := engine.GameConfig{
		GameID: s.gameID,
		Viewer: types.Color(s.viewer),
	}
	if s.gameID == "" {
		kinds, err := engine.ParsePlayerList(s.players)
		if err != nil {
			return cfg, err
		}
		cfg.Players = kinds
	}
	if s.stateIndex != "" && s.gameID != "" {
		idx, err := strconv.Atoi(s.stateIndex)
		if err != nil {
			return cfg, err
		}
		cfg.StateIndex = &idx
		cfg.Replay = true
	}
	return cfg, nil
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// ResetHelp restores the default help line.
func (s *GameSetupUI) ResetHelp() {
	s.help.SetTextColor(MenuColors.Hint)
	s.help.SetText(setupHelp)
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}

func kindList(kinds []engine.PlayerKind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = string(k)
	}
	return strings.Join(s, ",")
}
