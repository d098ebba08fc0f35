package ui

import "github.com/gdamore/tcell/v2"

// MenuColors is the palette of the setup screen.
var MenuColors = struct {
	CardBG     tcell.Color // field background
	Label      tcell.Color
	Hint       tcell.Color
	ButtonBG   tcell.Color
	ButtonText tcell.Color
}{
	CardBG:     tcell.PaletteColor(236),
	Label:      tcell.PaletteColor(250),
	Hint:       tcell.PaletteColor(245),
	ButtonBG:   tcell.PaletteColor(94), // brick
	ButtonText: tcell.PaletteColor(255),
}
