package config

import "termcatan/types"

// DefaultTheme returns the stock palette.
func DefaultTheme() Theme {
	return Theme{
		DrawTileBackground: true,
		ShowNodeIDs:        false,
		Colors: ConfigColors{
			Players: map[types.Color]int{
				types.Red:    160,
				types.Blue:   27,
				types.Orange: 208,
				types.White:  255,
				types.Violet: 135,
			},
			Resources: map[string]int{
				"WOOD":  28,
				"BRICK": 130,
				"SHEEP": 113,
				"WHEAT": 178,
				"ORE":   245,
			},
			Water:     24,
			Desert:    223,
			Port:      31,
			Number:    232,
			Highlight: 226,
			CursorFG:  0,
			CursorBG:  51,
			Robber:    232,
		},
		Symbols: ConfigSymbols{
			Settlement: '▲',
			City:       '■',
			EmptyNode:  '·',
			Clickable:  '◎',
			Road:       '•',
			Robber:     '♜',
		},
	}
}

// DefaultConfig returns a fresh configuration with stock values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://localhost:5001",
			TimeoutSeconds: 0,
		},
		Game: GameSettings{
			Players:         []string{"HUMAN", "RANDOM"},
			ThinkingFloorMS: 300,
		},
		Theme: DefaultTheme(),
	}
}
