package engine

import (
	"fmt"
	"strings"
)

// PlayerKind names who controls a seat. The server picks colors in seat order.
type PlayerKind string

const (
	Human  PlayerKind = "HUMAN"
	Random PlayerKind = "RANDOM"
	MCTS   PlayerKind = "MCTS"
)

// Kinds lists the recognized player kinds.
var Kinds = []PlayerKind{Human, Random, MCTS}

const (
	MinPlayers = 2
	MaxPlayers = 4
)

// UnknownPlayerKindError is a configuration error; it is never retried.
type UnknownPlayerKindError struct {
	Kind string
}

func (e *UnknownPlayerKindError) Error() string {
	return fmt.Sprintf("unknown player kind %q (want one of %s)", e.Kind, joinKinds(Kinds))
}

// ParsePlayerKind parses a case-insensitive kind such as "mcts".
func ParsePlayerKind(s string) (PlayerKind, error) {
	k := PlayerKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", &UnknownPlayerKindError{Kind: s}
}

// ParsePlayerKinds parses an ordered seat list.
func ParsePlayerKinds(specs []string) ([]PlayerKind, error) {
	if len(specs) < MinPlayers || len(specs) > MaxPlayers {
		return nil, fmt.Errorf("need %d to %d players, got %d", MinPlayers, MaxPlayers, len(specs))
	}
	kinds := make([]PlayerKind, 0, len(specs))
	for _, s := range specs {
		k, err := ParsePlayerKind(s)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ParsePlayerList parses a comma separated seat list, e.g. "HUMAN,MCTS".
func ParsePlayerList(list string) ([]PlayerKind, error) {
	return ParsePlayerKinds(strings.Split(list, ","))
}

// GameMode is a named preset of seats.
type GameMode string

const (
	RandomVsRandom GameMode = "RANDOM_VS_RANDOM"
	MCTSVsRandom   GameMode = "MCTS_VS_RANDOM"
	HumanVsRandom  GameMode = "HUMAN_VS_RANDOM"
	HumanVsMCTS    GameMode = "HUMAN_VS_MCTS"
)

// GameModes maps each preset to its seats. The HUMAN_VS_* presets need a
// server that accepts a HUMAN seat and leaves it out of bot_colors.
var GameModes = map[GameMode][]PlayerKind{
	RandomVsRandom: {Random, Random},
	MCTSVsRandom:   {MCTS, Random},
	HumanVsRandom:  {Human, Random},
	HumanVsMCTS:    {Human, MCTS},
}

// PlayersFor returns the seats of mode.
func PlayersFor(mode GameMode) ([]PlayerKind, error) {
	players, ok := GameModes[mode]
	if !ok {
		return nil, fmt.Errorf("invalid game mode %q", mode)
	}
	return append([]PlayerKind(nil), players...), nil
}

func joinKinds(kinds []PlayerKind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = string(k)
	}
	return strings.Join(s, ", ")
}
