// Package engine defines the contracts of the remote game server and the notification sink.
package engine

import (
	"context"

	"termcatan/types"
)

// StateProvider is the remote rules engine.
type StateProvider interface {
	// QueryState returns the snapshot at stateIndex, or the latest one when stateIndex is nil.
	QueryState(ctx context.Context, gameID string, stateIndex *int) (*types.BoardState, error)

	// SubmitAction applies action and returns the new snapshot.
	// A nil action lets the current automated player pick and play its own move.
	SubmitAction(ctx context.Context, gameID string, action *types.Action) (*types.BoardState, error)

	// CreateGame starts a game with one seat per player kind and returns its id.
	CreateGame(ctx context.Context, players []PlayerKind) (string, error)
}

// Notifier is the user-visible notification channel. Calls are fire-and-forget.
type Notifier interface {
	// NotifyTurnChange is called when control passes to a human.
	NotifyTurnChange(state *types.BoardState)

	// NotifyError reports a failed query or submission.
	NotifyError(err error)
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	TurnChange func(state *types.BoardState)
	Error      func(err error)
}

func (n NotifierFuncs) NotifyTurnChange(state *types.BoardState) {
	if n.TurnChange != nil {
		n.TurnChange(state)
	}
}

func (n NotifierFuncs) NotifyError(err error) {
	if n.Error != nil {
		n.Error(err)
	}
}

// GameConfig holds what is needed to open a game screen.
type GameConfig struct {
	Players    []PlayerKind // used when GameID is empty
	GameID     string       // existing game to open
	StateIndex *int         // nil means latest
	Viewer     types.Color  // empty means the first human seat
	Replay     bool         // freeze automatic play
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() GameConfig {
	return GameConfig{
		Players: []PlayerKind{Human, Random},
	}
}
