// Package actions decides which board nodes are clickable and what a click submits.
package actions

import (
	"termcatan/types"
)

// BuildMode is the local intent that selects which action family is clickable.
// It is advisory: only actions present in current_playable_actions are ever offered.
type BuildMode int

const (
	None BuildMode = iota
	BuildingSettlement
	BuildingCity
)

func (m BuildMode) String() string {
	switch m {
	case BuildingSettlement:
		return "BUILDING_SETTLEMENT"
	case BuildingCity:
		return "BUILDING_CITY"
	}
	return "NONE"
}

// Toggle returns the mode after the user presses the control for target.
// The latest toggle wins; pressing the active mode again clears it.
func (m BuildMode) Toggle(target BuildMode) BuildMode {
	if m == target {
		return None
	}
	return target
}

var initialSettlement = []types.ActionType{types.BuildFirstSettlement, types.BuildSecondSettlement}

// HumanColor returns the color the local viewer plays. A non-empty viewer
// is used as is; otherwise it is the first seat not driven by a bot.
func HumanColor(state *types.BoardState, viewer types.Color) (types.Color, bool) {
	if state == nil {
		return "", false
	}
	if viewer != "" {
		return viewer, true
	}
	for _, c := range state.Colors {
		if !state.IsBot(c) {
			return c, true
		}
	}
	return "", false
}

// IsPlayersTurn reports whether the local viewer is to move.
func IsPlayersTurn(state *types.BoardState, viewer types.Color) bool {
	color, ok := HumanColor(state, viewer)
	if !ok || state.Finished() {
		return false
	}
	return state.CurrentColor == color && !state.IsBot(color)
}

// BuildableNodeActions maps each clickable node id to the legal action a click
// on it submits. Initial placement overrides mode. When two actions target the
// same node the later one in current_playable_actions wins.
func BuildableNodeActions(state *types.BoardState, mode BuildMode, viewer types.Color) map[int]types.Action {
	nodeActions := make(map[int]types.Action)
	if !IsPlayersTurn(state, viewer) {
		return nodeActions
	}

	initial := state.Playable(initialSettlement...)
	switch {
	case len(initial) > 0:
		mapTargets(nodeActions, initial)
	case mode == BuildingSettlement:
		mapTargets(nodeActions, state.Playable(types.BuildSettlement))
	case mode == BuildingCity:
		mapTargets(nodeActions, state.Playable(types.BuildCity))
	}
	return nodeActions
}

func mapTargets(dst map[int]types.Action, actions []types.Action) {
	for _, a := range actions {
		if id, ok := a.Target(); ok {
			dst[id] = a
		}
	}
}

// InitialPlacement reports whether the compulsory initial settlement phase is active.
func InitialPlacement(state *types.BoardState) bool {
	return state != nil && len(state.Playable(initialSettlement...)) > 0
}

// PhaseChanged reports whether next starts a different phase than prev:
// another player is to move, or the family of playable action types differs.
// Build modes do not survive a phase change.
func PhaseChanged(prev, next *types.BoardState) bool {
	if prev == nil || next == nil {
		return prev != next
	}
	if prev.CurrentColor != next.CurrentColor || prev.Finished() != next.Finished() {
		return true
	}
	return !sameTypes(actionTypes(prev), actionTypes(next))
}

func actionTypes(state *types.BoardState) map[types.ActionType]bool {
	out := make(map[types.ActionType]bool)
	for _, a := range state.CurrentPlayableActions {
		out[a.Type] = true
	}
	return out
}

func sameTypes(a, b map[types.ActionType]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// Equal reports whether two clickable-node maps offer the same actions.
func Equal(a, b map[int]types.Action) bool {
	if len(a) != len(b) {
		return false
	}
	for id, action := range a {
		other, ok := b[id]
		if !ok || !action.Equal(other) {
			return false
		}
	}
	return true
}
