// Package types contains shared data structures for termcatan.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Color identifies a seat at the table.
type Color string

const (
	Red    Color = "RED"
	Blue   Color = "BLUE"
	Orange Color = "ORANGE"
	White  Color = "WHITE"
	Violet Color = "VIOLET"
)

// ActionType is the kind of move in a legal action tuple.
type ActionType string

const (
	Roll                  ActionType = "ROLL"
	MoveRobber            ActionType = "MOVE_ROBBER"
	Discard               ActionType = "DISCARD"
	BuildFirstSettlement  ActionType = "BUILD_FIRST_SETTLEMENT"
	BuildSecondSettlement ActionType = "BUILD_SECOND_SETTLEMENT"
	BuildInitialRoad      ActionType = "BUILD_INITIAL_ROAD"
	BuildRoad             ActionType = "BUILD_ROAD"
	BuildSettlement       ActionType = "BUILD_SETTLEMENT"
	BuildCity             ActionType = "BUILD_CITY"
	BuyDevelopmentCard    ActionType = "BUY_DEVELOPMENT_CARD"
	PlayKnightCard        ActionType = "PLAY_KNIGHT_CARD"
	PlayYearOfPlenty      ActionType = "PLAY_YEAR_OF_PLENTY"
	PlayMonopoly          ActionType = "PLAY_MONOPOLY"
	PlayRoadBuilding      ActionType = "PLAY_ROAD_BUILDING"
	MaritimeTrade         ActionType = "MARITIME_TRADE"
	OfferTrade            ActionType = "OFFER_TRADE"
	EndTurn               ActionType = "END_TURN"
)

// Coordinate is a cube hex coordinate (x, y, z) with x+y+z == 0.
// It decodes directly from the JSON array form [x, y, z].
type Coordinate [3]int

// Valid reports whether the sum-to-zero invariant holds.
func (c Coordinate) Valid() bool {
	return c[0]+c[1]+c[2] == 0
}

// Q returns the axial column.
func (c Coordinate) Q() int { return c[0] }

// R returns the axial row.
func (c Coordinate) R() int { return c[2] }

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2])
}

// Action is a legal action tuple [color, actionType, value, ...].
// Value holds the compacted raw JSON of the third element so a submitted
// action is byte-for-byte the tuple the rules engine offered.
type Action struct {
	Color Color
	Type  ActionType
	Value json.RawMessage
	Extra []json.RawMessage
}

// NewAction builds an action targeting a node or edge id.
func NewAction(color Color, actionType ActionType, target int) Action {
	return Action{
		Color: color,
		Type:  actionType,
		Value: json.RawMessage(fmt.Sprintf("%d", target)),
	}
}

// Target returns the node or edge id the action targets.
// ok is false for non-targeted actions.
func (a Action) Target() (id int, ok bool) {
	if len(a.Value) == 0 || bytes.Equal(a.Value, []byte("null")) {
		return 0, false
	}
	if err := json.Unmarshal(a.Value, &id); err != nil {
		return 0, false
	}
	return id, true
}

// Equal compares two tuples element by element.
func (a Action) Equal(b Action) bool {
	if a.Color != b.Color || a.Type != b.Type || len(a.Extra) != len(b.Extra) {
		return false
	}
	if !rawEqual(a.Value, b.Value) {
		return false
	}
	for i := range a.Extra {
		if !rawEqual(a.Extra[i], b.Extra[i]) {
			return false
		}
	}
	return true
}

func (a Action) String() string {
	if len(a.Value) == 0 {
		return fmt.Sprintf("%s %s", a.Color, a.Type)
	}
	return fmt.Sprintf("%s %s %s", a.Color, a.Type, a.Value)
}

// UnmarshalJSON allows Action to be unmarshaled from a JSON array.
func (a *Action) UnmarshalJSON(data []byte) error {
	var v []json.RawMessage
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) < 2 {
		return fmt.Errorf("action tuple needs at least 2 elements, got %d", len(v))
	}
	*a = Action{}
	if err := json.Unmarshal(v[0], &a.Color); err != nil {
		return fmt.Errorf("action color: %w", err)
	}
	if err := json.Unmarshal(v[1], &a.Type); err != nil {
		return fmt.Errorf("action type: %w", err)
	}
	if len(v) > 2 {
		a.Value = compact(v[2])
	}
	for _, extra := range v[min(len(v), 3):] {
		a.Extra = append(a.Extra, compact(extra))
	}
	return nil
}

// MarshalJSON writes the tuple form back out.
func (a Action) MarshalJSON() ([]byte, error) {
	v := []any{a.Color, a.Type}
	if len(a.Value) > 0 {
		v = append(v, a.Value)
	} else {
		v = append(v, nil)
	}
	for _, extra := range a.Extra {
		v = append(v, extra)
	}
	return json.Marshal(v)
}

// Player is per-seat metadata.
type Player struct {
	Color Color  `json:"color"`
	Kind  string `json:"kind"`
}

// Tile is the content of one board hex.
type Tile struct {
	ID        int    `json:"id"`
	Type      string `json:"type"` // RESOURCE_TILE, DESERT, PORT, WATER
	Resource  string `json:"resource"`
	Number    int    `json:"number"`
	Direction string `json:"direction"`
}

// TileEntry pairs a tile with its coordinate.
type TileEntry struct {
	Coordinate Coordinate `json:"coordinate"`
	Tile       Tile       `json:"tile"`
}

// Node is a vertex of the grid where settlements and cities go.
type Node struct {
	ID             int        `json:"id"`
	Color          Color      `json:"color"`
	Building       string     `json:"building"` // "", SETTLEMENT, CITY
	Direction      string     `json:"direction"`
	TileCoordinate Coordinate `json:"tile_coordinate"`
}

// Edge is a tile side where roads go.
type Edge struct {
	ID             int        `json:"id"`
	Color          Color      `json:"color"`
	Direction      string     `json:"direction"`
	TileCoordinate Coordinate `json:"tile_coordinate"`
}

// BoardState is a full game snapshot as produced by the rules engine.
// Snapshots are replaced wholesale and must not be mutated once published.
type BoardState struct {
	Colors                 []Color      `json:"colors"`
	Players                []Player     `json:"players"`
	Tiles                  []TileEntry  `json:"tiles"`
	Nodes                  map[int]Node `json:"nodes"`
	Edges                  map[int]Edge `json:"edges"`
	RobberCoordinate       Coordinate   `json:"robber_coordinate"`
	CurrentColor           Color        `json:"current_color"`
	BotColors              []Color      `json:"bot_colors"`
	WinningColor           Color        `json:"winning_color"`
	CurrentPlayableActions []Action     `json:"current_playable_actions"`
	Actions                []Action     `json:"actions"`

	// PlayerState is the engine's flat per-seat table, keyed "P<seat>_<STAT>",
	// e.g. P0_WOOD_IN_HAND. Values are numbers or booleans.
	PlayerState map[string]any `json:"player_state"`
}

// Resources and DevelopmentCards name the hand counters in PlayerState.
var (
	Resources        = []string{"WOOD", "BRICK", "SHEEP", "WHEAT", "ORE"}
	DevelopmentCards = []string{"KNIGHT", "YEAR_OF_PLENTY", "MONOPOLY", "ROAD_BUILDING", "VICTORY_POINT"}
)

// Finished returns true if the game has a winner.
func (b *BoardState) Finished() bool {
	return b.WinningColor != ""
}

// IsBot reports whether color is controlled by an automated player.
func (b *BoardState) IsBot(color Color) bool {
	for _, c := range b.BotColors {
		if c == color {
			return true
		}
	}
	return false
}

// BotToMove reports whether the game is unfinished and an automated player is to move.
func (b *BoardState) BotToMove() bool {
	return !b.Finished() && b.IsBot(b.CurrentColor)
}

// Player returns the metadata for color.
func (b *BoardState) Player(color Color) (Player, bool) {
	for _, p := range b.Players {
		if p.Color == color {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerKey returns color's prefix in PlayerState: "P" and its seat index.
func (b *BoardState) PlayerKey(color Color) (string, bool) {
	for i, c := range b.Colors {
		if c == color {
			return "P" + strconv.Itoa(i), true
		}
	}
	return "", false
}

// PlayerStat reads one of color's PlayerState entries, e.g. "WOOD_IN_HAND".
// Booleans read as 0 or 1.
func (b *BoardState) PlayerStat(color Color, stat string) (int, bool) {
	key, ok := b.PlayerKey(color)
	if !ok {
		return 0, false
	}
	switch v := b.PlayerState[key+"_"+stat].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// TileAt returns the tile at coordinate c.
func (b *BoardState) TileAt(c Coordinate) (Tile, bool) {
	for _, t := range b.Tiles {
		if t.Coordinate == c {
			return t.Tile, true
		}
	}
	return Tile{}, false
}

// Playable returns the legal actions of the given types, in order.
func (b *BoardState) Playable(types ...ActionType) []Action {
	var out []Action
	for _, a := range b.CurrentPlayableActions {
		for _, t := range types {
			if a.Type == t {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// IsPlayable reports whether action is one of the current legal actions.
func (b *BoardState) IsPlayable(action Action) bool {
	for _, a := range b.CurrentPlayableActions {
		if a.Equal(action) {
			return true
		}
	}
	return false
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return append(json.RawMessage(nil), raw...)
	}
	return buf.Bytes()
}

func rawEqual(a, b json.RawMessage) bool {
	isNull := func(r json.RawMessage) bool {
		return len(r) == 0 || bytes.Equal(r, []byte("null"))
	}
	if isNull(a) || isNull(b) {
		return isNull(a) && isNull(b)
	}
	return bytes.Equal(compact(a), compact(b))
}
