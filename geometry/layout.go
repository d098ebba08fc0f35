package geometry

import (
	"math"
	"sort"

	"termcatan/types"
)

const epsilon = 1e-6

// Layout holds the pixel geometry of one snapshot at one size.
type Layout struct {
	Size   float64
	Center Point
	Tiles  map[types.Coordinate]Point
	Nodes  map[int]Point
	Edges  map[int]Point
	Robber Point
}

// NewLayout computes pixel positions for every tile, node, edge and the robber.
// Nodes and edges with an unknown direction, and anything anchored on a
// coordinate that breaks x+y+z == 0, are left out.
func NewLayout(state *types.BoardState, size, centerX, centerY float64) *Layout {
	l := &Layout{
		Size:   size,
		Center: Point{centerX, centerY},
		Tiles:  make(map[types.Coordinate]Point),
		Nodes:  make(map[int]Point),
		Edges:  make(map[int]Point),
	}
	if state == nil || !Drawable(size) {
		return l
	}
	for _, t := range state.Tiles {
		if !t.Coordinate.Valid() {
			continue
		}
		l.Tiles[t.Coordinate] = PixelOf(t.Coordinate, size, centerX, centerY)
	}
	for id, n := range state.Nodes {
		delta, ok := NodeDelta(n.Direction, size)
		if !ok || !n.TileCoordinate.Valid() {
			continue
		}
		l.Nodes[id] = PixelOf(n.TileCoordinate, size, centerX, centerY).Add(delta)
	}
	for id, e := range state.Edges {
		delta, ok := EdgeDelta(e.Direction, size)
		if !ok || !e.TileCoordinate.Valid() {
			continue
		}
		l.Edges[id] = PixelOf(e.TileCoordinate, size, centerX, centerY).Add(delta)
	}
	l.Robber = RobberPosition(state.RobberCoordinate, size, centerX, centerY)
	return l
}

// NodeOrder returns node ids sorted top-to-bottom, then left-to-right.
func (l *Layout) NodeOrder(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := l.Nodes[id]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := l.Nodes[out[i]], l.Nodes[out[j]]
		if math.Abs(a.Y-b.Y) > epsilon {
			return a.Y < b.Y
		}
		if math.Abs(a.X-b.X) > epsilon {
			return a.X < b.X
		}
		return out[i] < out[j]
	})
	return out
}
