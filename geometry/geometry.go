// Package geometry converts hex board coordinates to pixel positions.
//
// Hexes are pointy-top with width W = sqrt(3) * size and height H = 2 * size.
// Cube coordinates (x, y, z) map to axial (q, r) = (x, z). The math follows
// https://www.redblobgames.com/grids/hexagons/.
package geometry

import (
	"math"

	"termcatan/types"
)

// NumLevels is the board's vertical extent in hex rows: 3 rings each way
// plus half a tile of outer water ring on both sides.
const NumLevels = 6

// Sqrt3 is sqrt(3), the width/size ratio of a pointy-top hex.
var Sqrt3 = math.Sqrt(3)

// Point is a pixel position.
type Point struct {
	X float64
	Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// HexWidth is the horizontal extent of a hex of the given size.
func HexWidth(size float64) float64 { return Sqrt3 * size }

// HexHeight is the vertical extent of a hex of the given size.
func HexHeight(size float64) float64 { return 2 * size }

// PixelOf returns the pixel center of the tile at c, for a board whose
// center tile sits at (centerX, centerY).
func PixelOf(c types.Coordinate, size, centerX, centerY float64) Point {
	w := HexWidth(size)
	h := HexHeight(size)
	q := float64(c.Q())
	r := float64(c.R())
	return Point{
		X: centerX + w*q + w/2*r,
		Y: centerY + 3*h/4*r,
	}
}

// FitSize returns the largest hex size for which the whole board fits in a
// viewport of width x height. The height-derived size is preferred unless the
// board would then overflow horizontally.
//
// A non-positive result means the viewport cannot hold a board yet; see Drawable.
func FitSize(width, height float64) float64 {
	// height = NumLevels * (3h/4) + h/4 with h = 2 * size
	maxSizeByHeight := (4 * height) / (3*NumLevels + 1) / 2
	requiredWidth := NumLevels * Sqrt3 * maxSizeByHeight
	if requiredWidth < width {
		return maxSizeByHeight
	}
	return width / (NumLevels * Sqrt3)
}

// Drawable reports whether size can be used to render a board.
func Drawable(size float64) bool {
	return size > 0 && !math.IsInf(size, 0) && !math.IsNaN(size)
}

// NodeDelta returns the offset of a corner from its tile's center.
func NodeDelta(direction string, size float64) (Point, bool) {
	w := HexWidth(size)
	h := HexHeight(size)
	switch direction {
	case "NORTH":
		return Point{0, -h / 2}, true
	case "NORTHEAST":
		return Point{w / 2, -h / 4}, true
	case "SOUTHEAST":
		return Point{w / 2, h / 4}, true
	case "SOUTH":
		return Point{0, h / 2}, true
	case "SOUTHWEST":
		return Point{-w / 2, h / 4}, true
	case "NORTHWEST":
		return Point{-w / 2, -h / 4}, true
	}
	return Point{}, false
}

// edgeCorners lists the two corners each hex side joins.
var edgeCorners = map[string][2]string{
	"EAST":      {"NORTHEAST", "SOUTHEAST"},
	"SOUTHEAST": {"SOUTHEAST", "SOUTH"},
	"SOUTHWEST": {"SOUTH", "SOUTHWEST"},
	"WEST":      {"SOUTHWEST", "NORTHWEST"},
	"NORTHWEST": {"NORTHWEST", "NORTH"},
	"NORTHEAST": {"NORTH", "NORTHEAST"},
}

// EdgeDelta returns the offset of a side's midpoint from its tile's center.
func EdgeDelta(direction string, size float64) (Point, bool) {
	corners, ok := edgeCorners[direction]
	if !ok {
		return Point{}, false
	}
	a, _ := NodeDelta(corners[0], size)
	b, _ := NodeDelta(corners[1], size)
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}, true
}

// RobberPosition places the robber token left of its tile's center.
func RobberPosition(c types.Coordinate, size, centerX, centerY float64) Point {
	w := HexWidth(size)
	return PixelOf(c, size, centerX, centerY).Add(Point{-w/2 + w/8, 0})
}
