package geom

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Rect is an inclusive rectangle of tile indices.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// TileRect returns the minimal set of tiles covered by a pixel footprint.
// Near edges floor and far edges ceil, so a footprint flush against a tile
// boundary does not spill into the next tile.
func TileRect(topLeft cp.Vector, width, height float64, tileSize int) Rect {
	ts := float64(tileSize)
	return Rect{
		Left:   int(math.Floor(topLeft.X / ts)),
		Top:    int(math.Floor(topLeft.Y / ts)),
		Right:  int(math.Ceil((topLeft.X+width)/ts)) - 1,
		Bottom: int(math.Ceil((topLeft.Y+height)/ts)) - 1,
	}
}

// Tile returns the tile coordinates containing a pixel point.
func Tile(p cp.Vector, tileSize int) (int, int) {
	ts := float64(tileSize)
	return int(math.Floor(p.X / ts)), int(math.Floor(p.Y / ts))
}

// TileOrigin returns the top-left pixel of a tile.
func TileOrigin(x, y, tileSize int) cp.Vector {
	return cp.Vector{X: float64(x * tileSize), Y: float64(y * tileSize)}
}

// Empty reports whether the rectangle covers no tiles.
func (r Rect) Empty() bool {
	return r.Right < r.Left || r.Bottom < r.Top
}

// Contains reports whether the tile coordinates fall inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Intersects reports whether two tile rectangles share any tile.
func (r Rect) Intersects(other Rect) bool {
	return r.Left <= other.Right &&
		r.Right >= other.Left &&
		r.Top <= other.Bottom &&
		r.Bottom >= other.Top
}
