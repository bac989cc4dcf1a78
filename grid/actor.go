package grid

import "github.com/jakecoffman/cp"

// Direction is an 8-way facing used for adjacency queries and sliding moves.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
	DirUpLeft
	DirUpRight
	DirDownLeft
	DirDownRight
)

// Delta returns the unit tile offset for the direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	case DirUpLeft:
		return -1, -1
	case DirUpRight:
		return 1, -1
	case DirDownLeft:
		return -1, 1
	case DirDownRight:
		return 1, 1
	}
	return 0, 0
}

// Actor is a mobile entity tracked by the grid. Implementations own their
// live pixel position and facing; the grid keeps a separate committed
// location per actor and never mutates the actor itself.
type Actor interface {
	// Position is the live top-left pixel location.
	Position() cp.Vector
	// Size is the pixel footprint.
	Size() (width, height float64)
	// Facing is the last-faced direction, used by adjacency queries.
	Facing() Direction
}
