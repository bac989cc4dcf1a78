package grid

// Tag classifies what occupies a tile.
type Tag uint8

const (
	TagFree Tag = iota
	TagObstacle
	TagActor
	TagPlayer
)

func (t Tag) String() string {
	switch t {
	case TagFree:
		return "free"
	case TagObstacle:
		return "obstacle"
	case TagActor:
		return "actor"
	case TagPlayer:
		return "player"
	}
	return "unknown"
}

// Handle is a stable opaque reference into the grid's entity table. The zero
// handle means no owner.
type Handle uint32

// TileState records the occupancy of a single tile.
// Invariant: Tag == TagFree exactly when Owner == 0.
type TileState struct {
	Tag   Tag
	Owner Handle
}
