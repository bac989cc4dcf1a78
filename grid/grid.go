package grid

import (
	"github.com/jakecoffman/cp"

	"github.com/solanin/tileworld/geom"
	"github.com/solanin/tileworld/pathfind"
)

// MapData supplies the static layout of a loaded map. It is consumed once per
// SetMapData; runtime terrain changes require a full map reload.
type MapData interface {
	Name() string
	// Size is the map extent in tiles.
	Size() (width, height int)
	// TileSize is the movement tile granularity in pixels.
	TileSize() int
	// Passable reports static walkability, ignoring entities.
	Passable(x, y int) bool
}

type actorRecord struct {
	actor    Actor
	tag      Tag
	location cp.Vector // committed top-left, in pixels
}

// EntityGrid owns tile occupancy for a map and is the only component that
// mutates it. Every occupancy change is all-or-nothing: when any covered tile
// fails the transition check, no tile is touched. Expected conflicts report
// false; broken caller invariants panic.
type EntityGrid struct {
	mapData  MapData
	width    int
	height   int
	tileSize int

	tiles      []TileState
	pathfinder *pathfind.Pathfinder

	nextHandle Handle
	actors     map[Handle]*actorRecord
	handles    map[Actor]Handle
	obstacles  []*Obstacle
}

func NewEntityGrid() *EntityGrid {
	return &EntityGrid{
		pathfinder: pathfind.New(),
		actors:     map[Handle]*actorRecord{},
		handles:    map[Actor]Handle{},
	}
}

// SetMapData rebuilds the occupancy grid for a new map and reinitializes the
// embedded pathfinder from the map's static walkability. All prior obstacle
// and actor registrations are discarded.
func (g *EntityGrid) SetMapData(m MapData) {
	if m == nil {
		panic("grid: nil map data")
	}
	w, h := m.Size()
	ts := m.TileSize()
	if w <= 0 || h <= 0 || ts <= 0 {
		panic("grid: invalid map dimensions")
	}

	g.mapData = m
	g.width = w
	g.height = h
	g.tileSize = ts
	g.tiles = make([]TileState, w*h)
	g.nextHandle = 0
	g.actors = map[Handle]*actorRecord{}
	g.handles = map[Actor]Handle{}
	g.obstacles = nil

	walkable := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			walkable[y*w+x] = m.Passable(x, y)
		}
	}
	g.pathfinder.Initialize(walkable, ts, w, h)
}

// MapName returns the name of the loaded map, or "" before SetMapData.
func (g *EntityGrid) MapName() string {
	if g.mapData == nil {
		return ""
	}
	return g.mapData.Name()
}

// Width is the map width in tiles.
func (g *EntityGrid) Width() int { return g.width }

// Height is the map height in tiles.
func (g *EntityGrid) Height() int { return g.height }

// TileSize is the movement tile granularity in pixels.
func (g *EntityGrid) TileSize() int { return g.tileSize }

// WithinMap reports whether a pixel point lies inside the map bounds.
func (g *EntityGrid) WithinMap(p cp.Vector) bool {
	return p.X >= 0 && p.Y >= 0 &&
		p.X < float64(g.width*g.tileSize) && p.Y < float64(g.height*g.tileSize)
}

// TileAt returns a copy of the tile state at tile coordinates, and false when
// the coordinates fall outside the map.
func (g *EntityGrid) TileAt(x, y int) (TileState, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return TileState{}, false
	}
	return g.tiles[y*g.width+x], true
}

// CanOccupyArea reports whether the pixel footprint could transition to the
// given state. Nothing is mutated.
func (g *EntityGrid) CanOccupyArea(topLeft cp.Vector, width, height float64, state TileState) bool {
	r, ok := g.tileRect(topLeft, width, height)
	return ok && g.canOccupy(r, state)
}

// OccupyArea marks every tile under the footprint with state. All-or-nothing:
// on failure the grid is left unchanged.
func (g *EntityGrid) OccupyArea(topLeft cp.Vector, width, height float64, state TileState) bool {
	r, ok := g.tileRect(topLeft, width, height)
	if !ok || !g.canOccupy(r, state) {
		return false
	}
	g.setArea(r, state)
	return true
}

// FreeArea releases the footprint's tiles held by owner. Tiles held by other
// owners are left untouched.
func (g *EntityGrid) FreeArea(topLeft cp.Vector, width, height float64, owner Handle) {
	r, ok := g.tileRect(topLeft, width, height)
	if !ok {
		return
	}
	g.freeOwned(r, nil, owner)
}

// IsAreaFree reports whether a pixel footprint is entirely passable and
// unoccupied.
func (g *EntityGrid) IsAreaFree(topLeft cp.Vector, width, height float64) bool {
	return g.CanOccupyArea(topLeft, width, height, TileState{})
}

// AddObstacle claims the tiles under an obstacle's footprint and registers it
// for per-frame stepping. Obstacles persist for the map's lifetime.
func (g *EntityGrid) AddObstacle(o *Obstacle) bool {
	if o == nil {
		return false
	}
	at := geom.TileOrigin(o.TileX(), o.TileY(), g.tileSize)
	if !g.OccupyArea(at, o.Width(), o.Height(), TileState{Tag: TagObstacle, Owner: g.allocHandle()}) {
		return false
	}
	g.obstacles = append(g.obstacles, o)
	return true
}

// AddActor registers a mobile entity and claims its footprint at the given
// location. tag must be TagActor or TagPlayer. Returns false when the actor
// is already registered or the area is blocked.
func (g *EntityGrid) AddActor(a Actor, at cp.Vector, tag Tag) bool {
	if a == nil {
		return false
	}
	if tag != TagActor && tag != TagPlayer {
		panic("grid: actor tag must be TagActor or TagPlayer")
	}
	if _, ok := g.handles[a]; ok {
		return false
	}
	w, h := a.Size()
	handle := g.allocHandle()
	if !g.OccupyArea(at, w, h, TileState{Tag: tag, Owner: handle}) {
		return false
	}
	g.actors[handle] = &actorRecord{actor: a, tag: tag, location: at}
	g.handles[a] = handle
	return true
}

// RemoveActor frees every tile held by the actor and drops it from the entity
// table. Callers must remove an actor before destroying it. Unregistered
// actors are ignored.
func (g *EntityGrid) RemoveActor(a Actor) {
	handle, ok := g.handles[a]
	if !ok {
		return
	}
	for i := range g.tiles {
		if g.tiles[i].Owner == handle {
			g.tiles[i] = TileState{}
		}
	}
	delete(g.actors, handle)
	delete(g.handles, a)
}

// ChangeActorLocation relocates a registered actor instantly. The destination
// is checked before any mutation, so a blocked destination leaves the source
// claim and the rest of the grid untouched.
func (g *EntityGrid) ChangeActorLocation(a Actor, dst cp.Vector) bool {
	handle, rec := g.mustHandle(a)
	w, h := a.Size()
	if !g.OccupyArea(dst, w, h, TileState{Tag: rec.tag, Owner: handle}) {
		return false
	}
	dstRect, _ := g.tileRect(dst, w, h)
	if srcRect, ok := g.tileRect(rec.location, w, h); ok {
		g.freeOwned(srcRect, &dstRect, handle)
	}
	rec.location = dst
	return true
}

// BeginMovement reserves the destination footprint while the source claim
// stays in place, so no other entity can be granted either area mid-move.
// After a successful begin, exactly one of AbortMovement or EndMovement must
// follow; the grid does not time out reservations.
func (g *EntityGrid) BeginMovement(a Actor, dst cp.Vector) bool {
	handle, rec := g.mustHandle(a)
	w, h := a.Size()
	return g.OccupyArea(dst, w, h, TileState{Tag: rec.tag, Owner: handle})
}

// AbortMovement resolves an interrupted move: the destination reservation is
// released and the actor keeps sole occupancy at the source.
func (g *EntityGrid) AbortMovement(a Actor, src, dst cp.Vector) {
	g.resolveMovement(a, dst, src)
}

// EndMovement resolves a completed move: the source claim is released and the
// actor keeps sole occupancy at the destination.
func (g *EntityGrid) EndMovement(a Actor, src, dst cp.Vector) {
	g.resolveMovement(a, src, dst)
}

// resolveMovement frees the released area except where it overlaps the kept
// area, then commits the kept location.
func (g *EntityGrid) resolveMovement(a Actor, release, keep cp.Vector) {
	handle, rec := g.mustHandle(a)
	w, h := a.Size()
	releaseRect, okRelease := g.tileRect(release, w, h)
	keepRect, okKeep := g.tileRect(keep, w, h)
	if !okRelease || !okKeep {
		panic("grid: movement area out of bounds")
	}
	g.freeOwned(releaseRect, &keepRect, handle)
	rec.location = keep
}

// GetAdjacentActor returns the actor occupying the tiles immediately in front
// of a, per its facing, or nil when nothing is there.
func (g *EntityGrid) GetAdjacentActor(a Actor) Actor {
	handle, _ := g.mustHandle(a)
	dx, dy := a.Facing().Delta()
	if dx == 0 && dy == 0 {
		return nil
	}
	w, h := a.Size()
	probe := a.Position().Add(cp.Vector{X: float64(dx * g.tileSize), Y: float64(dy * g.tileSize)})
	r, ok := g.tileRect(probe, w, h)
	if !ok {
		return nil
	}
	for y := r.Top; y <= r.Bottom; y++ {
		for x := r.Left; x <= r.Right; x++ {
			t := g.tiles[y*g.width+x]
			if t.Owner == 0 || t.Owner == handle {
				continue
			}
			if rec, found := g.actors[t.Owner]; found {
				return rec.actor
			}
		}
	}
	return nil
}

// MoveToClosestPoint slides the actor one tile step at a time along the given
// direction, committing the last position the footprint still fits, up to
// distance pixels. Returns the committed position.
func (g *EntityGrid) MoveToClosestPoint(a Actor, xDir, yDir, distance int) cp.Vector {
	handle, rec := g.mustHandle(a)
	w, h := a.Size()
	state := TileState{Tag: rec.tag, Owner: handle}

	best := rec.location
	for moved := g.tileSize; moved <= distance; moved += g.tileSize {
		next := cp.Vector{
			X: rec.location.X + float64(sign(xDir)*moved),
			Y: rec.location.Y + float64(sign(yDir)*moved),
		}
		if !g.CanOccupyArea(next, w, h, state) {
			break
		}
		best = next
	}
	if best == rec.location {
		return best
	}
	if !g.ChangeActorLocation(a, best) {
		panic("grid: checked slide destination could not be occupied")
	}
	return best
}

// Step advances per-frame obstacle logic. Occupancy never changes here.
func (g *EntityGrid) Step(timePassed int64) {
	for _, o := range g.obstacles {
		o.Step(timePassed)
	}
}

// FindBestPath returns the static best path between two pixel points,
// ignoring entities.
func (g *EntityGrid) FindBestPath(src, dst cp.Vector) pathfind.Path {
	return g.pathfinder.FindBestPath(src, dst)
}

// FindReroutedPath plans around live occupancy for a registered actor,
// starting from its live position. The result is a snapshot; callers still
// reserve tiles through the movement protocol before acting on it.
func (g *EntityGrid) FindReroutedPath(a Actor, dst cp.Vector) pathfind.Path {
	handle, _ := g.mustHandle(a)
	w, h := a.Size()
	return g.pathfinder.FindReroutedPath(occupancyView{g: g, owner: handle}, a.Position(), dst, w, h)
}

// FindReroutedPathArea plans around live occupancy for an arbitrary footprint
// not bound to a registered entity.
func (g *EntityGrid) FindReroutedPathArea(src, dst cp.Vector, width, height float64) pathfind.Path {
	return g.pathfinder.FindReroutedPath(occupancyView{g: g}, src, dst, width, height)
}

// occupancyView is the read-only capability handed to the pathfinder. Tiles
// held by owner count as free so an entity can route across its own
// footprint.
type occupancyView struct {
	g     *EntityGrid
	owner Handle
}

func (v occupancyView) FootprintFits(topLeft cp.Vector, width, height float64) bool {
	g := v.g
	r := geom.TileRect(topLeft, width, height, g.tileSize)
	if r.Left < 0 || r.Top < 0 || r.Right >= g.width || r.Bottom >= g.height {
		return false
	}
	for y := r.Top; y <= r.Bottom; y++ {
		for x := r.Left; x <= r.Right; x++ {
			if !g.mapData.Passable(x, y) {
				return false
			}
			t := g.tiles[y*g.width+x]
			if t.Tag != TagFree && t.Owner != v.owner {
				return false
			}
		}
	}
	return true
}

// tileRect maps a pixel footprint to its covering tile rectangle. ok is false
// when the rectangle falls outside the map.
func (g *EntityGrid) tileRect(topLeft cp.Vector, width, height float64) (geom.Rect, bool) {
	if g.tiles == nil {
		panic("grid: no map data set")
	}
	r := geom.TileRect(topLeft, width, height, g.tileSize)
	if r.Empty() {
		panic("grid: footprint covers no tiles")
	}
	if r.Left < 0 || r.Top < 0 || r.Right >= g.width || r.Bottom >= g.height {
		return geom.Rect{}, false
	}
	return r, true
}

func (g *EntityGrid) canOccupy(r geom.Rect, state TileState) bool {
	for y := r.Top; y <= r.Bottom; y++ {
		for x := r.Left; x <= r.Right; x++ {
			if !g.mapData.Passable(x, y) {
				return false
			}
			t := g.tiles[y*g.width+x]
			if t.Tag != TagFree && t.Owner != state.Owner {
				return false
			}
		}
	}
	return true
}

func (g *EntityGrid) setArea(r geom.Rect, state TileState) {
	if (state.Tag == TagFree) != (state.Owner == 0) {
		panic("grid: tile state breaks the free/owner invariant")
	}
	for y := r.Top; y <= r.Bottom; y++ {
		for x := r.Left; x <= r.Right; x++ {
			g.tiles[y*g.width+x] = state
		}
	}
}

// freeOwned clears owner's tiles inside r, skipping any tile inside keep.
func (g *EntityGrid) freeOwned(r geom.Rect, keep *geom.Rect, owner Handle) {
	for y := r.Top; y <= r.Bottom; y++ {
		for x := r.Left; x <= r.Right; x++ {
			if keep != nil && keep.Contains(x, y) {
				continue
			}
			i := y*g.width + x
			if g.tiles[i].Owner == owner {
				g.tiles[i] = TileState{}
			}
		}
	}
}

func (g *EntityGrid) allocHandle() Handle {
	g.nextHandle++
	return g.nextHandle
}

func (g *EntityGrid) mustHandle(a Actor) (Handle, *actorRecord) {
	h, ok := g.handles[a]
	if !ok {
		panic("grid: actor not registered")
	}
	return h, g.actors[h]
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
