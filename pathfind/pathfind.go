package pathfind

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/solanin/tileworld/geom"
)

// Path is an ordered list of pixel waypoints, exclusive of the source tile
// and inclusive of the destination tile. Empty means no route, and a query
// whose endpoints share a tile is also empty; callers that need to tell a
// trivially complete route from a failed one compare the endpoint tiles
// first.
type Path []cp.Vector

// Occupancy is the narrow view of live tile occupancy that dynamic path
// queries need. The grid binds the moving entity into the check so it can
// route across its own footprint.
type Occupancy interface {
	// FootprintFits reports whether the full pixel footprint anchored at
	// topLeft is clear for the querying entity.
	FootprintFits(topLeft cp.Vector, width, height float64) bool
}

const unreachable = float32(math.MaxFloat32)

const root2 = float32(math.Sqrt2)

type step struct {
	dx, dy   int
	cost     float32
	diagonal bool
}

var steps = [8]step{
	{0, -1, 1, false},
	{0, 1, 1, false},
	{-1, 0, 1, false},
	{1, 0, 1, false},
	{-1, -1, root2, true},
	{1, -1, root2, true},
	{-1, 1, root2, true},
	{1, 1, root2, true},
}

// Pathfinder precomputes all-pairs best paths over the static tile graph and
// answers both static and dynamic (footprint-aware) path queries. It holds no
// entity state; dynamic queries read occupancy through the Occupancy view.
type Pathfinder struct {
	tileSize int
	width    int
	height   int

	walkable []bool    // static map passability, row-major
	dist     []float32 // T*T best-path distances in tile steps
	next     []int32   // T*T successors, -1 when none
	ready    bool
}

func New() *Pathfinder {
	return &Pathfinder{}
}

// Ready reports whether matrices have been built for a map. Path queries on
// an unready pathfinder return empty results.
func (p *Pathfinder) Ready() bool {
	return p != nil && p.ready
}

// Initialize builds the static 8-neighbor tile graph (cardinal cost 1,
// diagonal cost sqrt 2, edges to or through unwalkable tiles excluded) and
// runs the Roy-Floyd-Warshall all-pairs computation. Prior matrices are
// discarded first. Cost is O(T^3) in the tile count, paid once per map load.
func (p *Pathfinder) Initialize(walkable []bool, tileSize, width, height int) {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		panic("pathfind: non-positive grid dimensions")
	}
	if len(walkable) != width*height {
		panic("pathfind: walkable length does not match grid dimensions")
	}

	p.tileSize = tileSize
	p.width = width
	p.height = height
	p.walkable = make([]bool, len(walkable))
	copy(p.walkable, walkable)
	p.dist = nil
	p.next = nil
	p.ready = false

	p.buildMatrices()
	p.ready = true
}

func (p *Pathfinder) buildMatrices() {
	t := p.width * p.height
	p.dist = make([]float32, t*t)
	p.next = make([]int32, t*t)
	for i := range p.dist {
		p.dist[i] = unreachable
		p.next[i] = -1
	}

	for i := 0; i < t; i++ {
		if !p.walkable[i] {
			continue
		}
		p.dist[i*t+i] = 0
		p.next[i*t+i] = int32(i)

		x := i % p.width
		y := i / p.width
		for _, st := range steps {
			nx, ny := x+st.dx, y+st.dy
			if !p.walkableAt(nx, ny) {
				continue
			}
			if st.diagonal && !(p.walkableAt(nx, y) && p.walkableAt(x, ny)) {
				continue
			}
			j := ny*p.width + nx
			p.dist[i*t+j] = st.cost
			p.next[i*t+j] = int32(j)
		}
	}

	for k := 0; k < t; k++ {
		if !p.walkable[k] {
			continue
		}
		for i := 0; i < t; i++ {
			dik := p.dist[i*t+k]
			if dik == unreachable {
				continue
			}
			for j := 0; j < t; j++ {
				dkj := p.dist[k*t+j]
				if dkj == unreachable {
					continue
				}
				if d := dik + dkj; d < p.dist[i*t+j] {
					p.dist[i*t+j] = d
					p.next[i*t+j] = p.next[i*t+k]
				}
			}
		}
	}
}

// FindBestPath walks the precomputed successor matrix from src to dst and
// returns pixel waypoints, ignoring dynamic occupancy. Empty when either
// endpoint is outside the map, when dst is statically unreachable, or when
// both endpoints share a tile.
func (p *Pathfinder) FindBestPath(src, dst cp.Vector) Path {
	if !p.Ready() {
		return nil
	}
	from := p.tileNum(src)
	to := p.tileNum(dst)
	if from < 0 || to < 0 {
		return nil
	}
	t := p.width * p.height
	if p.dist[from*t+to] == unreachable {
		return nil
	}

	path := make(Path, 0, 16)
	for cur := from; cur != to; {
		cur = int(p.next[cur*t+to])
		path = append(path, p.tilePixels(cur))
	}
	return path
}

// Distance returns the precomputed static best-path cost between two pixel
// locations in tile steps, or +Inf when unreachable.
func (p *Pathfinder) Distance(src, dst cp.Vector) float64 {
	if !p.Ready() {
		return math.Inf(1)
	}
	from := p.tileNum(src)
	to := p.tileNum(dst)
	if from < 0 || to < 0 {
		return math.Inf(1)
	}
	d := p.dist[from*(p.width*p.height)+to]
	if d == unreachable {
		return math.Inf(1)
	}
	return float64(d)
}

// TileSize returns the movement tile granularity the matrices were built for.
func (p *Pathfinder) TileSize() int {
	return p.tileSize
}

func (p *Pathfinder) walkableAt(x, y int) bool {
	return x >= 0 && y >= 0 && x < p.width && y < p.height && p.walkable[y*p.width+x]
}

func (p *Pathfinder) tileNum(pt cp.Vector) int {
	x, y := geom.Tile(pt, p.tileSize)
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return -1
	}
	return y*p.width + x
}

func (p *Pathfinder) tilePixels(num int) cp.Vector {
	return geom.TileOrigin(num%p.width, num/p.width, p.tileSize)
}
