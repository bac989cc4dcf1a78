package pathfind

import (
	"container/heap"
	"math"

	"github.com/jakecoffman/cp"
)

// FindReroutedPath runs an on-demand A* search that routes around live
// occupancy. The static distance matrix supplies the heuristic, which stays
// admissible because dynamic blockage only ever increases true cost. A tile
// is expandable only when the whole entity footprint fits there per occ.
//
// The search never mutates occupancy; the result is a snapshot, and callers
// still reserve tiles through the movement protocol before acting on it.
// Returns an empty path when no footprint-respecting route exists, and also
// when src and dst share a tile (see Path).
func (p *Pathfinder) FindReroutedPath(occ Occupancy, src, dst cp.Vector, width, height float64) Path {
	if !p.Ready() || occ == nil {
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
	if !occ.FootprintFits(p.tilePixels(to), width, height) {
		return nil
	}

	gScore := make([]float64, t)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	cameFrom := make([]int32, t)
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	closed := make([]bool, t)

	open := &nodeQueue{}
	heap.Init(open)
	gScore[from] = 0
	seq := 0
	heap.Push(open, &node{tile: from, f: float64(p.dist[from*t+to]), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.tile] {
			// stale entry superseded by a cheaper push
			continue
		}
		closed[cur.tile] = true

		if cur.tile == to {
			return p.reconstruct(cameFrom, from, to)
		}

		x := cur.tile % p.width
		y := cur.tile / p.width
		for _, st := range steps {
			nx, ny := x+st.dx, y+st.dy
			if !p.walkableAt(nx, ny) {
				continue
			}
			if st.diagonal && !(p.walkableAt(nx, y) && p.walkableAt(x, ny)) {
				continue
			}
			n := ny*p.width + nx
			if closed[n] {
				continue
			}
			h := p.dist[n*t+to]
			if h == unreachable {
				continue
			}
			g := gScore[cur.tile] + float64(st.cost)
			if g >= gScore[n] {
				continue
			}
			if !occ.FootprintFits(p.tilePixels(n), width, height) {
				continue
			}
			gScore[n] = g
			cameFrom[n] = int32(cur.tile)
			seq++
			heap.Push(open, &node{tile: n, f: g + float64(h), seq: seq})
		}
	}

	return nil
}

func (p *Pathfinder) reconstruct(cameFrom []int32, from, to int) Path {
	tiles := make([]int, 0, 32)
	for cur := to; cur != from; cur = int(cameFrom[cur]) {
		tiles = append(tiles, cur)
	}
	path := make(Path, 0, len(tiles))
	for i := len(tiles) - 1; i >= 0; i-- {
		path = append(path, p.tilePixels(tiles[i]))
	}
	return path
}

type node struct {
	tile  int
	f     float64
	seq   int
	index int
}

// nodeQueue orders by lower total estimate, then by insertion order so equal
// candidates resolve deterministically.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
