package pathfind

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/solanin/tileworld/geom"
)

const testTileSize = 32

// buildWalkable turns a string picture into a walkability slice. '#' is a
// static wall, anything else is open.
func buildWalkable(rows []string) ([]bool, int, int) {
	h := len(rows)
	w := len(rows[0])
	walkable := make([]bool, w*h)
	for y, row := range rows {
		for x := 0; x < w; x++ {
			walkable[y*w+x] = row[x] != '#'
		}
	}
	return walkable, w, h
}

func newTestPathfinder(t *testing.T, rows []string) *Pathfinder {
	t.Helper()
	walkable, w, h := buildWalkable(rows)
	p := New()
	p.Initialize(walkable, testTileSize, w, h)
	return p
}

func tilePoint(x, y int) cp.Vector {
	return geom.TileOrigin(x, y, testTileSize)
}

// pathCost sums per-step costs (1 cardinal, sqrt 2 diagonal) of a path
// starting from src.
func pathCost(t *testing.T, src cp.Vector, path Path) float64 {
	t.Helper()
	cost := 0.0
	prevX, prevY := geom.Tile(src, testTileSize)
	for _, wp := range path {
		x, y := geom.Tile(wp, testTileSize)
		dx, dy := x-prevX, y-prevY
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
			t.Fatalf("path step from (%d,%d) to (%d,%d) is not a single tile move", prevX, prevY, x, y)
		}
		if dx != 0 && dy != 0 {
			cost += math.Sqrt2
		} else {
			cost++
		}
		prevX, prevY = x, y
	}
	return cost
}

func pathTiles(path Path) [][2]int {
	out := make([][2]int, 0, len(path))
	for _, wp := range path {
		x, y := geom.Tile(wp, testTileSize)
		out = append(out, [2]int{x, y})
	}
	return out
}

func TestPathfinderLifecycle(t *testing.T) {
	p := New()
	if p.Ready() {
		t.Fatalf("new pathfinder should not be ready")
	}
	if got := p.FindBestPath(tilePoint(0, 0), tilePoint(1, 1)); len(got) != 0 {
		t.Fatalf("query before Initialize should be empty, got %v", got)
	}
	if !math.IsInf(p.Distance(tilePoint(0, 0), tilePoint(1, 1)), 1) {
		t.Fatalf("distance before Initialize should be +Inf")
	}

	walkable, w, h := buildWalkable([]string{"..", ".."})
	p.Initialize(walkable, testTileSize, w, h)
	if !p.Ready() {
		t.Fatalf("pathfinder should be ready after Initialize")
	}

	// re-initialization discards the old matrices
	walkable2, w2, h2 := buildWalkable([]string{"...", "...", "..."})
	p.Initialize(walkable2, testTileSize, w2, h2)
	if d := p.Distance(tilePoint(0, 0), tilePoint(2, 2)); math.Abs(d-2*math.Sqrt2) > 1e-3 {
		t.Fatalf("distance after re-initialize = %v, want %v", d, 2*math.Sqrt2)
	}
}

func TestFindBestPathOpenDiagonal(t *testing.T) {
	p := newTestPathfinder(t, []string{
		".....",
		".....",
		".....",
		".....",
		".....",
	})

	src := cp.Vector{X: 0, Y: 0}
	dst := cp.Vector{X: 128, Y: 128}
	path := p.FindBestPath(src, dst)

	if len(path) != 4 {
		t.Fatalf("path length = %d, want 4 diagonal steps: %v", len(path), pathTiles(path))
	}
	if got := path[len(path)-1]; got != dst {
		t.Fatalf("path ends at %v, want %v", got, dst)
	}
	if d := p.Distance(src, dst); math.Abs(d-4*math.Sqrt2) > 1e-3 {
		t.Fatalf("matrix distance = %v, want %v", d, 4*math.Sqrt2)
	}
	if cost := pathCost(t, src, path); math.Abs(cost-4*math.Sqrt2) > 1e-3 {
		t.Fatalf("path cost = %v, want %v", cost, 4*math.Sqrt2)
	}
}

func TestFindBestPathUnreachable(t *testing.T) {
	p := newTestPathfinder(t, []string{
		"..#..",
		"..#..",
		"..#..",
		"..#..",
		"..#..",
	})

	src := tilePoint(0, 2)
	dst := tilePoint(4, 2)
	if path := p.FindBestPath(src, dst); len(path) != 0 {
		t.Fatalf("expected no path across the wall, got %v", pathTiles(path))
	}
	if !math.IsInf(p.Distance(src, dst), 1) {
		t.Fatalf("distance across the wall should be +Inf")
	}
}

func TestFindBestPathSameTile(t *testing.T) {
	p := newTestPathfinder(t, []string{"..", ".."})

	// both endpoints on one tile is a trivially complete route, reported as
	// an empty path with distance zero
	src := tilePoint(1, 1)
	dst := cp.Vector{X: src.X + 5, Y: src.Y + 5}
	if path := p.FindBestPath(src, dst); len(path) != 0 {
		t.Fatalf("same-tile query should produce an empty path, got %v", pathTiles(path))
	}
	if d := p.Distance(src, dst); d != 0 {
		t.Fatalf("same-tile distance = %v, want 0", d)
	}
}

func TestFindBestPathOutOfBounds(t *testing.T) {
	p := newTestPathfinder(t, []string{"..", ".."})

	cases := []struct {
		name     string
		src, dst cp.Vector
	}{
		{"src_negative", cp.Vector{X: -1, Y: 0}, tilePoint(1, 1)},
		{"dst_past_edge", tilePoint(0, 0), cp.Vector{X: 64, Y: 0}},
		{"dst_below_map", tilePoint(0, 0), cp.Vector{X: 0, Y: 999}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if path := p.FindBestPath(c.src, c.dst); len(path) != 0 {
				t.Fatalf("expected empty path, got %v", pathTiles(path))
			}
		})
	}
}

func TestStaticDistanceAroundWall(t *testing.T) {
	// Center blocked; diagonals may not cut the wall corner, so the best
	// route is four cardinal steps.
	p := newTestPathfinder(t, []string{
		"...",
		".#.",
		"...",
	})
	if d := p.Distance(tilePoint(0, 0), tilePoint(2, 2)); math.Abs(d-4) > 1e-3 {
		t.Fatalf("distance = %v, want 4", d)
	}
}

func TestStaticPathOptimality(t *testing.T) {
	// Every reachable pair's walked path must cost exactly the matrix entry.
	rows := []string{
		"....",
		".##.",
		"....",
		"#...",
	}
	p := newTestPathfinder(t, rows)
	walkable, w, h := buildWalkable(rows)

	for from := 0; from < w*h; from++ {
		for to := 0; to < w*h; to++ {
			if !walkable[from] || !walkable[to] {
				continue
			}
			src := tilePoint(from%w, from/w)
			dst := tilePoint(to%w, to/w)
			d := p.Distance(src, dst)
			path := p.FindBestPath(src, dst)
			if math.IsInf(d, 1) {
				if len(path) != 0 {
					t.Fatalf("pair (%d->%d): path exists but matrix says unreachable", from, to)
				}
				continue
			}
			if cost := pathCost(t, src, path); math.Abs(cost-d) > 1e-3 {
				t.Fatalf("pair (%d->%d): path cost %v != matrix distance %v", from, to, cost, d)
			}
		}
	}
}
