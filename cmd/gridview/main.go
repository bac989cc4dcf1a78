// Command gridview is a diagnostic viewer for the occupancy grid and
// pathfinder. It loads a map spec, draws tile occupancy, moves a demo player
// through the movement protocol, and re-runs path queries on mouse clicks.
// The map file is hot-reloaded on change.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/solanin/tileworld/grid"
	"github.com/solanin/tileworld/mapspec"
	"github.com/solanin/tileworld/pathfind"
)

type demoActor struct {
	pos    cp.Vector
	w, h   float64
	facing grid.Direction
}

func (a *demoActor) Position() cp.Vector      { return a.pos }
func (a *demoActor) Size() (float64, float64) { return a.w, a.h }
func (a *demoActor) Facing() grid.Direction   { return a.facing }

type Game struct {
	spec    *mapspec.Map
	eg      *grid.EntityGrid
	player  *demoActor
	path    pathfind.Path
	watcher *mapspec.Watcher

	helpVisible bool
	help        *helpUI
	status      string

	tileImg *ebiten.Image
	markImg *ebiten.Image
}

func NewGame(specPath string) (*Game, error) {
	g := &Game{}
	spec, err := mapspec.Load(specPath)
	if err != nil {
		return nil, err
	}
	if err := g.applyMap(spec); err != nil {
		return nil, err
	}

	w, err := mapspec.WatchMap(specPath)
	if err != nil {
		log.Printf("gridview: watch disabled: %v", err)
	} else {
		g.watcher = w
	}

	g.tileImg = ebiten.NewImage(1, 1)
	g.tileImg.Fill(color.White)
	g.markImg = ebiten.NewImage(1, 1)
	g.markImg.Fill(colornames.Gold)
	g.help = newHelpUI(g)
	return g, nil
}

func (g *Game) applyMap(spec *mapspec.Map) error {
	eg := grid.NewEntityGrid()
	eg.SetMapData(spec)

	for _, os := range spec.Obstacles {
		o := grid.NewObstacle(os.TileX, os.TileY, os.Width, os.Height)
		if os.Behavior != "" {
			if err := o.AttachBehavior([]byte(os.Behavior)); err != nil {
				log.Printf("gridview: obstacle (%d,%d): %v", os.TileX, os.TileY, err)
			}
		}
		if !eg.AddObstacle(o) {
			log.Printf("gridview: obstacle at (%d,%d) could not claim its area", os.TileX, os.TileY)
		}
	}

	ts := float64(spec.TileSize())
	player := &demoActor{
		pos:    cp.Vector{X: float64(spec.SpawnX * spec.TileSize()), Y: float64(spec.SpawnY * spec.TileSize())},
		w:      ts,
		h:      ts,
		facing: grid.DirDown,
	}
	if !eg.AddActor(player, player.pos, grid.TagPlayer) {
		return fmt.Errorf("gridview: spawn (%d,%d) is blocked", spec.SpawnX, spec.SpawnY)
	}

	g.spec = spec
	g.eg = eg
	g.player = player
	g.path = nil
	g.status = "loaded " + spec.Name()
	return nil
}

func (g *Game) Update() error {
	if g.watcher != nil {
		select {
		case spec, ok := <-g.watcher.Maps:
			if ok {
				if err := g.applyMap(spec); err != nil {
					g.status = fmt.Sprintf("reload failed: %v", err)
				}
			}
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.status = fmt.Sprintf("reload failed: %v", err)
			}
		default:
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.helpVisible = !g.helpVisible
	}
	if g.helpVisible {
		g.help.ui.Update()
		return nil
	}

	g.handleMovement()
	g.handleQueries()

	// ~60 ticks per second
	g.eg.Step(1000 / 60)
	return nil
}

func (g *Game) handleMovement() {
	var dir grid.Direction
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		dir = grid.DirUp
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		dir = grid.DirDown
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		dir = grid.DirLeft
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		dir = grid.DirRight
	default:
		return
	}

	g.player.facing = dir
	dx, dy := dir.Delta()
	ts := g.eg.TileSize()
	src := g.player.pos
	dst := cp.Vector{X: src.X + float64(dx*ts), Y: src.Y + float64(dy*ts)}

	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		// slide until blocked, up to four tiles
		g.player.pos = g.eg.MoveToClosestPoint(g.player, dx, dy, 4*ts)
		g.status = fmt.Sprintf("slid to (%.0f,%.0f)", g.player.pos.X, g.player.pos.Y)
		return
	}

	if !g.eg.WithinMap(dst) {
		g.status = "edge of map"
		return
	}
	if !g.eg.BeginMovement(g.player, dst) {
		g.status = "blocked"
		return
	}
	// the viewer commits instantly; a real actor would animate between
	// BeginMovement and EndMovement
	g.eg.EndMovement(g.player, src, dst)
	g.player.pos = dst
	g.status = fmt.Sprintf("moved to (%.0f,%.0f)", dst.X, dst.Y)
}

func (g *Game) handleQueries() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		dst := cp.Vector{X: float64(mx), Y: float64(my)}
		if !g.eg.WithinMap(dst) {
			return
		}
		g.path = g.eg.FindReroutedPath(g.player, dst)
		if len(g.path) == 0 {
			g.status = "no route"
		} else {
			g.status = fmt.Sprintf("route: %d steps", len(g.path))
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		if other := g.eg.GetAdjacentActor(g.player); other != nil {
			g.status = fmt.Sprintf("adjacent actor at (%.0f,%.0f)", other.Position().X, other.Position().Y)
		} else {
			g.status = "nothing ahead"
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	ts := g.eg.TileSize()
	for y := 0; y < g.eg.Height(); y++ {
		for x := 0; x < g.eg.Width(); x++ {
			g.drawTile(screen, x, y, ts)
		}
	}

	for _, wp := range g.path {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(ts)/4, float64(ts)/4)
		op.GeoM.Translate(wp.X+float64(ts)*3/8, wp.Y+float64(ts)*3/8)
		screen.DrawImage(g.markImg, op)
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s | %s | FPS %.1f | H for help", g.eg.MapName(), g.status, ebiten.ActualFPS()))

	if g.helpVisible {
		g.help.ui.Draw(screen)
	}
}

func (g *Game) drawTile(screen *ebiten.Image, x, y, ts int) {
	var c color.Color
	switch state, _ := g.eg.TileAt(x, y); {
	case !g.spec.Passable(x, y):
		c = colornames.Dimgray
	case state.Tag == grid.TagObstacle:
		c = colornames.Saddlebrown
	case state.Tag == grid.TagActor:
		c = colornames.Crimson
	case state.Tag == grid.TagPlayer:
		c = colornames.Royalblue
	default:
		c = colornames.Darkseagreen
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(ts-1), float64(ts-1))
	op.GeoM.Translate(float64(x*ts), float64(y*ts))
	op.ColorScale.ScaleWithColor(c)
	screen.DrawImage(g.tileImg, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.eg.Width() * g.eg.TileSize(), g.eg.Height() * g.eg.TileSize()
}

func main() {
	specPath := flag.String("map", "maps/meadow.yaml", "map spec to view")
	flag.Parse()

	game, err := NewGame(*specPath)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if game.watcher != nil {
			_ = game.watcher.Close()
		}
	}()

	ebiten.SetWindowTitle("gridview - " + game.eg.MapName())
	ebiten.SetWindowSize(game.eg.Width()*game.eg.TileSize()*2, game.eg.Height()*game.eg.TileSize()*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
