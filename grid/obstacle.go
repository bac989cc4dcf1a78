package grid

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Obstacle is an immovable entity with a fixed tile anchor and a pixel
// footprint. Its tiles are claimed once via EntityGrid.AddObstacle and stay
// claimed for the map's lifetime.
type Obstacle struct {
	tileX  int
	tileY  int
	width  float64
	height float64

	behavior *tengo.Compiled
	elapsed  int64
	frame    int
}

func NewObstacle(tileX, tileY int, width, height float64) *Obstacle {
	return &Obstacle{tileX: tileX, tileY: tileY, width: width, height: height}
}

func (o *Obstacle) TileX() int      { return o.tileX }
func (o *Obstacle) TileY() int      { return o.tileY }
func (o *Obstacle) Width() float64  { return o.width }
func (o *Obstacle) Height() float64 { return o.height }

// Frame is the current animation frame chosen by the behavior script.
func (o *Obstacle) Frame() int { return o.frame }

// AttachBehavior compiles a tengo script that runs on every Step. The script
// sees `delta` and `elapsed` (milliseconds) and `frame`, and may reassign
// `frame` to drive its visual state.
func (o *Obstacle) AttachBehavior(src []byte) error {
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	_ = script.Add("delta", int64(0))
	_ = script.Add("elapsed", int64(0))
	_ = script.Add("frame", 0)

	compiled, err := script.Compile()
	if err != nil {
		return fmt.Errorf("grid: compile obstacle behavior: %w", err)
	}
	o.behavior = compiled
	return nil
}

// Step advances time-based behavior. It never touches occupancy; script
// errors are logged and skipped, not fatal.
func (o *Obstacle) Step(timePassed int64) {
	o.elapsed += timePassed
	if o.behavior == nil {
		return
	}
	if err := o.behavior.Set("delta", timePassed); err != nil {
		fmt.Printf("grid: obstacle behavior set delta: %v\n", err)
		return
	}
	if err := o.behavior.Set("elapsed", o.elapsed); err != nil {
		fmt.Printf("grid: obstacle behavior set elapsed: %v\n", err)
		return
	}
	if err := o.behavior.Set("frame", o.frame); err != nil {
		fmt.Printf("grid: obstacle behavior set frame: %v\n", err)
		return
	}
	if err := o.behavior.Run(); err != nil {
		fmt.Printf("grid: obstacle behavior error: %v\n", err)
		return
	}
	o.frame = o.behavior.Get("frame").Int()
}
