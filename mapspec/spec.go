package mapspec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTileSize is the movement tile granularity used when a spec omits
// tile_size.
const DefaultTileSize = 32

// ObstacleSpec places an obstacle footprint on the map. Behavior is optional
// tengo source run each frame by the obstacle.
type ObstacleSpec struct {
	TileX    int     `yaml:"tile_x"`
	TileY    int     `yaml:"tile_y"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Behavior string  `yaml:"behavior,omitempty"`
}

// Map is a YAML-backed map layout. It satisfies the grid's MapData interface,
// so a loaded spec can be handed straight to SetMapData.
type Map struct {
	MapName   string         `yaml:"name"`
	Width     int            `yaml:"width"`
	Height    int            `yaml:"height"`
	TilePx    int            `yaml:"tile_size,omitempty"`
	Collision []int          `yaml:"collision,omitempty"` // row-major, 0 = open, 1 = solid
	Obstacles []ObstacleSpec `yaml:"obstacles,omitempty"`
	SpawnX    int            `yaml:"spawn_x,omitempty"` // in tiles
	SpawnY    int            `yaml:"spawn_y,omitempty"`
}

// Load reads a map spec from a YAML file at path.
func Load(path string) (*Map, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapspec: load %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a map spec.
func Parse(b []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("mapspec: unmarshal: %w", err)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return nil, fmt.Errorf("mapspec: invalid dimensions %dx%d", m.Width, m.Height)
	}
	if m.TilePx <= 0 {
		m.TilePx = DefaultTileSize
	}
	if len(m.Collision) != 0 && len(m.Collision) != m.Width*m.Height {
		return nil, fmt.Errorf("mapspec: collision length %d, want %d", len(m.Collision), m.Width*m.Height)
	}
	return &m, nil
}

// Name returns the map's display name.
func (m *Map) Name() string { return m.MapName }

// Size is the map extent in tiles.
func (m *Map) Size() (int, int) { return m.Width, m.Height }

// TileSize is the movement tile granularity in pixels.
func (m *Map) TileSize() int { return m.TilePx }

// Passable reports static walkability. A spec without a collision layer is
// fully open.
func (m *Map) Passable(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	if len(m.Collision) == 0 {
		return true
	}
	return m.Collision[y*m.Width+x] == 0
}
