// Package mapcatalog holds the fixed set of arena map definitions; a room
// picks one of them at random when its match starts.
// Obstacle layouts follow the teacher's generateObstacles/generateLavaPools
// procedural-but-fixed-seed pattern (obstacles.go, deleted), simplified to a
// hand-authored fixed list since the spec has three named maps rather than
// an infinitely regenerated world.
package mapcatalog

import "arenaserver/internal/geometry"

const (
	Width  = 3000.0
	Height = 2000.0
)

// Point is a fixed spawn location.
type Point struct {
	X float64
	Y float64
}

// Def is one arena map: its obstacle layout and fixed spawn points.
type Def struct {
	Key             string
	Name            string
	Obstacles       []geometry.Obstacle
	PlayerSpawns    []Point
	BuffSpawns      []Point // exactly 6 per spec §3
}

var catalog = map[string]Def{
	"forest": {
		Key:  "forest",
		Name: "Forest",
		Obstacles: []geometry.Obstacle{
			{ID: "forest-tree-1", Type: "tree", Shape: geometry.ShapeCircle, X: 600, Y: 400, Width: 60, Height: 60},
			{ID: "forest-tree-2", Type: "tree", Shape: geometry.ShapeCircle, X: 2400, Y: 400, Width: 60, Height: 60},
			{ID: "forest-tree-3", Type: "tree", Shape: geometry.ShapeCircle, X: 600, Y: 1600, Width: 60, Height: 60},
			{ID: "forest-tree-4", Type: "tree", Shape: geometry.ShapeCircle, X: 2400, Y: 1600, Width: 60, Height: 60},
			{ID: "forest-rock-1", Type: "rock", Shape: geometry.ShapeCircle, X: 1500, Y: 1000, Width: 90, Height: 90},
			{ID: "forest-pond-1", Type: "pond", Shape: geometry.ShapeEllipse, X: 1000, Y: 1400, Width: 300, Height: 160},
			{ID: "forest-pond-2", Type: "pond", Shape: geometry.ShapeEllipse, X: 2000, Y: 600, Width: 260, Height: 180},
		},
		PlayerSpawns: []Point{
			{150, 150}, {2850, 150}, {150, 1850}, {2850, 1850},
			{1500, 150}, {1500, 1850}, {150, 1000}, {2850, 1000},
		},
		BuffSpawns: []Point{
			{1500, 1000}, {800, 700}, {2200, 700}, {800, 1300}, {2200, 1300}, {1500, 500},
		},
	},
	"canyon": {
		Key:  "canyon",
		Name: "Canyon",
		Obstacles: []geometry.Obstacle{
			{ID: "canyon-rock-1", Type: "rock", Shape: geometry.ShapeCircle, X: 900, Y: 500, Width: 100, Height: 100},
			{ID: "canyon-rock-2", Type: "rock", Shape: geometry.ShapeCircle, X: 2100, Y: 1500, Width: 100, Height: 100},
			{ID: "canyon-rock-3", Type: "rock", Shape: geometry.ShapeCircle, X: 1500, Y: 1000, Width: 70, Height: 70},
			{ID: "canyon-cactus-1", Type: "cactus", Shape: geometry.ShapeCircle, X: 500, Y: 1300, Width: 40, Height: 40},
			{ID: "canyon-cactus-2", Type: "cactus", Shape: geometry.ShapeCircle, X: 2500, Y: 700, Width: 40, Height: 40},
			{ID: "canyon-chasm-1", Type: "chasm", Shape: geometry.ShapeEllipse, X: 1500, Y: 1400, Width: 500, Height: 120},
		},
		PlayerSpawns: []Point{
			{150, 150}, {2850, 150}, {150, 1850}, {2850, 1850},
			{1500, 150}, {1500, 1850}, {150, 1000}, {2850, 1000},
		},
		BuffSpawns: []Point{
			{1500, 1000}, {700, 400}, {2300, 1600}, {700, 1600}, {2300, 400}, {1500, 1700},
		},
	},
	"island": {
		Key:  "island",
		Name: "Island",
		Obstacles: []geometry.Obstacle{
			{ID: "island-rock-1", Type: "rock", Shape: geometry.ShapeCircle, X: 1000, Y: 1000, Width: 80, Height: 80},
			{ID: "island-tree-1", Type: "tree", Shape: geometry.ShapeCircle, X: 2200, Y: 1000, Width: 60, Height: 60},
			{ID: "island-lake-1", Type: "lake", Shape: geometry.ShapeEllipse, X: 1500, Y: 1000, Width: 600, Height: 400},
		},
		PlayerSpawns: []Point{
			{150, 150}, {2850, 150}, {150, 1850}, {2850, 1850},
			{1500, 150}, {1500, 1850}, {150, 1000}, {2850, 1000},
		},
		BuffSpawns: []Point{
			{400, 400}, {2600, 400}, {400, 1600}, {2600, 1600}, {1500, 400}, {1500, 1600},
		},
	},
}

// DefaultKey names the forest map. Room creation takes no map key, and map
// selection at match start draws from Keys() without consulting DefaultKey.
const DefaultKey = "forest"

// Get returns the map definition for key and whether it was found.
func Get(key string) (Def, bool) {
	d, ok := catalog[key]
	return d, ok
}

// Keys returns the known map keys in a stable order.
func Keys() []string {
	return []string{"forest", "canyon", "island"}
}
