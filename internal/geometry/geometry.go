// Package geometry implements the collision and occlusion primitives spec
// §4.1 calls for: player-vs-obstacle tests, projectile-vs-obstacle block
// tests, shot-path occlusion sampling, and the swept-segment closest-point
// hit test. It generalizes the teacher's axis-aligned-rectangle overlap
// helpers (mine-and-die's obstacles.go: circleRectOverlap/obstaclesOverlap)
// to the spec's circle and ellipse obstacle shapes.
package geometry

import "math"

// ObstacleShape distinguishes the two geometric tests spec §4.1 requires:
// solid circular props (trees/rocks/cacti) and elliptical terrain features
// (lakes/ponds/chasms).
type ObstacleShape int

const (
	ShapeCircle ObstacleShape = iota
	ShapeEllipse
)

// Obstacle is a static piece of map geometry. Width/Height are full extents;
// for circles Width == Height == 2*radius.
type Obstacle struct {
	ID     string
	Type   string
	Shape  ObstacleShape
	X      float64
	Y      float64
	Width  float64
	Height float64
}

const (
	PlayerRadius     = 18.0
	ProjectileRadius = 3.0
	HitRadius        = 21.0
	HeadshotRadius   = 16.0 // head visual radius 8 + projectile radius 3 + jitter tolerance 5
	OcclusionStep    = 6.0
)

// BlocksPlayer reports whether a player body (radius PlayerRadius) centred
// at (x, y) intersects the obstacle.
func (o Obstacle) BlocksPlayer(x, y float64) bool {
	return o.blocks(x, y, PlayerRadius)
}

// BlocksProjectile reports whether a projectile (radius ProjectileRadius)
// centred at (x, y) intersects the obstacle.
func (o Obstacle) BlocksProjectile(x, y float64) bool {
	return o.blocks(x, y, ProjectileRadius)
}

func (o Obstacle) blocks(x, y, radius float64) bool {
	switch o.Shape {
	case ShapeEllipse:
		return o.ellipseContains(x, y, radius)
	default:
		return o.circleContains(x, y, radius)
	}
}

// circleContains tests a solid circular obstacle (trees/rocks/cacti): the
// obstacle's own radius is Width/2, padded by the probe radius.
func (o Obstacle) circleContains(x, y, radius float64) bool {
	obsRadius := o.Width / 2
	dx := x - o.X
	dy := y - o.Y
	combined := obsRadius + radius
	return dx*dx+dy*dy < combined*combined
}

// ellipseContains tests an elliptical obstacle (lakes/ponds/chasms) with
// semi-axes (Width/2, Height/2), padded by radius/Width so the padding scales
// with the ellipse's own proportions, matching spec §4.1's normalized-padding
// construction.
func (o Obstacle) ellipseContains(x, y, radius float64) bool {
	if o.Width <= 0 || o.Height <= 0 {
		return false
	}
	semiX := o.Width/2 + radius
	semiY := o.Height/2 + radius*(o.Height/o.Width)
	dx := (x - o.X) / semiX
	dy := (y - o.Y) / semiY
	return dx*dx+dy*dy < 1
}

// PointBlocked reports whether (x, y) collides with any obstacle for a
// projectile-sized probe.
func PointBlocked(obstacles []Obstacle, x, y float64) bool {
	for _, o := range obstacles {
		if o.BlocksProjectile(x, y) {
			return true
		}
	}
	return false
}

// PlayerBlocked reports whether (x, y) collides with any obstacle for a
// player-sized probe.
func PlayerBlocked(obstacles []Obstacle, x, y float64) bool {
	for _, o := range obstacles {
		if o.BlocksPlayer(x, y) {
			return true
		}
	}
	return false
}

// SegmentOccluded samples the segment from (x0,y0) to (x1,y1) at
// OcclusionStep-pixel intervals, rejecting if any sample collides with an
// obstacle. Used for shot-path occlusion (shooter body to muzzle origin);
// the muzzle-origin-inside-obstacle check uses PointBlocked.
func SegmentOccluded(obstacles []Obstacle, x0, y0, x1, y1 float64) bool {
	dx := x1 - x0
	dy := y1 - y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return PointBlocked(obstacles, x0, y0)
	}
	steps := int(math.Ceil(length / OcclusionStep))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		sx := x0 + dx*t
		sy := y0 + dy*t
		if PointBlocked(obstacles, sx, sy) {
			return true
		}
	}
	return false
}

// ClosestPointOnSegment returns the point on segment (ax,ay)-(bx,by) closest
// to (px,py), along with the parametric t in [0,1] and the distance to that
// point. Used by the swept projectile hit test (spec §4.1).
func ClosestPointOnSegment(ax, ay, bx, by, px, py float64) (cx, cy, t, dist float64) {
	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		cx, cy = ax, ay
		t = 0
	} else {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		cx = ax + dx*t
		cy = ay + dy*t
	}
	dist = math.Hypot(px-cx, py-cy)
	return cx, cy, t, dist
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// NormalizeAngle wraps an angle (radians) into (-pi, pi].
func NormalizeAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}
