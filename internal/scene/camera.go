package scene

import (
	"math"

	"github.com/arcanaland/cardwall/internal/layout"
)

// Camera defaults
const (
	DefaultFOV      = 40
	DefaultNear     = 1
	DefaultFar      = 10000
	DefaultDistance = 3000
)

// Camera is a perspective camera looking at Target
type Camera struct {
	Position layout.Vec3 `json:"position"`
	Target   layout.Vec3 `json:"target"`
	FOV      float64     `json:"fov"` // vertical, degrees
	Aspect   float64     `json:"aspect"`
	Near     float64     `json:"near"`
	Far      float64     `json:"far"`
}

// NewCamera returns the starting camera, 3000 units out on +Z
func NewCamera(aspect float64) Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return Camera{
		Position: layout.Vec3{Z: DefaultDistance},
		FOV:      DefaultFOV,
		Aspect:   aspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

// Project maps a world point to normalized device coordinates. x and y are
// in [-1,1] when the point is inside the view; depth is the distance along
// the view direction. ok is false outside the near/far range.
func (c Camera) Project(p layout.Vec3) (x, y, depth float64, ok bool) {
	forward := c.Target.Sub(c.Position).Normalize()
	right := forward.Cross(layout.Vec3{Y: 1}).Normalize()
	up := right.Cross(forward)

	v := p.Sub(c.Position)
	depth = v.Dot(forward)
	if depth < c.Near || depth > c.Far {
		return 0, 0, depth, false
	}

	t := math.Tan(c.FOV * math.Pi / 360)
	x = v.Dot(right) / (depth * t * c.Aspect)
	y = v.Dot(up) / (depth * t)
	return x, y, depth, true
}
