package scene

import (
	"math"

	"github.com/arcanaland/cardwall/internal/layout"
)

// Orbit limits
const (
	MinDistance    = 500
	MaxDistance    = 6000
	DampingFactor  = 0.2
	minPolar       = 0.01
	settleVelocity = 1e-5
)

// Orbit keeps the camera on a sphere around the origin. Input adds angular
// and zoom velocity which decays by DampingFactor on every update.
type Orbit struct {
	Distance float64
	Azimuth  float64
	Polar    float64

	vAzimuth float64
	vPolar   float64
	vZoom    float64
}

// NewOrbit starts at the default camera position
func NewOrbit() *Orbit {
	return &Orbit{Distance: DefaultDistance, Polar: math.Pi / 2}
}

// Rotate adds angular velocity in radians per update
func (o *Orbit) Rotate(azimuth, polar float64) {
	o.vAzimuth += azimuth
	o.vPolar += polar
}

// Zoom adds zoom velocity; factor 0.1 moves 10% further out per update
func (o *Orbit) Zoom(factor float64) {
	o.vZoom += factor
}

// Position returns the camera position for the current orbit state
func (o *Orbit) Position() layout.Vec3 {
	return layout.Spherical(o.Distance, o.Polar, o.Azimuth)
}

// Update applies pending velocity to cam and reports whether it moved
func (o *Orbit) Update(cam *Camera) bool {
	if math.Abs(o.vAzimuth) < settleVelocity && math.Abs(o.vPolar) < settleVelocity && math.Abs(o.vZoom) < settleVelocity {
		o.vAzimuth, o.vPolar, o.vZoom = 0, 0, 0
		return false
	}

	o.Azimuth += o.vAzimuth
	o.Polar = math.Max(minPolar, math.Min(math.Pi-minPolar, o.Polar+o.vPolar))
	o.Distance = math.Max(MinDistance, math.Min(MaxDistance, o.Distance*(1+o.vZoom)))

	o.vAzimuth *= 1 - DampingFactor
	o.vPolar *= 1 - DampingFactor
	o.vZoom *= 1 - DampingFactor

	cam.Position = o.Position()
	return true
}
