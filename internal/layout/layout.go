// Package layout computes the target poses of the four card arrangements.
// Every function here depends only on the card count and index, never on
// card content.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownArrangement is returned for names outside table|sphere|helix|grid
var ErrUnknownArrangement = errors.New("unknown arrangement")

// Arrangement names a target layout
type Arrangement string

const (
	TableArrangement  Arrangement = "table"
	SphereArrangement Arrangement = "sphere"
	HelixArrangement  Arrangement = "helix"
	GridArrangement   Arrangement = "grid"
)

// Names returns the arrangements in menu order
func Names() []Arrangement {
	return []Arrangement{TableArrangement, SphereArrangement, HelixArrangement, GridArrangement}
}

// ParseArrangement resolves a case-insensitive arrangement name
func ParseArrangement(s string) (Arrangement, error) {
	a := Arrangement(strings.ToLower(strings.TrimSpace(s)))
	for _, name := range Names() {
		if a == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownArrangement, s)
}

// Table layout
const (
	TableColumns  = 20
	tableColWidth = 140
	tableRowStep  = 180
	tableOffsetX  = 1330
	tableOffsetY  = 990
)

// Sphere layout
const SphereRadius = 800

// Helix layout
const (
	HelixRadius     = 900
	helixTurn       = 0.175
	helixDrop       = 8
	helixTopY       = 450
	helixStrandDiff = math.Pi
)

// Grid layout: 5 columns x 4 rows per layer
const (
	GridColumns   = 5
	GridRows      = 4
	gridSpacing   = 400
	gridLayerStep = 1000
	gridOffsetX   = 800
	gridOffsetY   = 600
	gridOffsetZ   = 4500
)

// Set holds the target poses of every arrangement, one per card index
type Set map[Arrangement][]Pose

// Compute builds every arrangement for n cards.
func Compute(n int) Set {
	return Set{
		TableArrangement:  Table(n),
		SphereArrangement: Sphere(n),
		HelixArrangement:  Helix(n),
		GridArrangement:   Grid(n),
	}
}

// Targets returns the poses for name
func (s Set) Targets(name Arrangement) ([]Pose, error) {
	poses, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArrangement, name)
	}
	return poses, nil
}

// Table lays cards out in rows of 20, left to right, top to bottom
func Table(n int) []Pose {
	poses := make([]Pose, n)
	for i := range poses {
		col := i % TableColumns
		row := i / TableColumns
		poses[i].Position = Vec3{
			X: float64(col*tableColWidth - tableOffsetX),
			Y: float64(-row*tableRowStep + tableOffsetY),
		}
	}
	return poses
}

// Sphere spreads cards evenly over a sphere, each facing outward
func Sphere(n int) []Pose {
	poses := make([]Pose, n)
	for i := range poses {
		phi := math.Acos(-1 + 2*float64(i)/float64(n))
		theta := math.Sqrt(float64(n)*math.Pi) * phi

		pos := Spherical(SphereRadius, phi, theta)
		poses[i] = Pose{
			Position: pos,
			Rotation: LookAt(pos, pos.Scale(2)),
		}
	}
	return poses
}

// Helix winds cards down two interleaved strands half a turn apart
func Helix(n int) []Pose {
	poses := make([]Pose, n)
	for i := range poses {
		strand := i % 2
		theta := float64(i)*helixTurn + math.Pi + float64(strand)*helixStrandDiff
		y := float64(-i*helixDrop + helixTopY)

		pos := Cylindrical(HelixRadius, theta, y)
		poses[i] = Pose{
			Position: pos,
			Rotation: LookAt(pos, Vec3{X: pos.X * 2, Y: pos.Y, Z: pos.Z * 2}),
		}
	}
	return poses
}

// Grid stacks 5x4 layers of cards receding along Z
func Grid(n int) []Pose {
	poses := make([]Pose, n)
	perLayer := GridColumns * GridRows
	for i := range poses {
		col := i % GridColumns
		row := (i / GridColumns) % GridRows
		layer := i / perLayer
		poses[i].Position = Vec3{
			X: float64(col*gridSpacing - gridOffsetX),
			Y: float64(-row*gridSpacing + gridOffsetY),
			Z: float64(layer*gridLayerStep - gridOffsetZ),
		}
	}
	return poses
}
