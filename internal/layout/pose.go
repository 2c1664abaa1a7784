package layout

import "math"

// Vec3 is a point or direction in scene space
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalize returns the unit vector, or the zero vector unchanged
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Lerp interpolates between v and o by t; t == 1 yields o exactly
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	if t == 1 {
		return o
	}
	return v.Add(o.Sub(v).Scale(t))
}

// Euler holds rotation angles in radians applied in X, Y, Z order
type Euler struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vec returns the angles as a vector so they can be interpolated
func (e Euler) Vec() Vec3 { return Vec3{e.X, e.Y, e.Z} }

// EulerFrom is the inverse of Euler.Vec
func EulerFrom(v Vec3) Euler { return Euler{v.X, v.Y, v.Z} }

// Rotate applies the rotation to v
func (e Euler) Rotate(v Vec3) Vec3 {
	m := e.matrix()
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// matrix returns the row-major rotation Rx * Ry * Rz
func (e Euler) matrix() [3][3]float64 {
	a, b := math.Cos(e.X), math.Sin(e.X)
	c, d := math.Cos(e.Y), math.Sin(e.Y)
	ce, f := math.Cos(e.Z), math.Sin(e.Z)

	ae, af, be, bf := a*ce, a*f, b*ce, b*f

	return [3][3]float64{
		{c * ce, -c * f, d},
		{af + be*d, ae - bf*d, -b * c},
		{bf - ae*d, be + af*d, a * c},
	}
}

// Pose is where a card sits and how it is turned
type Pose struct {
	Position Vec3  `json:"position" yaml:"position"`
	Rotation Euler `json:"rotation" yaml:"rotation"`
}

var up = Vec3{0, 1, 0}

// LookAt returns the rotation that turns an object at position so its
// local +Z axis points at target, keeping world +Y as up.
func LookAt(position, target Vec3) Euler {
	z := target.Sub(position)
	if z.Length() == 0 {
		z.Z = 1
	}
	z = z.Normalize()

	x := up.Cross(z)
	if x.Length() == 0 {
		// z is parallel to up
		if math.Abs(up.Z) == 1 {
			z.X += 0.0001
		} else {
			z.Z += 0.0001
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	m13 := clamp(z.X, -1, 1)
	r := Euler{Y: math.Asin(m13)}
	if math.Abs(m13) < 0.9999999 {
		r.X = math.Atan2(-z.Y, z.Z)
		r.Z = math.Atan2(-y.X, x.X)
	} else {
		r.X = math.Atan2(y.Z, y.Y)
	}
	return r
}

// Spherical converts a polar angle phi (from +Y) and azimuth theta to a point
func Spherical(radius, phi, theta float64) Vec3 {
	sinPhiRadius := math.Sin(phi) * radius
	return Vec3{
		X: sinPhiRadius * math.Sin(theta),
		Y: math.Cos(phi) * radius,
		Z: sinPhiRadius * math.Cos(theta),
	}
}

// Cylindrical converts an angle around +Y and a height to a point
func Cylindrical(radius, theta, y float64) Vec3 {
	return Vec3{
		X: radius * math.Sin(theta),
		Y: y,
		Z: radius * math.Cos(theta),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
