package spatial

import "math"

// Epsilon is the squared-length threshold below which a direction is treated as zero.
const Epsilon = 1e-9

// Vec3 is a world-space vector. Y is up; gameplay happens on the XZ plane.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// LenSq returns the squared length.
func (v Vec3) LenSq() float64 { return v.Dot(v) }

// Len returns the length.
func (v Vec3) Len() float64 { return math.Sqrt(v.LenSq()) }

// Normalize returns the unit vector, or the zero vector when v is degenerate.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l*l <= Epsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Flat drops the vertical component.
func (v Vec3) Flat() Vec3 { return Vec3{X: v.X, Z: v.Z} }

// Distance returns |a - b|.
func Distance(a, b Vec3) float64 { return a.Sub(b).Len() }

// Forward returns the unit planar heading for a yaw angle in radians.
// Yaw 0 faces +Z, positive yaw turns toward +X.
func Forward(yaw float64) Vec3 {
	return Vec3{X: math.Sin(yaw), Z: math.Cos(yaw)}
}

// Yaw returns the heading angle of a planar direction.
func Yaw(dir Vec3) float64 {
	return math.Atan2(dir.X, dir.Z)
}

// NormalizeAngle wraps an angle to [-π, π].
func NormalizeAngle(angle float64) float64 {
	const twoPi = 2 * math.Pi
	angle = math.Mod(angle, twoPi)
	if angle < 0 {
		angle += twoPi
	}
	if angle > math.Pi {
		angle -= twoPi
	}
	return angle
}

// RotateTowards turns from current toward target by at most maxStep radians.
func RotateTowards(current, target, maxStep float64) float64 {
	diff := NormalizeAngle(target - current)
	if math.Abs(diff) <= maxStep {
		return target
	}
	if diff > 0 {
		return NormalizeAngle(current + maxStep)
	}
	return NormalizeAngle(current - maxStep)
}

// AngleBetween returns the unsigned angle between two directions in radians.
func AngleBetween(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// Layer is a collision classification bit mask.
type Layer uint32

const (
	LayerDefault   Layer = 1 << iota
	LayerShootable       // Bodies a shot can hit (enemies, obstacles)
	LayerPlayer
)

// Has reports whether l intersects mask.
func (l Layer) Has(mask Layer) bool { return l&mask != 0 }

// Hit is the result of a ray cast or overlap query.
type Hit struct {
	Point    Vec3    // Contact point (ray) or body center (overlap)
	Distance float64 // Distance from the query origin
	Owner    any     // Gameplay object attached to the body, may be nil
}
