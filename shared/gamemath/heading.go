package gamemath

import "math"

// HeadingFromForward derives a yaw angle (radians) from a forward vector,
// measured in the horizontal plane. The vertical component is ignored.
func HeadingFromForward(forward Vec3) float64 {
	return math.Atan2(forward.X, forward.Z)
}

// ForwardFromHeading is the inverse of HeadingFromForward: a unit forward
// vector in the horizontal plane for the given yaw.
func ForwardFromHeading(yaw float64) Vec3 {
	return Vec3{X: math.Sin(yaw), Y: 0, Z: math.Cos(yaw)}
}
