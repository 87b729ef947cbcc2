package ray

import (
	"math"

	"row-major/lenscast/vmath/vec3"
)

// Span is an open interval of ray parameters.
type Span struct {
	Lo, Hi float64
}

// Forward is the span a scattered ray is tested against: everything past
// epsilon, which keeps a ray from re-hitting the surface it just left.
func Forward(epsilon float64) Span {
	return Span{Lo: epsilon, Hi: math.Inf(1)}
}

// Contains reports whether Lo < t < Hi.
func (s Span) Contains(t float64) bool {
	return s.Lo < t && t < s.Hi
}

type Ray struct {
	Point vec3.T

	// Slope is not necessarily unit length.
	Slope vec3.T
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}
