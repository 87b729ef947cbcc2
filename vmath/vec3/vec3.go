package vec3

import (
	"math"
	"math/rand/v2"
)

type T [3]float64

// nearZeroEpsilon is the per-component magnitude below which a vector counts
// as degenerate.
const nearZeroEpsilon = 1e-8

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// NearZero reports whether every component of v is vanishingly small.
func (v T) NearZero() bool {
	return math.Abs(v[0]) < nearZeroEpsilon && math.Abs(v[1]) < nearZeroEpsilon && math.Abs(v[2]) < nearZeroEpsilon
}

// Normalize scales v to unit length.  A zero vector produces NaN components;
// check NearZero first if v can be degenerate.
func Normalize(v T) T {
	l := v.Norm()
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the component-wise product.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Lerp returns (1-t)*a + t*b.
func Lerp(t float64, a, b T) T {
	return AddVV(MulVS(a, 1-t), MulVS(b, t))
}

func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Refract bends the unit vector uv through a surface with unit normal n.
// ratio is the index of the incident medium over the index of the
// transmitting medium.  The caller is responsible for checking for total
// internal reflection.
func Refract(uv, n T, ratio float64) T {
	cosTheta := math.Min(IProd(Neg(uv), n), 1.0)
	perp := MulVS(AddVV(uv, MulVS(n, cosTheta)), ratio)
	parallel := MulVS(n, -math.Sqrt(math.Abs(1.0-perp.NormSquared())))
	return AddVV(perp, parallel)
}

// RandomInUnitSphere rejection-samples a point inside the unit ball.
func RandomInUnitSphere(rng *rand.Rand) T {
	for {
		p := T{
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
			2*rng.Float64() - 1,
		}
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}

// RandomUnitVector returns a direction uniformly distributed over the unit
// sphere.
func RandomUnitVector(rng *rand.Rand) T {
	for {
		p := RandomInUnitSphere(rng)
		// Points too close to the origin lose all their precision when
		// normalized.
		if p.NormSquared() > 1e-12 {
			return Normalize(p)
		}
	}
}

// RandomInUnitDisk rejection-samples a point in the unit disk of the z=0
// plane.
func RandomInUnitDisk(rng *rand.Rand) T {
	for {
		p := T{2*rng.Float64() - 1, 2*rng.Float64() - 1, 0}
		if p.NormSquared() < 1.0 {
			return p
		}
	}
}
