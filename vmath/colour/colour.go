// Package colour holds linear RGB radiance values.
//
// A colour is just a vec3.T whose components are red, green and blue; the
// alias exists so signatures say what they carry.
package colour

import (
	"math"

	"row-major/lenscast/vmath/vec3"
)

type T = vec3.T

var (
	Black = T{0, 0, 0}
	White = T{1, 1, 1}
)

// Mul attenuates a by b, component by component.
func Mul(a, b T) T {
	return vec3.MulVV(a, b)
}

// FromHSV converts a hue (radians), saturation and value triple to RGB.
func FromHSV(hue, sat, val float64) T {
	hue = math.Mod(hue, 2*math.Pi)
	if hue < 0 {
		hue += 2 * math.Pi
	}

	sector := hue / (math.Pi / 3)
	c := val * sat
	x := c * (1 - math.Abs(math.Mod(sector, 2)-1))
	m := val - c

	var rgb T
	switch int(sector) {
	case 0:
		rgb = T{c, x, 0}
	case 1:
		rgb = T{x, c, 0}
	case 2:
		rgb = T{0, c, x}
	case 3:
		rgb = T{0, x, c}
	case 4:
		rgb = T{x, 0, c}
	default:
		rgb = T{c, 0, x}
	}

	return T{rgb[0] + m, rgb[1] + m, rgb[2] + m}
}
