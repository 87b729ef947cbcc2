package camera

import (
	"fmt"
	"math"
	"math/rand/v2"

	"row-major/lenscast/ray"
	"row-major/lenscast/vmath/vec3"
)

// Camera maps normalized image coordinates to world-space rays.  (0, 0) is
// the lower left corner of the image and (1, 1) the upper right.
type Camera interface {
	ImageToRay(s, t float64, rng *rand.Rand) ray.Ray
}

// Config describes a thin lens camera.
type Config struct {
	LookFrom vec3.T
	LookAt   vec3.T
	Up       vec3.T

	// VerticalFOV is in degrees.
	VerticalFOV float64

	// AspectRatio is image width over image height.
	AspectRatio float64

	// Aperture is the lens diameter.  Zero gives a pinhole camera with
	// everything in focus.
	Aperture float64

	// FocusDistance is the distance from LookFrom to the plane that is in
	// perfect focus.
	FocusDistance float64
}

// ThinLens is a camera with depth of field.  Rays start at random points on
// the lens disk and all pass through the same point on the focus plane.
type ThinLens struct {
	origin          vec3.T
	lowerLeftCorner vec3.T
	horizontal      vec3.T
	vertical        vec3.T

	// An orthonormal basis.  forward points from the target back towards
	// the eye; the camera looks along -forward.
	right   vec3.T
	up      vec3.T
	forward vec3.T

	lensRadius float64
}

func NewThinLens(cfg Config) (*ThinLens, error) {
	if !(cfg.AspectRatio > 0) || math.IsInf(cfg.AspectRatio, 0) {
		return nil, fmt.Errorf("aspect ratio %v must be positive and finite", cfg.AspectRatio)
	}
	if !(cfg.FocusDistance > 0) || math.IsInf(cfg.FocusDistance, 0) {
		return nil, fmt.Errorf("focus distance %v must be positive and finite", cfg.FocusDistance)
	}
	if !(cfg.VerticalFOV > 0 && cfg.VerticalFOV < 180) {
		return nil, fmt.Errorf("vertical field of view %v must be in (0, 180) degrees", cfg.VerticalFOV)
	}
	if !(cfg.Aperture >= 0) || math.IsInf(cfg.Aperture, 0) {
		return nil, fmt.Errorf("aperture %v must be non-negative and finite", cfg.Aperture)
	}

	back := vec3.SubVV(cfg.LookFrom, cfg.LookAt)
	if back.NearZero() {
		return nil, fmt.Errorf("look-from and look-at are both %v", cfg.LookFrom)
	}
	forward := vec3.Normalize(back)

	side := vec3.CProd(cfg.Up, forward)
	if side.NearZero() {
		return nil, fmt.Errorf("up vector %v is parallel to the view direction", cfg.Up)
	}
	right := vec3.Normalize(side)
	up := vec3.CProd(forward, right)

	viewportHeight := 2 * math.Tan(cfg.VerticalFOV*math.Pi/180/2)
	viewportWidth := cfg.AspectRatio * viewportHeight

	horizontal := vec3.MulVS(right, cfg.FocusDistance*viewportWidth)
	vertical := vec3.MulVS(up, cfg.FocusDistance*viewportHeight)

	lowerLeftCorner := cfg.LookFrom
	lowerLeftCorner = vec3.SubVV(lowerLeftCorner, vec3.DivVS(horizontal, 2))
	lowerLeftCorner = vec3.SubVV(lowerLeftCorner, vec3.DivVS(vertical, 2))
	lowerLeftCorner = vec3.SubVV(lowerLeftCorner, vec3.MulVS(forward, cfg.FocusDistance))

	return &ThinLens{
		origin:          cfg.LookFrom,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		right:           right,
		up:              up,
		forward:         forward,
		lensRadius:      cfg.Aperture / 2,
	}, nil
}

func (c *ThinLens) ImageToRay(s, t float64, rng *rand.Rand) ray.Ray {
	offset := vec3.T{}
	if c.lensRadius > 0 {
		d := vec3.MulVS(vec3.RandomInUnitDisk(rng), c.lensRadius)
		offset = vec3.AddVV(vec3.MulVS(c.right, d[0]), vec3.MulVS(c.up, d[1]))
	}

	target := c.lowerLeftCorner
	target = vec3.AddVV(target, vec3.MulVS(c.horizontal, s))
	target = vec3.AddVV(target, vec3.MulVS(c.vertical, t))

	origin := vec3.AddVV(c.origin, offset)
	return ray.Ray{
		Point: origin,
		Slope: vec3.SubVV(target, origin),
	}
}

func (c *ThinLens) Origin() vec3.T {
	return c.origin
}

func (c *ThinLens) Forward() vec3.T {
	return c.forward
}

func (c *ThinLens) Right() vec3.T {
	return c.right
}

func (c *ThinLens) Up() vec3.T {
	return c.up
}
