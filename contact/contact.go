package contact

import (
	"row-major/lenscast/ray"
	"row-major/lenscast/vmath/vec3"
)

// Contact describes where a ray met a surface.
type Contact struct {
	T float64

	// R is the ray that produced the contact.
	R ray.Ray

	P vec3.T

	// N is the unit surface normal, flipped if needed so that it faces
	// against R.
	N vec3.T

	// FrontFace is true when the surface's outward normal already faced
	// against R, i.e. the ray arrived from outside.
	FrontFace bool

	// MaterialIndex refers to the scene's material table.  Many contacts
	// (and surfaces) share a material.
	MaterialIndex int
}

// SetFaceNormal orients outward against the incoming ray and records which
// side was hit.  outward must be unit length.
func (c *Contact) SetFaceNormal(outward vec3.T) {
	c.FrontFace = vec3.IProd(c.R.Slope, outward) < 0
	if c.FrontFace {
		c.N = outward
	} else {
		c.N = vec3.Neg(outward)
	}
}
