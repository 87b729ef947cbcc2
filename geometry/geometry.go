package geometry

import (
	"math"

	"row-major/lenscast/contact"
	"row-major/lenscast/ray"
	"row-major/lenscast/vmath/vec3"
)

// Geometry is anything a ray can be tested against.
//
// RayInto reports the nearest contact whose parameter lies strictly inside
// query.TheSegment, or false if there is none.
type Geometry interface {
	RayInto(query ray.RaySegment) (contact.Contact, bool)
}

// Sphere is a sphere with an attached material.
//
// A negative radius is allowed.  It leaves the surface where it is but turns
// the outward normal inwards, which is how hollow shells (a glass bubble
// inside a glass ball) are built.
type Sphere struct {
	Center        vec3.T
	Radius        float64
	MaterialIndex int
}

func (s *Sphere) RayInto(query ray.RaySegment) (contact.Contact, bool) {
	r := query.TheRay
	oc := vec3.SubVV(r.Point, s.Center)

	a := r.Slope.NormSquared()
	b := 2 * vec3.IProd(r.Slope, oc)
	c := oc.NormSquared() - s.Radius*s.Radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return contact.Contact{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Both roots are candidates; the near one wins if it is admissible.
	t := (-b - sqrtD) / (2 * a)
	if !query.TheSegment.Contains(t) {
		t = (-b + sqrtD) / (2 * a)
		if !query.TheSegment.Contains(t) {
			return contact.Contact{}, false
		}
	}

	result := contact.Contact{
		T:             t,
		R:             r,
		P:             r.Eval(t),
		MaterialIndex: s.MaterialIndex,
	}
	result.SetFaceNormal(vec3.DivVS(vec3.SubVV(result.P, s.Center), s.Radius))
	return result, true
}

// Group is an ordered collection of geometries that answers ray queries with
// the closest contact among its members.  It is searched linearly.
type Group struct {
	Members []Geometry
}

func (g *Group) Add(member Geometry) {
	g.Members = append(g.Members, member)
}

func (g *Group) Len() int {
	return len(g.Members)
}

func (g *Group) RayInto(query ray.RaySegment) (contact.Contact, bool) {
	closest := contact.Contact{}
	found := false

	for _, m := range g.Members {
		c, ok := m.RayInto(query)
		if !ok {
			continue
		}
		// Shrink the search so later members can only win by being nearer.
		query.TheSegment.Hi = c.T
		closest = c
		found = true
	}

	return closest, found
}
