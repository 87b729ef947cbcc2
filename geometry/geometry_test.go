package geometry

import (
	"math"
	"math/rand/v2"
	"testing"

	"row-major/lenscast/contact"
	"row-major/lenscast/ray"
	"row-major/lenscast/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func query(from, slope vec3.T) ray.RaySegment {
	return ray.RaySegment{
		TheRay:     ray.Ray{Point: from, Slope: slope},
		TheSegment: ray.Forward(0.001),
	}
}

func TestSphereHeadOn(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1, MaterialIndex: 7}

	q := query(vec3.T{0, 0, 2}, vec3.T{0, 0, -1})
	got, ok := s.RayInto(q)
	if !ok {
		t.Fatalf("Ray aimed at the sphere missed")
	}

	want := contact.Contact{
		T:             1,
		R:             q.TheRay,
		P:             vec3.T{0, 0, 1},
		N:             vec3.T{0, 0, 1},
		FrontFace:     true,
		MaterialIndex: 7,
	}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad contact; diff (-got +want)\n%s", diff)
	}
}

func TestSphereMisses(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1}

	testCases := []struct {
		desc        string
		from, slope vec3.T
	}{
		{desc: "pointing away", from: vec3.T{0, 0, 2}, slope: vec3.T{0, 0, 1}},
		{desc: "passing beside", from: vec3.T{0, 2, 2}, slope: vec3.T{0, 0, -1}},
		{desc: "behind the origin", from: vec3.T{0, 0, -3}, slope: vec3.T{0, 0, -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if c, ok := s.RayInto(query(tc.from, tc.slope)); ok {
				t.Errorf("Got contact %+v, want a miss", c)
			}
		})
	}
}

func TestSphereFromInside(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1}

	got, ok := s.RayInto(query(vec3.T{0, 0, 0}, vec3.T{1, 0, 0}))
	if !ok {
		t.Fatalf("Ray from the centre missed the sphere")
	}
	if diff := cmp.Diff(got.T, 1.0, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad contact parameter; diff (-got +want)\n%s", diff)
	}
	if got.FrontFace {
		t.Errorf("Contact from inside reported as front face")
	}
	if diff := cmp.Diff(got.N, vec3.T{-1, 0, 0}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
	}
}

func TestSphereRespectsSegment(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1}

	q := query(vec3.T{0, 0, 2}, vec3.T{0, 0, -1})
	q.TheSegment.Hi = 1
	if c, ok := s.RayInto(q); ok {
		t.Errorf("Got contact %+v at the exclusive upper bound, want a miss", c)
	}

	// With the near root excluded, the far side of the sphere is found.
	q = query(vec3.T{0, 0, 2}, vec3.T{0, 0, -1})
	q.TheSegment.Lo = 1.5
	c, ok := s.RayInto(q)
	if !ok {
		t.Fatalf("Far root wasn't found")
	}
	if diff := cmp.Diff(c.T, 3.0, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad contact parameter; diff (-got +want)\n%s", diff)
	}
}

func TestSphereNegativeRadius(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: -1}

	got, ok := s.RayInto(query(vec3.T{0, 0, 2}, vec3.T{0, 0, -1}))
	if !ok {
		t.Fatalf("Ray aimed at the sphere missed")
	}
	if diff := cmp.Diff(got.T, 1.0, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad contact parameter; diff (-got +want)\n%s", diff)
	}

	// The surface is where it was, but its outward normal points in, so the
	// ray is reported as arriving from the back.
	if got.FrontFace {
		t.Errorf("Negative-radius sphere reported a front-face hit")
	}
	if diff := cmp.Diff(got.N, vec3.T{0, 0, 1}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
	}
}

func TestNormalOpposesRay(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	s := &Sphere{Center: vec3.T{0.3, -0.2, 0.1}, Radius: 1.5}

	for i := 0; i < 1000; i++ {
		from := vec3.MulVS(vec3.RandomInUnitSphere(rng), 4)
		slope := vec3.MulVS(vec3.RandomUnitVector(rng), 0.5+rng.Float64())
		c, ok := s.RayInto(query(from, slope))
		if !ok {
			continue
		}
		if math.Abs(c.N.Norm()-1) > 1e-9 {
			t.Fatalf("Normal %v has length %v", c.N, c.N.Norm())
		}
		if vec3.IProd(c.N, slope) > 0 {
			t.Fatalf("Normal %v doesn't oppose ray slope %v", c.N, slope)
		}
		if !(c.T > 0.001) {
			t.Fatalf("Contact parameter %v is outside the query span", c.T)
		}
	}
}

func TestGroupFindsNearest(t *testing.T) {
	near := &Sphere{Center: vec3.T{0, 0, -2}, Radius: 0.5, MaterialIndex: 1}
	far := &Sphere{Center: vec3.T{0, 0, -5}, Radius: 0.5, MaterialIndex: 2}

	q := query(vec3.T{0, 0, 0}, vec3.T{0, 0, -1})
	for _, members := range [][]Geometry{{near, far}, {far, near}} {
		g := &Group{}
		for _, m := range members {
			g.Add(m)
		}

		c, ok := g.RayInto(q)
		if !ok {
			t.Fatalf("Group missed")
		}
		if c.MaterialIndex != 1 {
			t.Errorf("Got contact with material %d, want the nearer sphere's 1", c.MaterialIndex)
		}
		if diff := cmp.Diff(c.T, 1.5, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("Bad contact parameter; diff (-got +want)\n%s", diff)
		}
	}
}

func TestEmptyGroupMisses(t *testing.T) {
	g := &Group{}
	if c, ok := g.RayInto(query(vec3.T{0, 0, 0}, vec3.T{0, 0, -1})); ok {
		t.Errorf("Empty group reported contact %+v", c)
	}
	if g.Len() != 0 {
		t.Errorf("Empty group has length %d", g.Len())
	}
}
