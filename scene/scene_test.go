package scene

import (
	"math/rand/v2"
	"testing"

	"row-major/lenscast/geometry"
	"row-major/lenscast/material"
	"row-major/lenscast/ray"
	"row-major/lenscast/vmath/colour"
	"row-major/lenscast/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustLambertian(t *testing.T, albedo colour.T) *material.Lambertian {
	t.Helper()
	m, err := material.NewLambertian(albedo)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return m
}

func TestBackground(t *testing.T) {
	bg := DefaultBackground()

	if diff := cmp.Diff(bg.Radiance(vec3.T{0, 1, 0}), colour.T{0.5, 0.7, 1.0}); diff != "" {
		t.Errorf("Bad zenith radiance; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(bg.Radiance(vec3.T{0, -3, 0}), colour.White); diff != "" {
		t.Errorf("Bad nadir radiance; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(bg.Radiance(vec3.T{1, 0, 0}), colour.T{0.75, 0.85, 1.0}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad horizon radiance; diff (-got +want)\n%s", diff)
	}
}

func TestEmptySceneSeesBackground(t *testing.T) {
	s := New()
	rng := rand.New(rand.NewPCG(1, 2))

	for _, dir := range []vec3.T{{0, 1, 0}, {1, 0, -1}, {0.2, -0.7, 0.1}} {
		r := ray.Ray{Point: vec3.T{0, 0, 0}, Slope: dir}
		for _, depth := range []int{0, 1, 50} {
			got, info := s.SamplePath(r, depth, rng)
			if diff := cmp.Diff(got, s.Background.Radiance(dir)); diff != "" {
				t.Errorf("Bad radiance at depth %d; diff (-got +want)\n%s", depth, diff)
			}
			if info.Outcome != PathEscaped || info.Bounces != 0 {
				t.Errorf("Got path info %+v, want an immediate escape", info)
			}
		}
	}
}

func TestZeroDepthHitIsBlack(t *testing.T) {
	s := New()
	idx := s.AddMaterial(mustLambertian(t, colour.T{0.5, 0.5, 0.5}))
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5, MaterialIndex: idx})

	rng := rand.New(rand.NewPCG(3, 4))
	got, info := s.SamplePath(ray.Ray{Slope: vec3.T{0, 0, -1}}, 0, rng)
	if diff := cmp.Diff(got, colour.Black); diff != "" {
		t.Errorf("Bad radiance; diff (-got +want)\n%s", diff)
	}
	if info.Outcome != PathTruncated {
		t.Errorf("Got outcome %v, want PathTruncated", info.Outcome)
	}
}

func TestMirrorThenSky(t *testing.T) {
	s := New()
	albedo := colour.T{0.8, 0.6, 0.2}
	mirror, err := material.NewMetallic(albedo, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	idx := s.AddMaterial(mirror)
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{0, 0, -2}, Radius: 1, MaterialIndex: idx})

	// Straight at the sphere, the ray comes back along +z and escapes.
	rng := rand.New(rand.NewPCG(5, 6))
	got, info := s.SamplePath(ray.Ray{Slope: vec3.T{0, 0, -1}}, 5, rng)

	want := colour.Mul(albedo, s.Background.Radiance(vec3.T{0, 0, 1}))
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad radiance; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(info, PathInfo{Bounces: 1, Outcome: PathEscaped}); diff != "" {
		t.Errorf("Bad path info; diff (-got +want)\n%s", diff)
	}

	// One bounce short, the same path is cut off.
	got, info = s.SamplePath(ray.Ray{Slope: vec3.T{0, 0, -1}}, 0, rng)
	if diff := cmp.Diff(got, colour.Black); diff != "" {
		t.Errorf("Bad truncated radiance; diff (-got +want)\n%s", diff)
	}
}

func TestRadianceIsBoundedByBackground(t *testing.T) {
	s := New()
	ground := s.AddMaterial(mustLambertian(t, colour.T{0.5, 0.5, 0.5}))
	glass, err := material.NewDielectric(1.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	glassIdx := s.AddMaterial(glass)
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{0, -100.5, -1}, Radius: 100, MaterialIndex: ground})
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5, MaterialIndex: glassIdx})

	rng := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 2000; i++ {
		dir := vec3.RandomUnitVector(rng)
		got := s.SampleRay(ray.Ray{Slope: dir}, 10, rng)
		for c := 0; c < 3; c++ {
			if got[c] < 0 || got[c] > 1 {
				t.Fatalf("Radiance %v leaves [0, 1] with albedos at most 1", got)
			}
		}
	}
}

func TestNegativeDepthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("SamplePath with negative depth didn't panic")
		}
	}()

	s := New()
	s.SamplePath(ray.Ray{Slope: vec3.T{0, 0, -1}}, -1, rand.New(rand.NewPCG(1, 1)))
}

func TestCheck(t *testing.T) {
	s := New()
	idx := s.AddMaterial(mustLambertian(t, colour.T{0.5, 0.5, 0.5}))
	s.AddGeometry(&geometry.Sphere{Radius: 1, MaterialIndex: idx})
	if err := s.Check(); err != nil {
		t.Errorf("Unexpected error from valid scene: %v", err)
	}

	inner := &geometry.Group{}
	inner.Add(&geometry.Sphere{Radius: 1, MaterialIndex: 3})
	s.AddGeometry(inner)
	if err := s.Check(); err == nil {
		t.Errorf("Check accepted a sphere with an unregistered material")
	}
}
