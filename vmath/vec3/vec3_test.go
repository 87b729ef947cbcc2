package vec3

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/stat"
)

func TestCProdIsRightHanded(t *testing.T) {
	got := CProd(T{1, 0, 0}, T{0, 1, 0})
	if diff := cmp.Diff(got, T{0, 0, 1}); diff != "" {
		t.Errorf("Bad cross product; diff (-got +want)\n%s", diff)
	}
}

func TestReflect(t *testing.T) {
	got := Reflect(T{1, -1, 0}, T{0, 1, 0})
	if diff := cmp.Diff(got, T{1, 1, 0}); diff != "" {
		t.Errorf("Bad reflection; diff (-got +want)\n%s", diff)
	}
}

func TestRefractStraightThrough(t *testing.T) {
	// A ray along the normal never bends, whatever the ratio.
	got := Refract(T{0, 0, -1}, T{0, 0, 1}, 1.0/1.5)
	if diff := cmp.Diff(got, T{0, 0, -1}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad refraction; diff (-got +want)\n%s", diff)
	}
}

func TestRefractUnitRatioPreservesDirection(t *testing.T) {
	uv := Normalize(T{1, -2, 0.5})
	n := T{0, 1, 0}
	got := Refract(uv, n, 1.0)
	if diff := cmp.Diff(got, uv, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad refraction; diff (-got +want)\n%s", diff)
	}
}

func TestLerp(t *testing.T) {
	a := T{1, 1, 1}
	b := T{0.5, 0.7, 1.0}

	if diff := cmp.Diff(Lerp(0, a, b), a); diff != "" {
		t.Errorf("Bad Lerp(0); diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(Lerp(1, a, b), b); diff != "" {
		t.Errorf("Bad Lerp(1); diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(Lerp(0.5, a, b), T{0.75, 0.85, 1.0}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad Lerp(0.5); diff (-got +want)\n%s", diff)
	}
}

func TestNearZero(t *testing.T) {
	if !(T{1e-9, -1e-9, 0}).NearZero() {
		t.Errorf("Tiny vector not reported as near zero")
	}
	if (T{1e-9, 1e-3, 0}).NearZero() {
		t.Errorf("Vector with one large component reported as near zero")
	}
}

func TestRandomInUnitSphere(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var xs, ys, zs []float64
	for i := 0; i < 20000; i++ {
		p := RandomInUnitSphere(rng)
		if p.NormSquared() >= 1 {
			t.Fatalf("Point %v is outside the unit ball", p)
		}
		xs = append(xs, p[0])
		ys = append(ys, p[1])
		zs = append(zs, p[2])
	}

	for i, comp := range [][]float64{xs, ys, zs} {
		if mean := stat.Mean(comp, nil); math.Abs(mean) > 0.02 {
			t.Errorf("Component %d has mean %v, want about 0", i, mean)
		}
	}
}

func TestRandomUnitVector(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	var zs []float64
	for i := 0; i < 20000; i++ {
		v := RandomUnitVector(rng)
		if math.Abs(v.Norm()-1) > 1e-9 {
			t.Fatalf("RandomUnitVector returned %v with length %v", v, v.Norm())
		}
		zs = append(zs, v[2])
	}

	// Uniform on the sphere means z is uniform on [-1, 1]: mean 0, variance 1/3.
	mean, std := stat.MeanStdDev(zs, nil)
	if math.Abs(mean) > 0.02 {
		t.Errorf("z has mean %v, want about 0", mean)
	}
	if math.Abs(std*std-1.0/3.0) > 0.02 {
		t.Errorf("z has variance %v, want about 1/3", std*std)
	}
}

func TestRandomInUnitDisk(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 1000; i++ {
		p := RandomInUnitDisk(rng)
		if p[2] != 0 {
			t.Fatalf("RandomInUnitDisk returned %v, off the z=0 plane", p)
		}
		if p.NormSquared() >= 1 {
			t.Fatalf("RandomInUnitDisk returned %v, outside the disk", p)
		}
	}
}
