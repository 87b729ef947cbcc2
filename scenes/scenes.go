// Package scenes builds the procedural scenes lenscast knows how to render.
package scenes

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"row-major/lenscast/camera"
	"row-major/lenscast/geometry"
	"row-major/lenscast/material"
	"row-major/lenscast/scene"
	"row-major/lenscast/vmath/colour"
	"row-major/lenscast/vmath/vec3"
)

var ErrUnknownScene = errors.New("unknown scene")

// Builder populates a scene for an image of the given aspect ratio.  Any
// randomness in the layout comes from rng.
type Builder func(aspect float64, rng *rand.Rand) (*scene.Scene, error)

var builders = map[string]Builder{
	"single":         Single,
	"basic":          Basic,
	"random-spheres": RandomSpheres,
}

// Names lists the registered scenes in sorted order.
func Names() []string {
	names := []string{}
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func Build(name string, aspect float64, rng *rand.Rand) (*scene.Scene, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownScene, name, Names())
	}

	s, err := b(aspect, rng)
	if err != nil {
		return nil, fmt.Errorf("while building scene %q: %w", name, err)
	}

	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("scene %q is inconsistent: %w", name, err)
	}

	return s, nil
}

// Single is one grey diffuse ball in front of a camera at the origin.
func Single(aspect float64, rng *rand.Rand) (*scene.Scene, error) {
	s := scene.New()

	grey, err := material.NewLambertian(colour.T{0.5, 0.5, 0.5})
	if err != nil {
		return nil, err
	}
	s.AddGeometry(&geometry.Sphere{
		Center:        vec3.T{0, 0, -1},
		Radius:        0.5,
		MaterialIndex: s.AddMaterial(grey),
	})

	cam, err := camera.NewThinLens(camera.Config{
		LookFrom:      vec3.T{0, 0, 0},
		LookAt:        vec3.T{0, 0, -1},
		Up:            vec3.T{0, 1, 0},
		VerticalFOV:   90,
		AspectRatio:   aspect,
		FocusDistance: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("while creating camera: %w", err)
	}
	s.AddCamera(cam)

	return s, nil
}

// Basic is a small still life: a diffuse ball between a hollow glass ball
// and a metal one, on a huge diffuse ground ball, with shallow depth of
// field.
func Basic(aspect float64, rng *rand.Rand) (*scene.Scene, error) {
	s := scene.New()

	ground, err := material.NewLambertian(colour.T{0.8, 0.8, 0.0})
	if err != nil {
		return nil, err
	}
	centre, err := material.NewLambertian(colour.T{0.1, 0.2, 0.5})
	if err != nil {
		return nil, err
	}
	glass, err := material.NewDielectric(1.5)
	if err != nil {
		return nil, err
	}
	gold, err := material.NewMetallic(colour.T{0.8, 0.6, 0.2}, 0.0)
	if err != nil {
		return nil, err
	}

	groundIndex := s.AddMaterial(ground)
	centreIndex := s.AddMaterial(centre)
	glassIndex := s.AddMaterial(glass)
	goldIndex := s.AddMaterial(gold)

	s.AddGeometry(&geometry.Sphere{Center: vec3.T{0, -100.5, -1}, Radius: 100, MaterialIndex: groundIndex})
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{0, 0, -1}, Radius: 0.5, MaterialIndex: centreIndex})
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{-1, 0, -1}, Radius: 0.5, MaterialIndex: glassIndex})
	// Both glass spheres share one material; the negative radius turns the
	// inner one into the inside surface of a bubble.
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{-1, 0, -1}, Radius: -0.45, MaterialIndex: glassIndex})
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{1, 0, -1}, Radius: 0.5, MaterialIndex: goldIndex})

	from := vec3.T{3, 3, 2}
	at := vec3.T{0, 0, -1}
	cam, err := camera.NewThinLens(camera.Config{
		LookFrom:      from,
		LookAt:        at,
		Up:            vec3.T{0, 1, 0},
		VerticalFOV:   20,
		AspectRatio:   aspect,
		Aperture:      2.0,
		FocusDistance: vec3.SubVV(from, at).Norm(),
	})
	if err != nil {
		return nil, fmt.Errorf("while creating camera: %w", err)
	}
	s.AddCamera(cam)

	return s, nil
}

// randomGridHalfWidth is how many cells the small-sphere grid extends on
// each side of the origin.
const randomGridHalfWidth = 25

// maxPlacementAttempts bounds the search for a non-overlapping spot in one
// grid cell.  Cells that run out of attempts stay empty.
const maxPlacementAttempts = 100

type footprint struct {
	center vec3.T
	radius float64
}

func (f footprint) overlaps(o footprint) bool {
	return vec3.SubVV(f.center, o.center).Norm() < f.radius+o.radius+0.05
}

// RandomSpheres is a field of small random balls around three big ones.
func RandomSpheres(aspect float64, rng *rand.Rand) (*scene.Scene, error) {
	s := scene.New()

	ground, err := material.NewLambertian(colour.T{0.5, 0.5, 0.5})
	if err != nil {
		return nil, err
	}
	s.AddGeometry(&geometry.Sphere{Center: vec3.T{0, -1000, 0}, Radius: 1000, MaterialIndex: s.AddMaterial(ground)})

	// A single glass material serves the big ball and every small glass ball.
	glass, err := material.NewDielectric(1.5)
	if err != nil {
		return nil, err
	}
	glassIndex := s.AddMaterial(glass)

	brown, err := material.NewLambertian(colour.T{0.4, 0.2, 0.1})
	if err != nil {
		return nil, err
	}
	mirror, err := material.NewMetallic(colour.T{0.7, 0.6, 0.5}, 0.0)
	if err != nil {
		return nil, err
	}

	big := []footprint{
		{vec3.T{0, 1, 0}, 1},
		{vec3.T{-4, 1, 0}, 1},
		{vec3.T{4, 1, 0}, 1},
	}
	s.AddGeometry(&geometry.Sphere{Center: big[0].center, Radius: big[0].radius, MaterialIndex: glassIndex})
	s.AddGeometry(&geometry.Sphere{Center: big[1].center, Radius: big[1].radius, MaterialIndex: s.AddMaterial(brown)})
	s.AddGeometry(&geometry.Sphere{Center: big[2].center, Radius: big[2].radius, MaterialIndex: s.AddMaterial(mirror)})

	const smallRadius = 0.2
	for i := -randomGridHalfWidth; i < randomGridHalfWidth; i++ {
		for j := -randomGridHalfWidth; j < randomGridHalfWidth; j++ {
			chooseMat := rng.Float64()

			spot, ok := placeSmallSphere(float64(i), float64(j), smallRadius, big, rng)
			if !ok {
				continue
			}
			if vec3.SubVV(spot.center, vec3.T{4, 0.2, 0}).Norm() <= 0.9 {
				continue
			}

			var mtlIndex int
			switch {
			case chooseMat < 0.8:
				albedo := colour.FromHSV(rng.Float64()*2*math.Pi, 1.0, 0.8)
				m, err := material.NewLambertian(albedo)
				if err != nil {
					return nil, err
				}
				mtlIndex = s.AddMaterial(m)
			case chooseMat < 0.95:
				albedo := colour.FromHSV(rng.Float64()*2*math.Pi, 0.2, 0.8)
				m, err := material.NewMetallic(albedo, rng.Float64()/2)
				if err != nil {
					return nil, err
				}
				mtlIndex = s.AddMaterial(m)
			default:
				mtlIndex = glassIndex
			}

			s.AddGeometry(&geometry.Sphere{Center: spot.center, Radius: spot.radius, MaterialIndex: mtlIndex})
		}
	}

	cam, err := camera.NewThinLens(camera.Config{
		LookFrom:      vec3.T{13, 2, 3},
		LookAt:        vec3.T{0, 0, 0},
		Up:            vec3.T{0, 1, 0},
		VerticalFOV:   20,
		AspectRatio:   aspect,
		Aperture:      0.1,
		FocusDistance: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("while creating camera: %w", err)
	}
	s.AddCamera(cam)

	return s, nil
}

// placeSmallSphere jitters a sphere inside grid cell (i, j) until it clears
// all the big spheres.
func placeSmallSphere(i, j, radius float64, avoid []footprint, rng *rand.Rand) (footprint, bool) {
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		cand := footprint{
			center: vec3.T{i + 0.9*rng.Float64(), radius, j + 0.9*rng.Float64()},
			radius: radius,
		}

		free := true
		for _, a := range avoid {
			if cand.overlaps(a) {
				free = false
				break
			}
		}
		if free {
			return cand, true
		}
	}
	return footprint{}, false
}
