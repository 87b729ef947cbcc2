package scene

import (
	"fmt"
	"math/rand/v2"

	"row-major/lenscast/camera"
	"row-major/lenscast/geometry"
	"row-major/lenscast/material"
	"row-major/lenscast/ray"
	"row-major/lenscast/vmath/colour"
	"row-major/lenscast/vmath/vec3"
)

// ShadowEpsilon is the lower bound of every intersection query.  Without it,
// rounding error at a scattered ray's origin makes the ray hit the surface it
// is leaving ("shadow acne").
const ShadowEpsilon = 0.001

// Background is the sky seen by rays that escape the scene: a vertical
// gradient from Horizon (looking straight down) to Zenith (straight up).
type Background struct {
	Horizon colour.T
	Zenith  colour.T
}

func DefaultBackground() Background {
	return Background{
		Horizon: colour.White,
		Zenith:  colour.T{0.5, 0.7, 1.0},
	}
}

func (b Background) Radiance(dir vec3.T) colour.T {
	unit := vec3.Normalize(dir)
	t := 0.5 * (unit[1] + 1.0)
	return vec3.Lerp(t, b.Horizon, b.Zenith)
}

// Scene is a set of surfaces, the materials they reference and the cameras
// that look at them.
//
// A scene is filled in by a builder and then only read.  Any number of
// goroutines may sample the same scene as long as each brings its own rng.
type Scene struct {
	Materials  []material.Material
	Root       geometry.Group
	Cameras    []camera.Camera
	Background Background
}

func New() *Scene {
	return &Scene{Background: DefaultBackground()}
}

// AddMaterial is a convenience function to register a material and get its
// index.
func (s *Scene) AddMaterial(m material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

func (s *Scene) AddGeometry(g geometry.Geometry) {
	s.Root.Add(g)
}

func (s *Scene) AddCamera(c camera.Camera) int {
	s.Cameras = append(s.Cameras, c)
	return len(s.Cameras) - 1
}

// Check verifies that every sphere in the scene refers to a registered
// material.
func (s *Scene) Check() error {
	return s.checkGroup(&s.Root)
}

func (s *Scene) checkGroup(g *geometry.Group) error {
	for i, m := range g.Members {
		switch m := m.(type) {
		case *geometry.Sphere:
			if m.MaterialIndex < 0 || m.MaterialIndex >= len(s.Materials) {
				return fmt.Errorf("sphere %d refers to material %d, but only %d are registered", i, m.MaterialIndex, len(s.Materials))
			}
		case *geometry.Group:
			if err := s.checkGroup(m); err != nil {
				return fmt.Errorf("in group %d: %w", i, err)
			}
		}
	}
	return nil
}

// SampleRay estimates the radiance arriving along r, allowing at most depth
// scattering events.
func (s *Scene) SampleRay(r ray.Ray, depth int, rng *rand.Rand) colour.T {
	c, _ := s.SamplePath(r, depth, rng)
	return c
}

// PathOutcome says how a sampled path ended.
type PathOutcome int

const (
	// The path left the scene and picked up the background.
	PathEscaped PathOutcome = iota
	// A material absorbed the path.
	PathAbsorbed
	// The path ran out of bounces.
	PathTruncated
)

// PathInfo describes a sampled path, for bookkeeping.
type PathInfo struct {
	Bounces int
	Outcome PathOutcome
}

// SamplePath is SampleRay, additionally reporting the path's length and
// fate.
//
// It follows the path iteratively, carrying the product of attenuations
// picked up so far.  The result equals the recursive definition: background
// on escape, black on absorption or once depth is spent, attenuation times
// the continuation otherwise.
func (s *Scene) SamplePath(r ray.Ray, depth int, rng *rand.Rand) (colour.T, PathInfo) {
	if depth < 0 {
		panic(fmt.Sprintf("scene: negative depth budget %d", depth))
	}

	throughput := colour.White
	cur := r
	info := PathInfo{}

	for {
		c, hit := s.Root.RayInto(ray.RaySegment{
			TheRay:     cur,
			TheSegment: ray.Forward(ShadowEpsilon),
		})
		if !hit {
			info.Outcome = PathEscaped
			return colour.Mul(throughput, s.Background.Radiance(cur.Slope)), info
		}

		if depth == 0 {
			info.Outcome = PathTruncated
			return colour.Black, info
		}

		scattered, ok := s.Materials[c.MaterialIndex].Scatter(c, rng)
		if !ok {
			info.Outcome = PathAbsorbed
			return colour.Black, info
		}

		throughput = colour.Mul(throughput, scattered.Attenuation)
		cur = scattered.Outgoing
		depth--
		info.Bounces++
	}
}
