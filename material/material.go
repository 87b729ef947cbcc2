package material

import (
	"fmt"
	"math"
	"math/rand/v2"

	"row-major/lenscast/contact"
	"row-major/lenscast/ray"
	"row-major/lenscast/vmath/colour"
	"row-major/lenscast/vmath/vec3"
)

// ScatterInfo is what survives a scattering event: the ray light continues
// along and how much of it.
type ScatterInfo struct {
	Attenuation colour.T
	Outgoing    ray.Ray
}

// Material decides what happens to light arriving at a contact.
//
// Scatter returns false when the light is absorbed.  Implementations are
// immutable after construction and safe to share between goroutines; all
// randomness comes from rng.
type Material interface {
	Scatter(c contact.Contact, rng *rand.Rand) (ScatterInfo, bool)
}

// Lambertian is an ideal diffuse reflector.
type Lambertian struct {
	Albedo colour.T
}

func NewLambertian(albedo colour.T) (*Lambertian, error) {
	if err := checkAlbedo(albedo); err != nil {
		return nil, err
	}
	return &Lambertian{Albedo: albedo}, nil
}

func (l *Lambertian) Scatter(c contact.Contact, rng *rand.Rand) (ScatterInfo, bool) {
	dir := vec3.AddVV(c.N, vec3.RandomUnitVector(rng))

	// The random vector can nearly cancel the normal.
	if dir.NearZero() {
		dir = c.N
	}

	return ScatterInfo{
		Attenuation: l.Albedo,
		Outgoing:    ray.Ray{Point: c.P, Slope: dir},
	}, true
}

// Metallic is a mirror whose reflections are blurred by Fuzziness.
type Metallic struct {
	Albedo    colour.T
	Fuzziness float64
}

func NewMetallic(albedo colour.T, fuzziness float64) (*Metallic, error) {
	if err := checkAlbedo(albedo); err != nil {
		return nil, err
	}
	if !(0 <= fuzziness && fuzziness <= 1) {
		return nil, fmt.Errorf("fuzziness %v is outside [0, 1]", fuzziness)
	}
	return &Metallic{Albedo: albedo, Fuzziness: fuzziness}, nil
}

func (m *Metallic) Scatter(c contact.Contact, rng *rand.Rand) (ScatterInfo, bool) {
	dir := vec3.Reflect(vec3.Normalize(c.R.Slope), c.N)
	if m.Fuzziness > 0 {
		dir = vec3.AddVV(dir, vec3.MulVS(vec3.RandomInUnitSphere(rng), m.Fuzziness))
	}

	// Fuzz can push the reflection below the surface.
	if vec3.IProd(dir, c.N) <= 0 {
		return ScatterInfo{}, false
	}

	return ScatterInfo{
		Attenuation: m.Albedo,
		Outgoing:    ray.Ray{Point: c.P, Slope: dir},
	}, true
}

// Dielectric is clear glass (or water, or diamond) surrounded by air.
type Dielectric struct {
	RefractionIndex float64
}

func NewDielectric(refractionIndex float64) (*Dielectric, error) {
	if !(refractionIndex > 0) || math.IsInf(refractionIndex, 0) {
		return nil, fmt.Errorf("refraction index %v must be positive and finite", refractionIndex)
	}
	return &Dielectric{RefractionIndex: refractionIndex}, nil
}

func (d *Dielectric) Scatter(c contact.Contact, rng *rand.Rand) (ScatterInfo, bool) {
	ratio := d.RefractionIndex
	if c.FrontFace {
		ratio = 1.0 / d.RefractionIndex
	}

	unitDir := vec3.Normalize(c.R.Slope)
	cosTheta := math.Min(vec3.IProd(vec3.Neg(unitDir), c.N), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	var dir vec3.T
	if ratio*sinTheta > 1.0 || Reflectance(cosTheta, ratio) > rng.Float64() {
		dir = vec3.Reflect(unitDir, c.N)
	} else {
		dir = vec3.Refract(unitDir, c.N, ratio)
	}

	return ScatterInfo{
		Attenuation: colour.White,
		Outgoing:    ray.Ray{Point: c.P, Slope: dir},
	}, true
}

// Reflectance is Schlick's approximation of the Fresnel reflection
// coefficient.
func Reflectance(cosine, ratio float64) float64 {
	// Matched indices mean there is no optical boundary at all.  Schlick's
	// grazing-angle term would otherwise still reflect some light.
	if ratio == 1 {
		return 0
	}
	r0 := (1 - ratio) / (1 + ratio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}

func checkAlbedo(albedo colour.T) error {
	for i, v := range albedo {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("albedo component %d is %v, want a finite non-negative value", i, v)
		}
	}
	return nil
}
