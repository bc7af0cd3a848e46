// Package scatter derives the constants of a single-scattering atmosphere
// shader (Rayleigh and Mie terms) from the planet's inner radius.
package scatter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/litescript/ls-skydome/internal/scene"
)

// Physical constants of the scattering model.
const (
	Kr                 = 0.0025
	Km                 = 0.0015
	ESun               = 15.0
	MPhase             = -0.095
	RayleighScaleDepth = 0.25
	Samples            = 2
	Weather            = 1.0

	// OuterRadiusRatio is the atmosphere shell thickness relative to the
	// inner radius.
	OuterRadiusRatio = 1.025
)

// Wavelengths are the red, green and blue wavelengths in micrometres.
var Wavelengths = [3]float64{0.650, 0.570, 0.475}

// Uniform names consumed by the atmosphere shaders.
const (
	UniformInvWavelength       = "atmos_v3InvWavelength"
	UniformInnerRadius         = "atmos_fInnerRadius"
	UniformInnerRadius2        = "atmos_fInnerRadius2"
	UniformOuterRadius         = "atmos_fOuterRadius"
	UniformOuterRadius2        = "atmos_fOuterRadius2"
	UniformKrESun              = "atmos_fKrESun"
	UniformKmESun              = "atmos_fKmESun"
	UniformKr4PI               = "atmos_fKr4PI"
	UniformKm4PI               = "atmos_fKm4PI"
	UniformScale               = "atmos_fScale"
	UniformScaleDepth          = "atmos_fScaleDepth"
	UniformScaleOverScaleDepth = "atmos_fScaleOverScaleDepth"
	UniformG                   = "atmos_g"
	UniformG2                  = "atmos_g2"
	UniformNSamples            = "atmos_nSamples"
	UniformFSamples            = "atmos_fSamples"
	UniformWeather             = "atmos_fWeather"
)

// Parameters is the derived parameter set. It depends on the planet only,
// never on the observer.
type Parameters struct {
	InvWavelength       [3]float64
	InnerRadius         float64
	InnerRadius2        float64
	OuterRadius         float64
	OuterRadius2        float64
	KrESun              float64
	KmESun              float64
	Kr4PI               float64
	Km4PI               float64
	Scale               float64
	ScaleDepth          float64
	ScaleOverScaleDepth float64
	G                   float64
	G2                  float64
	NSamples            int
	FSamples            float64
	Weather             float64
}

// Derive computes the parameter set for a planet of the given inner radius.
func Derive(innerRadius float64) Parameters {
	outer := innerRadius * OuterRadiusRatio
	scale := 1 / (outer - innerRadius)

	var inv [3]float64
	for i, wl := range Wavelengths {
		inv[i] = 1 / math.Pow(wl, 4)
	}

	return Parameters{
		InvWavelength:       inv,
		InnerRadius:         innerRadius,
		InnerRadius2:        innerRadius * innerRadius,
		OuterRadius:         outer,
		OuterRadius2:        outer * outer,
		KrESun:              Kr * ESun,
		KmESun:              Km * ESun,
		Kr4PI:               Kr * 4 * math.Pi,
		Km4PI:               Km * 4 * math.Pi,
		Scale:               scale,
		ScaleDepth:          RayleighScaleDepth,
		ScaleOverScaleDepth: scale / RayleighScaleDepth,
		G:                   MPhase,
		G2:                  MPhase * MPhase,
		NSamples:            Samples,
		FSamples:            float64(Samples),
		Weather:             Weather,
	}
}

// Install writes the parameters into ss as shader uniforms, overwriting any
// previous values.
func (p Parameters) Install(ss *scene.StateSet) {
	f := func(name string, v float64) {
		ss.OrCreateUniform(name, float32(0)).Set(float32(v))
	}

	ss.OrCreateUniform(UniformInvWavelength, mgl32.Vec3{}).Set(mgl32.Vec3{
		float32(p.InvWavelength[0]),
		float32(p.InvWavelength[1]),
		float32(p.InvWavelength[2]),
	})
	f(UniformInnerRadius, p.InnerRadius)
	f(UniformInnerRadius2, p.InnerRadius2)
	f(UniformOuterRadius, p.OuterRadius)
	f(UniformOuterRadius2, p.OuterRadius2)
	f(UniformKrESun, p.KrESun)
	f(UniformKmESun, p.KmESun)
	f(UniformKr4PI, p.Kr4PI)
	f(UniformKm4PI, p.Km4PI)
	f(UniformScale, p.Scale)
	f(UniformScaleDepth, p.ScaleDepth)
	f(UniformScaleOverScaleDepth, p.ScaleOverScaleDepth)
	f(UniformG, p.G)
	f(UniformG2, p.G2)
	ss.OrCreateUniform(UniformNSamples, int32(0)).Set(int32(p.NSamples))
	f(UniformFSamples, p.FSamples)
	f(UniformWeather, p.Weather)
}
