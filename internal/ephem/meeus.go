package ephem

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
)

// Meeus computes positions with the series from Meeus, Astronomical
// Algorithms. UT is used in place of TT; the difference is well below what
// a sky backdrop can show.
type Meeus struct{}

// NewMeeus returns a Meeus provider.
func NewMeeus() *Meeus { return &Meeus{} }

// Name implements Provider.
func (*Meeus) Name() string { return "Meeus" }

// SunPositionECEF implements Provider.
func (*Meeus) SunPositionECEF(t time.Time) mgl64.Vec3 {
	jd := julian.TimeToJD(t.UTC())

	ra, dec := solar.ApparentEquatorial(jd)
	r := solar.Radius(base.J2000Century(jd)) * auMetres

	eci := raDeclToXYZ(ra.Rad(), dec.Rad(), r)
	return rotateToECEF(eci, sidereal.Apparent(jd).Angle().Rad())
}

// MoonPositionECEF implements Provider.
func (*Meeus) MoonPositionECEF(t time.Time) mgl64.Vec3 {
	jd := julian.TimeToJD(t.UTC())

	λ, β, Δ := moonposition.Position(jd)
	Δψ, Δε := nutation.Nutation(jd)
	ε := nutation.MeanObliquity(jd) + Δε
	sε, cε := ε.Sincos()

	ra, dec := coord.EclToEq(λ+Δψ, β, sε, cε)

	eci := raDeclToXYZ(ra.Rad(), dec.Rad(), Δ*kmMetres)
	return rotateToECEF(eci, sidereal.Apparent(jd).Angle().Rad())
}

// ECEFFromRADecl implements Provider.
func (*Meeus) ECEFFromRADecl(ra, decl, radius float64) mgl64.Vec3 {
	return raDeclToXYZ(ra, decl, radius)
}
