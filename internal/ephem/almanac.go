package ephem

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/litescript/ls-skydome/internal/astro"
)

// Almanac uses the low-precision almanac series from the astro package
// with the IAU-82 sidereal time from go-satellite. It is cheaper than
// Meeus and accurate to a few tenths of a degree.
type Almanac struct{}

// NewAlmanac returns an Almanac provider.
func NewAlmanac() *Almanac { return &Almanac{} }

// Name implements Provider.
func (*Almanac) Name() string { return "Almanac" }

// SunPositionECEF implements Provider.
func (*Almanac) SunPositionECEF(t time.Time) mgl64.Vec3 {
	d := astro.SunDirection(t).Scale(auMetres)
	return toECEF(t, d)
}

// MoonPositionECEF implements Provider.
func (*Almanac) MoonPositionECEF(t time.Time) mgl64.Vec3 {
	m := astro.MoonVector(t).Scale(kmMetres)
	return toECEF(t, m)
}

// ECEFFromRADecl implements Provider.
func (*Almanac) ECEFFromRADecl(ra, decl, radius float64) mgl64.Vec3 {
	return raDeclToXYZ(ra, decl, radius)
}

func toECEF(t time.Time, v astro.Vec3) mgl64.Vec3 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)

	ecef := satellite.ECIToECEF(satellite.Vector3{X: v.X, Y: v.Y, Z: v.Z}, gmst)
	return mgl64.Vec3{ecef.X, ecef.Y, ecef.Z}
}
