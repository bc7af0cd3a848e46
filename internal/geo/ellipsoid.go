// Package geo models the reference ellipsoid a sky is built around.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
)

// ErrInvalidRadius is returned for non-positive or inverted ellipsoid radii.
var ErrInvalidRadius = errors.New("invalid ellipsoid radius")

// Ellipsoid is an immutable oblate spheroid. Radii are in metres.
type Ellipsoid struct {
	name       string
	shape      globe.Ellipsoid
	equatorial float64
	polar      float64
}

// NewEllipsoid returns an ellipsoid with the given equatorial and polar radii.
func NewEllipsoid(name string, equatorial, polar float64) (*Ellipsoid, error) {
	if equatorial <= 0 || polar <= 0 || polar > equatorial {
		return nil, fmt.Errorf("%w: equatorial=%g polar=%g", ErrInvalidRadius, equatorial, polar)
	}
	return &Ellipsoid{
		name: name,
		shape: globe.Ellipsoid{
			Er: equatorial / 1000,
			Fl: 1 - polar/equatorial,
		},
		equatorial: equatorial,
		polar:      polar,
	}, nil
}

func mustEllipsoid(name string, equatorial, polar float64) *Ellipsoid {
	e, err := NewEllipsoid(name, equatorial, polar)
	if err != nil {
		panic(err)
	}
	return e
}

// WGS84 returns the WGS 84 Earth ellipsoid.
func WGS84() *Ellipsoid {
	return mustEllipsoid("WGS84", 6378137.0, 6356752.314245)
}

// Moon returns the lunar ellipsoid used for the moon mesh.
func Moon() *Ellipsoid {
	return mustEllipsoid("Moon", 1738140.0, 1735970.0)
}

// Name returns the ellipsoid's label.
func (e *Ellipsoid) Name() string { return e.name }

// RadiusEquator returns the equatorial radius in metres.
func (e *Ellipsoid) RadiusEquator() float64 { return e.equatorial }

// RadiusPolar returns the polar radius in metres.
func (e *Ellipsoid) RadiusPolar() float64 { return e.polar }

// LatLongHeightToXYZ converts geodetic latitude and longitude (radians) and
// height above the ellipsoid (metres) into planet-centred Cartesian metres.
func (e *Ellipsoid) LatLongHeightToXYZ(lat, lon, height float64) mgl64.Vec3 {
	// ρ sin φ′ and ρ cos φ′ in units of the equatorial radius.
	rs, rc := e.shape.ParallaxConstants(unit.Angle(lat), height)

	a := e.RadiusEquator()
	sl, cl := math.Sincos(lon)
	return mgl64.Vec3{a * rc * cl, a * rc * sl, a * rs}
}

// LocalUp returns the ellipsoid normal at a geodetic latitude and longitude.
func (e *Ellipsoid) LocalUp(lat, lon float64) mgl64.Vec3 {
	sp, cp := math.Sincos(lat)
	sl, cl := math.Sincos(lon)
	return mgl64.Vec3{cp * cl, cp * sl, sp}
}

// ENU returns the local east, north and up unit vectors at a geodetic point.
func (e *Ellipsoid) ENU(lat, lon float64) (east, north, up mgl64.Vec3) {
	sp, cp := math.Sincos(lat)
	sl, cl := math.Sincos(lon)
	east = mgl64.Vec3{-sl, cl, 0}
	north = mgl64.Vec3{-sp * cl, -sp * sl, cp}
	up = mgl64.Vec3{cp * cl, cp * sl, sp}
	return east, north, up
}

// AzimuthElevation returns the azimuth (clockwise from north) and elevation,
// both in radians, of direction dir as seen from a geodetic point.
func (e *Ellipsoid) AzimuthElevation(lat, lon float64, dir mgl64.Vec3) (az, el float64) {
	dir = dir.Normalize()
	east, north, up := e.ENU(lat, lon)

	el = math.Asin(mgl64.Clamp(dir.Dot(up), -1, 1))
	az = math.Atan2(dir.Dot(east), dir.Dot(north))
	if az < 0 {
		az += 2 * math.Pi
	}
	return az, el
}
