// Package ephem provides sun and moon positions in the planet-fixed frame.
package ephem

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Provider defines the interface for ephemeris sources.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// SunPositionECEF returns the Sun's position in Earth-centred,
	// Earth-fixed metres.
	SunPositionECEF(t time.Time) mgl64.Vec3

	// MoonPositionECEF returns the Moon's position in Earth-centred,
	// Earth-fixed metres.
	MoonPositionECEF(t time.Time) mgl64.Vec3

	// ECEFFromRADecl converts right ascension and declination (radians) at
	// the given radius into Cartesian coordinates. No Earth rotation is
	// applied; callers rotate the result by sidereal time.
	ECEFFromRADecl(ra, decl, radius float64) mgl64.Vec3
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeMeeus   Mode = iota // Full Meeus series (default)
	ModeAlmanac             // Low-precision almanac series
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMeeus:
		return "meeus"
	case ModeAlmanac:
		return "almanac"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) Mode {
	switch s {
	case "meeus":
		return ModeMeeus
	case "almanac":
		return ModeAlmanac
	default:
		return ModeMeeus
	}
}

// New returns the provider for mode.
func New(mode Mode) Provider {
	if mode == ModeAlmanac {
		return NewAlmanac()
	}
	return NewMeeus()
}

const (
	auMetres = 149597870700.0
	kmMetres = 1000.0
)

// raDeclToXYZ places a point on a sphere of the given radius.
func raDeclToXYZ(ra, decl, radius float64) mgl64.Vec3 {
	sd, cd := math.Sincos(decl)
	sr, cr := math.Sincos(ra)
	return mgl64.Vec3{radius * cd * cr, radius * cd * sr, radius * sd}
}

// rotateToECEF turns an inertial vector about the polar axis by the
// Greenwich sidereal angle gst (radians).
func rotateToECEF(v mgl64.Vec3, gst float64) mgl64.Vec3 {
	s, c := math.Sincos(gst)
	return mgl64.Vec3{
		v[0]*c + v[1]*s,
		-v[0]*s + v[1]*c,
		v[2],
	}
}
