package astro

import (
	"math"
	"time"
)

// earthRadiusKm is the equatorial radius used by the lunar parallax series.
const earthRadiusKm = 6378.14

// SunPosition calculates the apparent equatorial coordinates of the Sun.
// Uses a simplified solar ephemeris based on the Astronomical Almanac.
// Accuracy: ~0.01 degrees, enough to place a directional light.
func SunPosition(t time.Time) (raDeg, decDeg float64) {
	lon, eps := solarLongitude(JulianCenturies(t))

	ra := math.Atan2(math.Cos(eps)*math.Sin(lon), math.Cos(lon))
	dec := math.Asin(math.Sin(eps) * math.Sin(lon))

	return normalizeAngle360(radToDeg(ra)), radToDeg(dec)
}

// SunDirection returns the unit vector toward the Sun in the geocentric
// equatorial (inertial) frame.
func SunDirection(t time.Time) Vec3 {
	ra, dec := SunPosition(t)
	return SphericalToVec3(degToRad(ra), degToRad(dec), 1)
}

// solarLongitude returns the apparent ecliptic longitude of the Sun and the
// corrected obliquity of the ecliptic, both in radians.
func solarLongitude(T float64) (lon, eps float64) {
	L0 := normalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := degToRad(normalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T))

	// Equation of center
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)

	// Aberration and nutation
	omega := degToRad(125.04 - 1934.136*T)
	app := L0 + C - 0.00569 - 0.00478*math.Sin(omega)

	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	return degToRad(app), degToRad(eps0 + 0.00256*math.Cos(omega))
}

// MoonPosition returns the geocentric equatorial coordinates of the Moon:
// right ascension and declination in degrees, distance in kilometres.
// Low-precision series from the Astronomical Almanac, good to ~0.3 degrees.
func MoonPosition(t time.Time) (raDeg, decDeg, distKm float64) {
	T := JulianCenturies(t)
	s := func(a, b float64) float64 { return math.Sin(degToRad(a + b*T)) }
	c := func(a, b float64) float64 { return math.Cos(degToRad(a + b*T)) }

	lon := 218.32 + 481267.881*T +
		6.29*s(135.0, 477198.87) - 1.27*s(259.3, -413335.36) +
		0.66*s(235.7, 890534.22) + 0.21*s(269.9, 954397.74) -
		0.19*s(357.5, 35999.05) - 0.11*s(186.5, 966404.03)

	lat := 5.13*s(93.3, 483202.02) + 0.28*s(228.2, 960400.89) -
		0.28*s(318.3, 6003.15) - 0.17*s(217.6, -407332.21)

	// Horizontal parallax
	hp := 0.9508 + 0.0518*c(135.0, 477198.87) + 0.0095*c(259.3, -413335.36) +
		0.0078*c(235.7, 890534.22) + 0.0028*c(269.9, 954397.74)

	eq := EclipticToEquatorial(SphericalToVec3(degToRad(lon), degToRad(lat), 1))

	raDeg = normalizeAngle360(radToDeg(math.Atan2(eq.Y, eq.X)))
	decDeg = radToDeg(math.Asin(eq.Z))
	distKm = earthRadiusKm / math.Sin(degToRad(hp))
	return raDeg, decDeg, distKm
}

// MoonVector returns the geocentric equatorial position of the Moon in km.
func MoonVector(t time.Time) Vec3 {
	ra, dec, dist := MoonPosition(t)
	return SphericalToVec3(degToRad(ra), degToRad(dec), dist)
}

// AngularSeparation calculates the angular separation between two points on the celestial sphere.
// All coordinates in degrees. Returns separation in degrees.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	ra1Rad := degToRad(ra1)
	dec1Rad := degToRad(dec1)
	ra2Rad := degToRad(ra2)
	dec2Rad := degToRad(dec2)

	// Haversine formula
	dRA := ra2Rad - ra1Rad
	dDec := dec2Rad - dec1Rad

	a := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(dec1Rad)*math.Cos(dec2Rad)*math.Sin(dRA/2)*math.Sin(dRA/2)

	if a > 1 {
		a = 1
	}

	return radToDeg(2 * math.Asin(math.Sqrt(a)))
}
