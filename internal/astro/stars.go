package astro

import (
	_ "embed"
	"math"
	"strings"
)

// NoMagnitudeFilter disables magnitude filtering when used as a threshold.
const NoMagnitudeFilter = -1.0

// Star is a catalog star. Coordinates are J2000 equatorial, in radians.
type Star struct {
	Name string
	RA   float64 // Right ascension (radians)
	Dec  float64 // Declination (radians)
	Mag  float64 // Apparent visual magnitude (lower = brighter)
}

//go:embed default_stars.csv
var defaultStarData string

// DefaultStars returns the built-in bright star table, brightest first.
// Data sourced from the Yale Bright Star Catalog and IAU star names.
func DefaultStars() []Star {
	stars, _ := ParseCatalog(strings.NewReader(defaultStarData))
	return stars
}

// FilterByMagnitude returns the stars whose magnitude is at least minMag.
// A threshold at or below NoMagnitudeFilter keeps every record.
// The input slice is not modified.
func FilterByMagnitude(stars []Star, minMag float64) []Star {
	out := make([]Star, 0, len(stars))
	for _, s := range stars {
		if minMag > NoMagnitudeFilter && s.Mag < minMag {
			continue
		}
		out = append(out, s)
	}
	return out
}

// MagnitudeRange returns the smallest and largest magnitude in stars.
// Both are zero for an empty slice.
func MagnitudeRange(stars []Star) (lo, hi float64) {
	if len(stars) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range stars {
		lo = math.Min(lo, s.Mag)
		hi = math.Max(hi, s.Mag)
	}
	return lo, hi
}

// Brightness maps a magnitude onto [0,1] relative to the range [lo,hi].
// A degenerate range yields 1.
func Brightness(mag, lo, hi float64) float64 {
	if hi-lo <= 0 {
		return 1
	}
	return (mag - lo) / (hi - lo)
}
