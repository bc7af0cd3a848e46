package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewEllipsoid_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		equatorial float64
		polar      float64
	}{
		{"zero equatorial", 0, 1},
		{"negative polar", 10, -1},
		{"prolate", 10, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEllipsoid(tt.name, tt.equatorial, tt.polar)
			if !errors.Is(err, ErrInvalidRadius) {
				t.Errorf("NewEllipsoid() error = %v, want ErrInvalidRadius", err)
			}
		})
	}
}

func TestRadii(t *testing.T) {
	e := WGS84()
	if math.Abs(e.RadiusEquator()-6378137) > 1e-6 {
		t.Errorf("RadiusEquator() = %v", e.RadiusEquator())
	}
	if math.Abs(e.RadiusPolar()-6356752.314245) > 1e-6 {
		t.Errorf("RadiusPolar() = %v", e.RadiusPolar())
	}

	m := Moon()
	if m.RadiusEquator() != 1738140 || m.RadiusPolar() != 1735970 {
		t.Errorf("Moon radii = %v/%v", m.RadiusEquator(), m.RadiusPolar())
	}
}

func TestLatLongHeightToXYZ(t *testing.T) {
	e := WGS84()
	a, b := e.RadiusEquator(), e.RadiusPolar()
	deg := math.Pi / 180

	tests := []struct {
		name          string
		lat, lon, hae float64
		want          mgl64.Vec3
	}{
		{"origin", 0, 0, 0, mgl64.Vec3{a, 0, 0}},
		{"lon 90", 0, 90 * deg, 0, mgl64.Vec3{0, a, 0}},
		{"north pole", 90 * deg, 0, 0, mgl64.Vec3{0, 0, b}},
		{"south pole", -90 * deg, 0, 0, mgl64.Vec3{0, 0, -b}},
		{"raised equator", 0, 180 * deg, 1000, mgl64.Vec3{-(a + 1000), 0, 0}},
		{"raised pole", 90 * deg, 0, 1000, mgl64.Vec3{0, 0, b + 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.LatLongHeightToXYZ(tt.lat, tt.lon, tt.hae)
			if !got.ApproxEqualThreshold(tt.want, 1e-3) {
				t.Errorf("LatLongHeightToXYZ() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAzimuthElevation(t *testing.T) {
	e := WGS84()
	lat, lon := 45*math.Pi/180, 10*math.Pi/180
	east, north, up := e.ENU(lat, lon)

	tests := []struct {
		name   string
		dir    mgl64.Vec3
		az, el float64
	}{
		{"zenith", up, 0, math.Pi / 2},
		{"north horizon", north, 0, 0},
		{"east horizon", east, math.Pi / 2, 0},
		{"west horizon", east.Mul(-1), 3 * math.Pi / 2, 0},
		{"nadir", up.Mul(-1), 0, -math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			az, el := e.AzimuthElevation(lat, lon, tt.dir)
			if math.Abs(el-tt.el) > 1e-9 {
				t.Errorf("el = %v, want %v", el, tt.el)
			}
			// Azimuth is undefined at the zenith and nadir.
			if math.Abs(tt.el) < math.Pi/2 && math.Abs(az-tt.az) > 1e-9 {
				t.Errorf("az = %v, want %v", az, tt.az)
			}
		})
	}
}
