package sky

import (
	"context"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/ephem"
)

// celestialFix is the set of placements derived from one date/time.
type celestialFix struct {
	dateTime    time.Time
	sunDir      mgl64.Vec3
	moonPos     mgl64.Vec3
	starsMatrix mgl64.Mat4
}

// StarAngle returns the star field rotation for t: -π at 00:00 UTC,
// advancing 2π per day.
func StarAngle(t time.Time) float64 {
	return -math.Pi + 2*math.Pi*astro.HoursOfDay(t)/24
}

func starAngleFromMatrix(m mgl64.Mat4) float64 {
	return -math.Atan2(m[1], m[0])
}

func (s *Sky) computeFix(t time.Time) celestialFix {
	sun := s.ephem.SunPositionECEF(t)
	if sun.Len() > 0 {
		sun = sun.Normalize()
	}
	return celestialFix{
		dateTime:    t,
		sunDir:      sun,
		moonPos:     s.ephem.MoonPositionECEF(t),
		starsMatrix: mgl64.HomogRotate3DZ(-StarAngle(t)),
	}
}

func (s *Sky) applyFix(vs *ViewState, f celestialFix) {
	vs.dateTime = f.dateTime
	vs.setSunDirection(f.sunDir, s.layout.SunDistance)
	vs.setMoonPosition(f.moonPos)
	vs.setStarsMatrix(f.starsMatrix)
}

// SetDateTime moves the sun, moon and stars of the default state and every
// registered viewport to their positions at t.
func (s *Sky) SetDateTime(t time.Time) {
	_, span := s.tracer.Start(context.Background(), "sky.SetDateTime",
		trace.WithAttributes(
			attribute.String("sky.datetime", t.UTC().Format(time.RFC3339)),
			attribute.Int("sky.viewports", s.registry.Len()),
		))
	defer span.End()

	start := time.Now()
	s.dateTime = t
	s.fix = s.computeFix(t)
	s.registry.each(func(vs *ViewState) {
		s.applyFix(vs, s.fix)
	})
	s.metrics.DateTimeApplied(time.Since(start))
}

// DateTime returns the date/time most recently applied.
func (s *Sky) DateTime() time.Time { return s.dateTime }

// SunDirection returns the unit sun direction most recently applied.
func (s *Sky) SunDirection() mgl64.Vec3 { return s.fix.sunDir }

// MoonPosition returns the moon position most recently applied.
func (s *Sky) MoonPosition() mgl64.Vec3 { return s.fix.moonPos }

// SetSunLatLong places the sun directly over a geographic point, given in
// degrees, on every state. The next SetDateTime overrides it.
func (s *Sky) SetSunLatLong(lat, lon float64) {
	dir := s.layout.Ellipsoid.LocalUp(mgl64.DegToRad(lat), mgl64.DegToRad(lon))
	s.fix.sunDir = dir
	s.registry.each(func(vs *ViewState) {
		vs.setSunDirection(dir, s.layout.SunDistance)
	})
}

// SetEphemeris swaps the position provider and re-applies the current
// date/time. A nil provider is ignored.
func (s *Sky) SetEphemeris(p ephem.Provider) {
	if p == nil {
		return
	}
	s.ephem = p
	s.log.Info("ephemeris set to %s", p.Name())
	s.SetDateTime(s.dateTime)
}
