package sky

import (
	"github.com/go-gl/mathgl/mgl64"
)

type visibility struct {
	sun, moon, stars bool
}

func (v visibility) get(b Body) bool {
	switch b {
	case Sun:
		return v.sun
	case Moon:
		return v.moon
	default:
		return v.stars
	}
}

func (v *visibility) set(b Body, on bool) {
	switch b {
	case Sun:
		v.sun = on
	case Moon:
		v.moon = on
	default:
		v.stars = on
	}
}

// SetVisible shows or hides body on the default state and every registered
// viewport. Future viewports inherit the setting. The moon stays hidden
// when its texture is unavailable.
func (s *Sky) SetVisible(b Body, on bool) {
	if b == Moon && on && !s.moonAvailable {
		s.log.Warn("moon texture unavailable; keeping the moon hidden")
		on = false
	}
	s.visible.set(b, on)
	s.registry.each(func(vs *ViewState) {
		vs.setVisible(b, on)
	})
	s.log.Debug("%s visible=%t", b, on)
}

// Visible reports the current visibility of body.
func (s *Sky) Visible(b Body) bool {
	return s.visible.get(b)
}

// SetAutoAmbience enables per-frame ambient recomputation from the eye and
// sun positions.
func (s *Sky) SetAutoAmbience(on bool) {
	s.autoAmbience = on
}

// AutoAmbience reports whether auto ambience is on.
func (s *Sky) AutoAmbience() bool {
	return s.autoAmbience
}

// SetAmbientBrightness sets a fixed ambient level, clamped to [0,1], and
// turns auto ambience off. id selects a single viewport, or AllViews for
// the default state and every registered viewport.
func (s *Sky) SetAmbientBrightness(v float64, id ViewID) {
	v = mgl64.Clamp(v, 0, 1)
	s.autoAmbience = false

	if id == AllViews {
		s.registry.each(func(vs *ViewState) { vs.setAmbient(v) })
		return
	}
	if vs, ok := s.registry.Lookup(id); ok {
		vs.setAmbient(v)
	}
}

// Ambience bounds.
const (
	minAmbient   = 0.2
	ambientRange = 0.72
	minDeviation = -0.2
	maxDeviation = 0.75
)

// AmbientFor returns the ambient level for an eye at eye looking at a sun
// in direction sun: brighter as the eye moves toward the day side.
func AmbientFor(eye, sun mgl64.Vec3) float64 {
	var dev float64
	if eye.Len() > 0 && sun.Len() > 0 {
		dev = eye.Normalize().Dot(sun.Normalize())
	}
	return ambientForDeviation(dev)
}

func ambientForDeviation(dev float64) float64 {
	dev = mgl64.Clamp(dev, minDeviation, maxDeviation)
	return minAmbient + (dev-minDeviation)/(maxDeviation-minDeviation)*ambientRange
}
