// Package sky renders a planetary sky backdrop: a scattering atmosphere,
// sun, moon and star field, kept in step with a simulated date/time across
// any number of viewports.
//
// A Sky is not safe for concurrent use. Every call must come from the
// goroutine that drives frame traversal.
package sky

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/ls-skydome/internal/ephem"
	"github.com/litescript/ls-skydome/internal/geo"
	"github.com/litescript/ls-skydome/internal/logging"
)

const tracerName = "github.com/litescript/ls-skydome/internal/sky"

// Options configures a Sky.
type Options struct {
	// Ellipsoid is the planet; nil means WGS84.
	Ellipsoid *geo.Ellipsoid
	// Ephemeris supplies sun and moon positions; nil means ephem.NewMeeus.
	Ephemeris ephem.Provider

	// StarFile is an optional star catalog; empty or unreadable uses the
	// built-in table.
	StarFile string
	// MinStarMagnitude drops stars below this magnitude. Negative means
	// unset: EnvMinStarMagnitude applies, else no filtering.
	MinStarMagnitude float64

	// MoonTexture names the moon image; empty means DefaultMoonTexture.
	MoonTexture     string
	MoonTextureDirs []string

	SunVisible   bool
	MoonVisible  bool
	StarsVisible bool
	AutoAmbience bool

	// DateTime is the initial date/time; zero means now.
	DateTime time.Time

	Log     *logging.Logger
	Metrics MetricsRecorder
}

// DefaultOptions returns options for an Earth sky with every body visible.
func DefaultOptions() Options {
	return Options{
		MinStarMagnitude: -1,
		SunVisible:       true,
		MoonVisible:      true,
		StarsVisible:     true,
	}
}

// Sky is the sky backdrop.
type Sky struct {
	layout   *Layout
	registry *Registry
	ephem    ephem.Provider

	visible       visibility
	moonAvailable bool
	autoAmbience  bool

	dateTime time.Time
	fix      celestialFix

	log     *logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// New builds the shared geometry, the default state, and applies the
// initial date/time.
func New(opts Options) (*Sky, error) {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("sky")

	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(context.Background(), "sky.New")
	defer span.End()

	e := opts.Ellipsoid
	if e == nil {
		e = geo.WGS84()
	}
	if e.RadiusEquator() <= 0 || e.RadiusPolar() <= 0 {
		span.RecordError(geo.ErrInvalidRadius)
		return nil, geo.ErrInvalidRadius
	}

	p := opts.Ephemeris
	if p == nil {
		p = ephem.NewMeeus()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	minMag := resolveMinMagnitude(opts.MinStarMagnitude, log)
	stars := loadStars(opts.StarFile, minMag, log)
	moonTex := loadMoonTexture(opts.MoonTexture, opts.MoonTextureDirs, log)

	s := &Sky{
		ephem:         p,
		moonAvailable: moonTex != nil,
		autoAmbience:  opts.AutoAmbience,
		visible: visibility{
			sun:   opts.SunVisible,
			moon:  opts.MoonVisible && moonTex != nil,
			stars: opts.StarsVisible,
		},
		log:     log,
		metrics: metrics,
		tracer:  tracer,
	}

	s.layout = newLayout(layoutConfig{
		ellipsoid:   e,
		ephemeris:   p,
		stars:       stars,
		moonTexture: moonTex,
	})
	s.registry = newRegistry(s.layout.Default)
	for _, b := range Bodies {
		s.layout.Default.setVisible(b, s.visible.get(b))
	}

	span.SetAttributes(
		attribute.String("sky.ellipsoid", e.Name()),
		attribute.String("sky.ephemeris", p.Name()),
		attribute.Int("sky.stars", len(stars)),
	)

	t := opts.DateTime
	if t.IsZero() {
		t = time.Now()
	}
	s.SetDateTime(t)

	log.Info("sky ready: ellipsoid=%s ephemeris=%s stars=%d moon=%t", e.Name(), p.Name(), len(stars), s.moonAvailable)
	return s, nil
}

// Layout returns the shared geometry and default state.
func (s *Sky) Layout() *Layout { return s.layout }

// Registry returns the viewport registry.
func (s *Sky) Registry() *Registry { return s.registry }

// Ephemeris returns the current provider.
func (s *Sky) Ephemeris() ephem.Provider { return s.ephem }

// Attach registers view and returns its state. A new state is spawned from
// the default template, the view is switched to sky lighting with the
// state's light and a black clear colour, and the current celestial
// positions are applied to it. Attaching a registered view returns its
// existing state untouched.
func (s *Sky) Attach(view View, lightNum int) *ViewState {
	id := view.ID()
	_, span := s.tracer.Start(context.Background(), "sky.Attach",
		trace.WithAttributes(attribute.Int64("sky.view", int64(id))))
	defer span.End()

	if vs, ok := s.registry.Lookup(id); ok {
		s.metrics.ViewportsChanged("reattach", s.registry.Len())
		return vs
	}

	vs := s.layout.Spawn(id, lightNum, s.visible)
	s.registry.add(vs)

	view.SetLightingMode(SkyLight)
	view.SetLight(vs.light)
	view.SetClearColor(mgl64.Vec4{0, 0, 0, 1})

	s.applyFix(vs, s.fix)

	s.metrics.ViewportsChanged("attach", s.registry.Len())
	s.log.Debug("attached view %d (light %d), %d registered", id, lightNum, s.registry.Len())
	return vs
}

// Detach forgets the state of view id and reports whether it was registered.
func (s *Sky) Detach(id ViewID) bool {
	if !s.registry.remove(id) {
		return false
	}
	s.metrics.ViewportsChanged("detach", s.registry.Len())
	s.log.Debug("detached view %d, %d registered", id, s.registry.Len())
	return true
}

// Cull traverses the sky for view id. Unknown views render the earliest
// registered viewport's sky, or the default one.
func (s *Sky) Cull(id ViewID, cv CullVisitor) {
	if cs, ok := cv.(ClampSuspender); ok {
		restore := cs.SuspendClamp()
		defer restore()
	}

	vs, exact := s.registry.Resolve(id)
	s.metrics.TraversalResolved(!exact)
	if !exact {
		s.log.Debug("view %d not attached; rendering view %d", id, vs.id)
	}

	if s.autoAmbience {
		vs.setAmbient(AmbientFor(cv.EyePoint(), vs.lightPos))
	}

	cv.Traverse(vs.container)
}
