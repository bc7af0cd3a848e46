// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the sky core and its outer surfaces.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SkyCollector bundles the Prometheus metrics of the sky core and the
// stream server. All recording methods are safe on a nil receiver.
type SkyCollector struct {
	reg      prometheus.Registerer
	gatherer prometheus.Gatherer

	Viewports          prometheus.Gauge
	ViewportEvents     *prometheus.CounterVec
	TraversalFallbacks prometheus.Counter
	Traversals         prometheus.Counter
	DateTimeUpdates    prometheus.Counter
	ClockSyncDuration  prometheus.Histogram

	StreamClients       prometheus.Gauge
	StreamFrames        prometheus.Counter
	StreamFramesDropped prometheus.Counter
}

// NewSkyCollector registers sky metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewSkyCollector(reg prometheus.Registerer) (*SkyCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	viewports, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sky_viewports",
		Help: "Current number of viewports attached to the sky.",
	}), "sky_viewports")
	if err != nil {
		return nil, err
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sky_viewport_events_total",
		Help: "Viewport registry events, labeled by event (attach, reattach, detach).",
	}, []string{"event"}), "sky_viewport_events_total")
	if err != nil {
		return nil, err
	}

	fallbacks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sky_traversal_fallbacks_total",
		Help: "Traversals of an unregistered viewport that rendered another viewport's sky.",
	}), "sky_traversal_fallbacks_total")
	if err != nil {
		return nil, err
	}

	traversals, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sky_traversals_total",
		Help: "Per-frame sky traversals.",
	}), "sky_traversals_total")
	if err != nil {
		return nil, err
	}

	updates, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sky_datetime_updates_total",
		Help: "Date/time changes propagated to the sky.",
	}), "sky_datetime_updates_total")
	if err != nil {
		return nil, err
	}

	syncDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sky_clock_sync_duration_seconds",
		Help:    "Time to recompute celestial positions and propagate them to every viewport.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	}), "sky_clock_sync_duration_seconds")
	if err != nil {
		return nil, err
	}

	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sky_stream_clients",
		Help: "Connected websocket viewport clients.",
	}), "sky_stream_clients")
	if err != nil {
		return nil, err
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sky_stream_frames_total",
		Help: "Sky frames sent to websocket clients.",
	}), "sky_stream_frames_total")
	if err != nil {
		return nil, err
	}

	dropped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sky_stream_frames_dropped_total",
		Help: "Sky frames skipped by per-client rate limiting.",
	}), "sky_stream_frames_dropped_total")
	if err != nil {
		return nil, err
	}

	return &SkyCollector{
		reg:                 reg,
		gatherer:            gatherer,
		Viewports:           viewports,
		ViewportEvents:      events,
		TraversalFallbacks:  fallbacks,
		Traversals:          traversals,
		DateTimeUpdates:     updates,
		ClockSyncDuration:   syncDuration,
		StreamClients:       clients,
		StreamFrames:        frames,
		StreamFramesDropped: dropped,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SkyCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ViewportsChanged records the registry size after an attach or detach.
func (c *SkyCollector) ViewportsChanged(event string, n int) {
	if c == nil {
		return
	}
	c.Viewports.Set(float64(n))
	c.ViewportEvents.WithLabelValues(event).Inc()
}

// TraversalResolved records one traversal; fallback marks a resolution that
// did not find the requested viewport.
func (c *SkyCollector) TraversalResolved(fallback bool) {
	if c == nil {
		return
	}
	c.Traversals.Inc()
	if fallback {
		c.TraversalFallbacks.Inc()
	}
}

// DateTimeApplied records one clock sync.
func (c *SkyCollector) DateTimeApplied(d time.Duration) {
	if c == nil {
		return
	}
	c.DateTimeUpdates.Inc()
	c.ClockSyncDuration.Observe(d.Seconds())
}

// StreamClientsChanged sets the connected client count.
func (c *SkyCollector) StreamClientsChanged(n int) {
	if c == nil {
		return
	}
	c.StreamClients.Set(float64(n))
}

// StreamFrame records a sent or dropped frame.
func (c *SkyCollector) StreamFrame(sent bool) {
	if c == nil {
		return
	}
	if sent {
		c.StreamFrames.Inc()
	} else {
		c.StreamFramesDropped.Inc()
	}
}

// ObserveEphemerisCache exports the hit and miss counts reported by stats,
// typically ephem.Cached.Stats. Observing a second cache on the same
// registry keeps the first one.
func (c *SkyCollector) ObserveEphemerisCache(stats func() (hits, misses uint64)) error {
	if c == nil || stats == nil {
		return nil
	}
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "sky_ephemeris_cache_hits_total",
		Help: "Sun and moon positions served from the ephemeris cache.",
	}, func() float64 {
		h, _ := stats()
		return float64(h)
	})
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "sky_ephemeris_cache_misses_total",
		Help: "Sun and moon positions computed by the underlying ephemeris.",
	}, func() float64 {
		_, m := stats()
		return float64(m)
	})
	for _, col := range []prometheus.Collector{hits, misses} {
		if err := c.reg.Register(col); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return fmt.Errorf("register ephemeris cache metrics: %w", err)
		}
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
