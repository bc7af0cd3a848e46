// Package config loads the sky configuration: defaults, an optional TOML
// file, and command-line overrides applied by the caller.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/naoina/toml"

	"github.com/litescript/ls-skydome/internal/ephem"
	"github.com/litescript/ls-skydome/internal/geo"
	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/observability"
	"github.com/litescript/ls-skydome/internal/sky"
)

// ErrInvalidRadius is returned for non-positive ellipsoid radii.
var ErrInvalidRadius = geo.ErrInvalidRadius

// Duration is a time.Duration that decodes from strings such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Ellipsoid selects the planet. Radii, when both set, override the preset.
type Ellipsoid struct {
	Preset        string  // wgs84 | moon
	RadiusEquator float64 // metres
	RadiusPolar   float64 // metres
}

type Stars struct {
	File string
	// MinMagnitude below zero is unset; see sky.EnvMinStarMagnitude.
	MinMagnitude float64
}

type Moon struct {
	Texture    string
	SearchDirs []string
}

type Clock struct {
	Start time.Time
	Rate  float64
	Tick  Duration
}

type Visible struct {
	Sun, Moon, Stars bool
}

type Log struct {
	Level  string
	Format string
}

type Serve struct {
	Addr string
	// MaxFPS limits frames sent to each websocket client.
	MaxFPS float64
	Burst  int
}

type Tracing struct {
	Enabled     bool
	Exporter    string
	SampleRatio float64
}

// Config is the full configuration.
type Config struct {
	Ellipsoid    Ellipsoid
	Ephemeris    string // meeus | almanac
	Stars        Stars
	Moon         Moon
	Clock        Clock
	Visible      Visible
	AutoAmbience bool
	Log          Log
	Serve        Serve
	MetricsAddr  string
	Tracing      Tracing
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Ellipsoid: Ellipsoid{Preset: "wgs84"},
		Ephemeris: "meeus",
		Stars:     Stars{MinMagnitude: -1},
		Moon:      Moon{Texture: sky.DefaultMoonTexture, SearchDirs: []string{".", "data"}},
		Clock:     Clock{Rate: 1, Tick: Duration{time.Second}},
		Visible:   Visible{Sun: true, Moon: true, Stars: true},
		Log:       Log{Level: "info", Format: "text"},
		Serve:     Serve{MaxFPS: 10, Burst: 1},
		Tracing:   Tracing{Exporter: "stdout", SampleRatio: 1},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the sky cannot recover from.
func (c Config) Validate() error {
	if _, err := c.BuildEllipsoid(); err != nil {
		return err
	}
	if c.Clock.Rate == 0 {
		return fmt.Errorf("clock rate must be non-zero")
	}
	if c.Clock.Tick.Duration <= 0 {
		return fmt.Errorf("clock tick must be positive, got %v", c.Clock.Tick.Duration)
	}
	switch strings.ToLower(c.Ephemeris) {
	case "", "meeus", "almanac":
	default:
		return fmt.Errorf("unknown ephemeris %q", c.Ephemeris)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing sample ratio %v outside [0,1]", c.Tracing.SampleRatio)
	}
	return nil
}

// BuildEllipsoid returns the configured planet.
func (c Config) BuildEllipsoid() (*geo.Ellipsoid, error) {
	e := c.Ellipsoid
	if e.RadiusEquator != 0 || e.RadiusPolar != 0 {
		name := e.Preset
		if name == "" {
			name = "custom"
		}
		return geo.NewEllipsoid(name, e.RadiusEquator, e.RadiusPolar)
	}
	switch strings.ToLower(e.Preset) {
	case "", "wgs84", "earth":
		return geo.WGS84(), nil
	case "moon":
		return geo.Moon(), nil
	default:
		return nil, fmt.Errorf("unknown ellipsoid preset %q", e.Preset)
	}
}

// Logger builds the configured logger.
func (c Config) Logger() *logging.Logger {
	format := logging.FormatText
	if strings.EqualFold(c.Log.Format, string(logging.FormatJSON)) {
		format = logging.FormatJSON
	}
	return logging.NewWithWriter(os.Stderr, logging.ParseLevel(c.Log.Level), format)
}

// TracingConfig converts the tracing section.
func (c Config) TracingConfig() observability.TracingConfig {
	tc := observability.DefaultTracingConfig()
	tc.Enabled = c.Tracing.Enabled
	if c.Tracing.Exporter != "" {
		tc.Exporter = c.Tracing.Exporter
	}
	tc.SampleRatio = c.Tracing.SampleRatio
	return tc
}

// SkyOptions converts the configuration into sky options.
func (c Config) SkyOptions(log *logging.Logger, metrics sky.MetricsRecorder) (sky.Options, error) {
	e, err := c.BuildEllipsoid()
	if err != nil {
		return sky.Options{}, err
	}

	opts := sky.DefaultOptions()
	opts.Ellipsoid = e
	opts.Ephemeris = ephem.NewCached(ephem.New(ephem.ParseMode(strings.ToLower(c.Ephemeris))), ephem.DefaultCacheSize)
	opts.StarFile = c.Stars.File
	opts.MinStarMagnitude = c.Stars.MinMagnitude
	opts.MoonTexture = c.Moon.Texture
	opts.MoonTextureDirs = c.Moon.SearchDirs
	opts.SunVisible = c.Visible.Sun
	opts.MoonVisible = c.Visible.Moon
	opts.StarsVisible = c.Visible.Stars
	opts.AutoAmbience = c.AutoAmbience
	opts.DateTime = c.Clock.Start
	opts.Log = log
	opts.Metrics = metrics
	return opts, nil
}
