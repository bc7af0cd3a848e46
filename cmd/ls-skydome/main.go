// Command ls-skydome renders a sky backdrop: sun, moon, stars and
// atmosphere for any number of observers, as a terminal preview, a
// headless summary, or a WebSocket frame stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-skydome/internal/config"
	"github.com/litescript/ls-skydome/internal/ephem"
	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/observability"
	"github.com/litescript/ls-skydome/internal/sky"
	"github.com/litescript/ls-skydome/internal/state"
	"github.com/litescript/ls-skydome/internal/stream"
	"github.com/litescript/ls-skydome/internal/ui"
	"github.com/litescript/ls-skydome/internal/viewer"
)

// CLI flags for headless mode
var (
	summaryMode   bool
	jsonPath      string
	watchInterval time.Duration
	maxStars      int
)

const (
	minTick = 10 * time.Millisecond
	maxTick = time.Minute
)

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	serveAddr := flag.String("serve", "", "Serve the WebSocket frame stream on addr (e.g. :8080)")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on addr when not serving the stream")
	rate := flag.Float64("rate", 0, "Simulation rate (1 = real time)")
	tick := flag.Duration("tick", 0, "Clock tick interval (e.g. 1s, 100ms)")
	start := flag.String("start", "", "Simulation start time (RFC 3339)")
	ephemMode := flag.String("ephem", "", "Ephemeris (meeus, almanac)")
	starFile := flag.String("stars", "", "Star catalog file")
	minMag := flag.Float64("min-mag", -1, "Drop stars with a catalog magnitude below this value")
	moonTexture := flag.String("moon-texture", "", "Moon texture image")
	noSun := flag.Bool("no-sun", false, "Hide the sun")
	noMoon := flag.Bool("no-moon", false, "Hide the moon")
	noStars := flag.Bool("no-stars", false, "Hide the stars")
	autoAmbience := flag.Bool("auto-ambience", false, "Derive ambient light from the observer's position")
	trace := flag.Bool("trace", false, "Export trace spans to stderr")
	lat := flag.Float64("lat", 51.4779, "Observer latitude in degrees")
	lon := flag.Float64("lon", -0.0015, "Observer longitude in degrees")
	flag.BoolVar(&summaryMode, "summary", false, "Print a text summary instead of the TUI")
	flag.StringVar(&jsonPath, "json", "", "Export the frame as JSON to file (use - for stdout)")
	flag.DurationVar(&watchInterval, "watch", 0, "Repeat headless output at interval (e.g. 30s)")
	flag.IntVar(&maxStars, "top", 5, "Brightest stars listed in the summary")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "serve":
			cfg.Serve.Addr = *serveAddr
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "rate":
			cfg.Clock.Rate = *rate
		case "tick":
			cfg.Clock.Tick.Duration = *tick
		case "ephem":
			cfg.Ephemeris = *ephemMode
		case "stars":
			cfg.Stars.File = *starFile
		case "min-mag":
			cfg.Stars.MinMagnitude = *minMag
		case "moon-texture":
			cfg.Moon.Texture = *moonTexture
		case "no-sun":
			cfg.Visible.Sun = !*noSun
		case "no-moon":
			cfg.Visible.Moon = !*noMoon
		case "no-stars":
			cfg.Visible.Stars = !*noStars
		case "auto-ambience":
			cfg.AutoAmbience = *autoAmbience
		case "trace":
			cfg.Tracing.Enabled = *trace
		}
	})
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad -start: %v\n", err)
			os.Exit(1)
		}
		cfg.Clock.Start = t
	}

	// Validate tick interval
	if cfg.Clock.Tick.Duration < minTick {
		cfg.Clock.Tick.Duration = minTick
	} else if cfg.Clock.Tick.Duration > maxTick {
		cfg.Clock.Tick.Duration = maxTick
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	tc := cfg.TracingConfig()
	tc.Writer = os.Stderr
	shutdownTracing, err := observability.InitTracing(ctx, tc, logger)
	if err != nil {
		logger.Error("tracing disabled: %v", err)
	} else {
		defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)
	}

	metrics, err := observability.NewSkyCollector(nil)
	if err != nil {
		logger.Error("metrics: %v", err)
		os.Exit(1)
	}

	opts, err := cfg.SkyOptions(logger, metrics)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	s, err := sky.New(opts)
	if err != nil {
		logger.Error("create sky: %v", err)
		os.Exit(1)
	}
	if c, ok := s.Ephemeris().(*ephem.Cached); ok {
		if err := metrics.ObserveEphemerisCache(c.Stats); err != nil {
			logger.Warn("ephemeris cache metrics: %v", err)
		}
	}

	clockCfg := state.DefaultConfig()
	clockCfg.Start = s.DateTime()
	clockCfg.Rate = cfg.Clock.Rate
	clockCfg.TickInterval = cfg.Clock.Tick.Duration
	clock := state.NewManager(clockCfg)

	if cfg.Serve.Addr != "" {
		if err := runServer(ctx, cfg, s, clock, metrics, logger); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		return
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, metrics, logger)
	}

	if summaryMode || jsonPath != "" {
		runHeadless(ctx, s, clock, *lat, *lon, logger)
		return
	}

	model := ui.New(s, clock, *lat, *lon, logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// runServer serves the frame stream, health and metrics until ctx ends.
func runServer(ctx context.Context, cfg config.Config, s *sky.Sky, clock *state.Manager, metrics *observability.SkyCollector, logger *logging.Logger) error {
	srv := stream.NewServer(s, clock, stream.Config{MaxFPS: cfg.Serve.MaxFPS, Burst: cfg.Serve.Burst}, logger, metrics)
	go srv.Run(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           srv.Handler(metrics.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("streaming on %s (ws /ws, /healthz, /metrics)", cfg.Serve.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", cfg.Serve.Addr, err)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, metrics *observability.SkyCollector, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server: %v", err)
	}
}

// runHeadless prints frames for one observer without starting the TUI.
func runHeadless(ctx context.Context, s *sky.Sky, clock *state.Manager, lat, lon float64, logger *logging.Logger) {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	vp := viewer.NewViewport(1, "observer", s.Layout().Ellipsoid, 0, 0, 0)
	vp.SetObserver(lat, lon)
	s.Attach(vp, 0)

	outputOnce := func() error {
		t := clock.Now()
		s.SetDateTime(t)
		clock.RecordApplied(t)
		export := viewer.ExportFrame(viewer.Capture(s, vp), vp, t, s.Ephemeris().Name())

		if jsonPath != "" {
			if jsonPath == "-" {
				if err := export.WriteJSON(os.Stdout); err != nil {
					return fmt.Errorf("write JSON to stdout: %w", err)
				}
			} else {
				f, err := os.Create(jsonPath)
				if err != nil {
					return fmt.Errorf("create JSON file: %w", err)
				}
				defer f.Close()
				if err := export.WriteJSON(f); err != nil {
					return fmt.Errorf("write JSON to file: %w", err)
				}
			}
		}

		if summaryMode {
			export.WriteSummaryTable(os.Stdout, maxStars)
		}
		return nil
	}

	// Single run
	if watchInterval == 0 {
		if err := outputOnce(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := outputOnce(); err != nil {
		logger.Error("%v", err)
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if isTTY && summaryMode {
				fmt.Print("\033[H\033[2J")
			} else {
				fmt.Println()
			}
			if err := outputOnce(); err != nil {
				logger.Error("%v", err)
			}
		}
	}
}
