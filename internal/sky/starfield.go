package sky

import (
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for the texture probe
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/ephem"
	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/mesh"
	"github.com/litescript/ls-skydome/internal/scene"
)

// EnvMinStarMagnitude overrides the minimum star magnitude when the
// configuration leaves it unset.
const EnvMinStarMagnitude = "SKYDOME_MIN_STAR_MAGNITUDE"

// DefaultMoonTexture is the file name searched for when no moon texture is
// configured.
const DefaultMoonTexture = "moon_1024x512.jpg"

// resolveMinMagnitude returns the configured threshold, or, when it is
// negative (unset), the environment override, or no filtering.
func resolveMinMagnitude(configured float64, log *logging.Logger) float64 {
	if configured >= 0 {
		return configured
	}
	v := os.Getenv(EnvMinStarMagnitude)
	if v == "" {
		return astro.NoMagnitudeFilter
	}
	m, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn("ignoring %s=%q: %v", EnvMinStarMagnitude, v, err)
		return astro.NoMagnitudeFilter
	}
	return m
}

// loadStars reads the star file and applies the magnitude filter. The
// built-in table stands in when the file is unset or unreadable, or when
// none of its stars pass the filter.
func loadStars(path string, minMag float64, log *logging.Logger) []astro.Star {
	if path != "" {
		stars, err := astro.LoadCatalog(path)
		if err != nil {
			log.Warn("star file %s unusable, using default star data: %v", path, err)
		} else {
			filtered := astro.FilterByMagnitude(stars, minMag)
			if len(filtered) > 0 {
				log.Debug("loaded %d stars from %s (%d after magnitude filter %.2f)", len(stars), path, len(filtered), minMag)
				return filtered
			}
			log.Warn("no stars in %s at magnitude >= %.2f, using default star data", path, minMag)
		}
	}

	stars := astro.DefaultStars()
	filtered := astro.FilterByMagnitude(stars, minMag)
	log.Debug("loaded %d default stars (%d after magnitude filter %.2f)", len(stars), len(filtered), minMag)
	return filtered
}

// starGeometry places each star on a sphere of the given radius and shades
// it by its position in the catalog's magnitude range.
func starGeometry(p ephem.Provider, stars []astro.Star, radius float64) *mesh.Geometry {
	lo, hi := astro.MagnitudeRange(stars)

	positions := make([]mgl64.Vec3, len(stars))
	colors := make([]mgl32.Vec4, len(stars))
	for i, s := range stars {
		positions[i] = p.ECEFFromRADecl(s.RA, s.Dec, radius)
		c := float32(astro.Brightness(s.Mag, lo, hi))
		colors[i] = mgl32.Vec4{c, c, c, 1}
	}
	return mesh.BuildPoints(positions, colors)
}

// findMoonTexture returns the first existing candidate for name: name
// itself, then name joined to each search dir.
func findMoonTexture(name string, dirs []string) (string, bool) {
	if name == "" {
		name = DefaultMoonTexture
	}
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		for _, d := range dirs {
			candidates = append(candidates, filepath.Join(d, name))
		}
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, true
		}
	}
	return "", false
}

// probeTexture reads the image header at path.
func probeTexture(path string) (*scene.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &scene.Texture{Path: path, Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// loadMoonTexture locates and probes the moon texture. A nil result means
// the moon cannot be drawn.
func loadMoonTexture(name string, dirs []string, log *logging.Logger) *scene.Texture {
	path, ok := findMoonTexture(name, dirs)
	if !ok {
		if name == "" {
			name = DefaultMoonTexture
		}
		log.Warn("moon texture %s not found; the moon will be hidden", name)
		return nil
	}
	tex, err := probeTexture(path)
	if err != nil {
		log.Warn("moon texture unusable; the moon will be hidden: %v", err)
		return nil
	}
	return tex
}
