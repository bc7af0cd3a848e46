package sky

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/scene"
)

// ViewID identifies a host viewport.
type ViewID uint64

// AllViews addresses the default state and every registered viewport.
const AllViews ViewID = math.MaxUint64

// LightingMode is the lighting model a host view uses for its scene.
type LightingMode int

const (
	NoLight LightingMode = iota
	HeadLight
	// SkyLight lights the scene with the light supplied by the sky.
	SkyLight
)

// View is the host viewport the sky attaches to.
type View interface {
	ID() ViewID
	SetLightingMode(LightingMode)
	SetLight(*scene.Light)
	SetClearColor(mgl64.Vec4)
}

// CullVisitor is the host's per-frame traversal.
type CullVisitor interface {
	// EyePoint returns the camera position in planet-centred metres.
	EyePoint() mgl64.Vec3
	Traverse(scene.Node)
}

// ClampSuspender is implemented by cull visitors that clamp the projection
// matrix to the scene bounds. The sky lies far outside them, so clamping is
// suspended while the sky is traversed; the returned func restores it.
type ClampSuspender interface {
	SuspendClamp() (restore func())
}

// Body is a celestial body the sky draws.
type Body int

const (
	Sun Body = iota
	Moon
	Stars
)

// Bodies lists every Body.
var Bodies = []Body{Sun, Moon, Stars}

func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	case Stars:
		return "stars"
	default:
		return "unknown"
	}
}

// ParseBody parses a body name.
func ParseBody(s string) (Body, error) {
	switch strings.ToLower(s) {
	case "sun":
		return Sun, nil
	case "moon":
		return Moon, nil
	case "stars", "star":
		return Stars, nil
	default:
		return 0, fmt.Errorf("unknown body %q", s)
	}
}

// MetricsRecorder receives sky events. observability.SkyCollector
// implements it.
type MetricsRecorder interface {
	ViewportsChanged(event string, n int)
	TraversalResolved(fallback bool)
	DateTimeApplied(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ViewportsChanged(string, int)  {}
func (noopMetrics) TraversalResolved(bool)        {}
func (noopMetrics) DateTimeApplied(time.Duration) {}
