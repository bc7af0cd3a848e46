// Package viewer is a reference host for the sky: viewports placed at an
// observer on the planet, and a cull pass that projects what the sky draws
// into the observer's local azimuth and elevation.
package viewer

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/geo"
	"github.com/litescript/ls-skydome/internal/mesh"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/sky"
)

// Viewport is an observer's view of the sky. It implements sky.View.
type Viewport struct {
	id        sky.ViewID
	name      string
	ellipsoid *geo.Ellipsoid

	lat, lon, height float64 // degrees, degrees, metres

	mode  sky.LightingMode
	light *scene.Light
	clear mgl64.Vec4
}

// NewViewport returns a viewport for an observer at lat/lon (degrees) and
// height (metres) on e.
func NewViewport(id sky.ViewID, name string, e *geo.Ellipsoid, lat, lon, height float64) *Viewport {
	return &Viewport{id: id, name: name, ellipsoid: e, lat: lat, lon: lon, height: height}
}

func (v *Viewport) ID() sky.ViewID                       { return v.id }
func (v *Viewport) Name() string                         { return v.name }
func (v *Viewport) SetLightingMode(m sky.LightingMode)   { v.mode = m }
func (v *Viewport) LightingMode() sky.LightingMode       { return v.mode }
func (v *Viewport) SetLight(l *scene.Light)              { v.light = l }
func (v *Viewport) Light() *scene.Light                  { return v.light }
func (v *Viewport) SetClearColor(c mgl64.Vec4)           { v.clear = c }
func (v *Viewport) ClearColor() mgl64.Vec4               { return v.clear }
func (v *Viewport) Observer() (lat, lon, height float64) { return v.lat, v.lon, v.height }

// SetObserver moves the observer. Latitude is clamped to [-90,90] and
// longitude wrapped to (-180,180].
func (v *Viewport) SetObserver(lat, lon float64) {
	v.lat = mgl64.Clamp(lat, -90, 90)
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	v.lon = lon - 180
}

// Eye returns the observer position in planet-centred metres.
func (v *Viewport) Eye() mgl64.Vec3 {
	return v.ellipsoid.LatLongHeightToXYZ(mgl64.DegToRad(v.lat), mgl64.DegToRad(v.lon), v.height)
}

// AzEl returns the azimuth and elevation in degrees of a world position.
func (v *Viewport) AzEl(world mgl64.Vec3) (az, el float64) {
	a, e := v.ellipsoid.AzimuthElevation(mgl64.DegToRad(v.lat), mgl64.DegToRad(v.lon), world.Sub(v.Eye()))
	return mgl64.RadToDeg(a), mgl64.RadToDeg(e)
}

// Object is a body projected into the observer's sky.
type Object struct {
	Name       string  `json:"name"`
	Az         float64 `json:"az"`
	El         float64 `json:"el"`
	Range      float64 `json:"range_m,omitempty"`
	Brightness float64 `json:"brightness,omitempty"`
	Bin        int     `json:"bin"`
}

// Frame is one cull pass of the sky for a viewport. It implements
// sky.CullVisitor and sky.ClampSuspender.
type Frame struct {
	View       sky.ViewID `json:"view"`
	Sun        *Object    `json:"sun,omitempty"`
	Moon       *Object    `json:"moon,omitempty"`
	Stars      []Object   `json:"stars,omitempty"`
	Atmosphere bool       `json:"atmosphere"`
	Ambient    float64    `json:"ambient"`

	// ClampedDuringSky is set if the projection clamp was active while the
	// sky was traversed.
	ClampedDuringSky bool `json:"-"`

	vp    *Viewport
	clamp bool
}

// NewFrame starts a cull pass for vp with projection clamping on.
func NewFrame(vp *Viewport) *Frame {
	return &Frame{View: vp.id, vp: vp, clamp: true}
}

// EyePoint implements sky.CullVisitor.
func (f *Frame) EyePoint() mgl64.Vec3 { return f.vp.Eye() }

// SuspendClamp implements sky.ClampSuspender.
func (f *Frame) SuspendClamp() func() {
	prev := f.clamp
	f.clamp = false
	return func() { f.clamp = prev }
}

// Traverse implements sky.CullVisitor.
func (f *Frame) Traverse(root scene.Node) {
	f.ClampedDuringSky = f.ClampedDuringSky || f.clamp

	scene.Walk(root, scene.MaskAll, func(n scene.Node, p scene.Path) bool {
		d, ok := n.(*scene.Drawable)
		if !ok {
			return true
		}
		bin, _ := p.RenderBin()

		switch {
		case d.Name() == "atmosphere":
			f.Atmosphere = true
		case d.Geometry.Topology == mesh.Points:
			f.addStars(d.Geometry, p.World, bin)
		default:
			pos := p.World.Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
			az, el := f.vp.AzEl(pos)
			obj := &Object{Name: d.Name(), Az: az, El: el, Range: pos.Sub(f.vp.Eye()).Len(), Bin: bin}
			switch d.Name() {
			case "sun":
				f.Sun = obj
			case "moon":
				f.Moon = obj
			}
		}
		return true
	})

	if l := f.vp.light; l != nil {
		f.Ambient = l.Ambient[0]
	}
	sort.Slice(f.Stars, func(i, j int) bool { return f.Stars[i].Brightness < f.Stars[j].Brightness })
}

// addStars projects the points above the horizon.
func (f *Frame) addStars(g *mesh.Geometry, world mgl64.Mat4, bin int) {
	for i, v := range g.Vertices {
		pos := world.Mul4x1(mgl64.Vec4{float64(v[0]), float64(v[1]), float64(v[2]), 1}).Vec3()
		az, el := f.vp.AzEl(pos)
		if el <= 0 {
			continue
		}
		var b float64
		if i < len(g.Colors) {
			b = float64(g.Colors[i][0])
		}
		f.Stars = append(f.Stars, Object{Name: "star", Az: az, El: el, Brightness: b, Bin: bin})
	}
}

// Capture culls the sky for vp and returns the frame.
func Capture(s *sky.Sky, vp *Viewport) *Frame {
	f := NewFrame(vp)
	s.Cull(vp.ID(), f)
	return f
}
