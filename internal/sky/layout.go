package sky

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/ephem"
	"github.com/litescript/ls-skydome/internal/geo"
	"github.com/litescript/ls-skydome/internal/mesh"
	"github.com/litescript/ls-skydome/internal/scatter"
	"github.com/litescript/ls-skydome/internal/scene"
)

// Render bins, drawn in ascending order before the scene.
const (
	BinStars      = -100003
	BinSun        = -100002
	BinMoon       = -100001
	BinAtmosphere = -100000
)

const (
	sunDistanceRatio = 12000.0
	sunDiscScale     = 100.0 * 80.0
	starSphereRatio  = 20000.0
	moonTextureUnit  = 0
	defaultLightNum  = 0
)

// Layout owns the geometry shared by every viewport and the default state
// that seeds new ones.
type Layout struct {
	Ellipsoid   *geo.Ellipsoid
	Params      scatter.Parameters
	SunDistance float64
	StarRadius  float64

	// Scattering is the shared uniform set installed on the atmosphere and
	// on the lit subgraph.
	Scattering *scene.StateSet

	atmosphere *scene.Camera
	sun        *scene.Camera
	moon       *scene.Camera
	stars      *scene.Camera
	lit        *scene.Group

	Default *ViewState
}

type layoutConfig struct {
	ellipsoid   *geo.Ellipsoid
	ephemeris   ephem.Provider
	stars       []astro.Star
	moonTexture *scene.Texture
}

func newLayout(cfg layoutConfig) *Layout {
	inner := cfg.ellipsoid.RadiusPolar()
	params := scatter.Derive(inner)

	l := &Layout{
		Ellipsoid:   cfg.ellipsoid,
		Params:      params,
		SunDistance: inner * sunDistanceRatio,
		Scattering:  scene.NewStateSet(),
	}
	params.Install(l.Scattering)

	l.StarRadius = starSphereRatio * l.SunDistance
	if l.SunDistance == 0 {
		l.StarRadius = params.OuterRadius
	}

	l.atmosphere = l.buildAtmosphere()
	l.sun = l.buildSun()
	l.moon = buildMoon(cfg.moonTexture)
	l.stars = l.buildStars(cfg.ephemeris, cfg.stars)

	l.lit = scene.NewGroup("lit")
	l.lit.SetStateSet(l.Scattering)

	l.Default = l.newState(0, defaultLight(), scene.NewUniform(UniformLightDir, mgl32.Vec3{0, 1, 0}),
		mgl64.Ident4(), mgl64.Ident4(), mgl64.Ident4(), visibility{true, true, true})
	return l
}

// LitScene returns the group lit by the sky. Hosts add their terrain and
// models here.
func (l *Layout) LitScene() *scene.Group { return l.lit }

// Atmosphere returns the shared atmosphere subgraph.
func (l *Layout) Atmosphere() *scene.Camera { return l.atmosphere }

// Spawn creates the state for a new viewport from the default template: a
// clone of the default light numbered lightNum, a clone of the light
// direction uniform, and fresh transforms seeded with the default matrices
// and the given visibility.
func (l *Layout) Spawn(id ViewID, lightNum int, vis visibility) *ViewState {
	def := l.Default
	light := def.light.Clone()
	light.Num = lightNum
	light.Ambient = def.light.Ambient

	vs := l.newState(id, light, def.lightDir.Clone(), def.sunMatrix, def.moonMatrix, def.starsMatrix, vis)
	vs.lightPos = def.lightPos
	vs.dateTime = def.dateTime
	return vs
}

func (l *Layout) newState(id ViewID, light *scene.Light, lightDir *scene.Uniform, sunM, moonM, starsM mgl64.Mat4, vis visibility) *ViewState {
	vs := &ViewState{
		id:          id,
		light:       light,
		lightPos:    light.Direction(),
		lightDir:    lightDir,
		sunMatrix:   sunM,
		moonMatrix:  moonM,
		starsMatrix: starsM,
		sunXform:    scene.NewTransform("sun"),
		moonXform:   scene.NewTransform("moon"),
		starsXform:  scene.NewTransform("stars"),
		container:   scene.NewGroup("sky"),
	}

	vs.sunXform.SetMatrix(sunM)
	vs.sunXform.AddChild(l.sun)
	vs.moonXform.SetMatrix(moonM)
	vs.moonXform.AddChild(l.moon)
	vs.starsXform.SetMatrix(starsM)
	vs.starsXform.AddChild(l.stars)

	for _, b := range Bodies {
		vs.setVisible(b, vis.get(b))
	}

	vs.container.AddChild(vs.sunXform)
	vs.container.AddChild(vs.moonXform)
	vs.container.AddChild(vs.starsXform)
	vs.container.AddChild(l.atmosphere)
	vs.container.AddChild(l.lit)
	vs.container.OrCreateStateSet().AddUniform(lightDir)
	return vs
}

func defaultLight() *scene.Light {
	return &scene.Light{
		Num:      defaultLightNum,
		Position: mgl64.Vec4{0, 1, 0, 0},
		Ambient:  mgl64.Vec4{0.2, 0.2, 0.2, 2.0},
		Diffuse:  mgl64.Vec4{1, 1, 1, 1},
		Specular: mgl64.Vec4{0, 0, 0, 1},
	}
}

func (l *Layout) buildAtmosphere() *scene.Camera {
	cam := scene.NewNestedCamera("atmosphere", BinAtmosphere)
	ss := cam.OrCreateStateSet()
	ss.SetLighting(false)
	// Shared by reference with the lit subgraph.
	for _, u := range l.Scattering.Uniforms() {
		ss.AddUniform(u)
	}
	cam.AddChild(scene.NewDrawable("atmosphere", mesh.BuildEllipsoid(l.Ellipsoid, l.Params.OuterRadius, false)))
	return cam
}

func (l *Layout) buildSun() *scene.Camera {
	cam := scene.NewNestedCamera("sun", BinSun)
	cam.OrCreateStateSet().SetLighting(false)
	d := scene.NewDrawable("sun", mesh.BuildDisc(l.Ellipsoid.RadiusPolar()*sunDiscScale))
	d.Billboard = true
	cam.AddChild(d)
	return cam
}

func buildMoon(tex *scene.Texture) *scene.Camera {
	cam := scene.NewNestedCamera("moon", BinMoon)
	m := geo.Moon()
	d := scene.NewDrawable("moon", mesh.BuildEllipsoid(m, m.RadiusEquator(), true))
	if tex != nil {
		d.OrCreateStateSet().SetTexture(moonTextureUnit, tex)
	}
	cam.AddChild(d)
	return cam
}

func (l *Layout) buildStars(p ephem.Provider, stars []astro.Star) *scene.Camera {
	cam := scene.NewNestedCamera("stars", BinStars)
	cam.OrCreateStateSet().SetLighting(false)
	cam.AddChild(scene.NewDrawable("stars", starGeometry(p, stars, l.StarRadius)))
	return cam
}
