package sky

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/scene"
)

// UniformLightDir is the shader uniform holding the unit sun direction.
const UniformLightDir = "atmos_v3LightDir"

// ViewState is the sky of one viewport: its light, the sun, moon and star
// placements, and the container the host traverses each frame. Geometry is
// shared with every other state; transforms and the light are owned.
type ViewState struct {
	id ViewID

	light    *scene.Light
	lightPos mgl64.Vec3
	lightDir *scene.Uniform

	sunMatrix   mgl64.Mat4
	moonMatrix  mgl64.Mat4
	starsMatrix mgl64.Mat4

	sunXform   *scene.Transform
	moonXform  *scene.Transform
	starsXform *scene.Transform

	dateTime  time.Time
	container *scene.Group
}

// ID returns the viewport the state belongs to.
func (vs *ViewState) ID() ViewID { return vs.id }

// Light returns the state's light.
func (vs *ViewState) Light() *scene.Light { return vs.light }

// LightPosition returns the unit direction toward the sun.
func (vs *ViewState) LightPosition() mgl64.Vec3 { return vs.lightPos }

// LightDirUniform returns the light-direction uniform on the container.
func (vs *ViewState) LightDirUniform() *scene.Uniform { return vs.lightDir }

// DateTime returns the date/time most recently applied.
func (vs *ViewState) DateTime() time.Time { return vs.dateTime }

// Container returns the root the host traverses.
func (vs *ViewState) Container() *scene.Group { return vs.container }

// Transform returns the transform that places body.
func (vs *ViewState) Transform(b Body) *scene.Transform {
	switch b {
	case Sun:
		return vs.sunXform
	case Moon:
		return vs.moonXform
	default:
		return vs.starsXform
	}
}

// Visible reports whether body's transform is traversable.
func (vs *ViewState) Visible(b Body) bool {
	return vs.Transform(b).NodeMask() != scene.MaskNone
}

// StarAngle returns the star rotation in radians recovered from the star
// matrix.
func (vs *ViewState) StarAngle() float64 {
	return starAngleFromMatrix(vs.starsMatrix)
}

func (vs *ViewState) setVisible(b Body, on bool) {
	vs.Transform(b).SetNodeMask(scene.MaskFor(on))
}

func (vs *ViewState) setSunDirection(dir mgl64.Vec3, sunDistance float64) {
	vs.lightPos = dir
	vs.light.Position = dir.Vec4(0)
	vs.lightDir.Set(mgl32.Vec3{float32(dir[0]), float32(dir[1]), float32(dir[2])})

	d := dir.Mul(sunDistance)
	vs.sunMatrix = mgl64.Translate3D(d[0], d[1], d[2])
	vs.sunXform.SetMatrix(vs.sunMatrix)
}

func (vs *ViewState) setMoonPosition(p mgl64.Vec3) {
	vs.moonMatrix = mgl64.Translate3D(p[0], p[1], p[2])
	vs.moonXform.SetMatrix(vs.moonMatrix)
}

func (vs *ViewState) setStarsMatrix(m mgl64.Mat4) {
	vs.starsMatrix = m
	vs.starsXform.SetMatrix(m)
}

func (vs *ViewState) setAmbient(v float64) {
	vs.light.Ambient = mgl64.Vec4{v, v, v, 1}
}
