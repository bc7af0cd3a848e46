package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultBinName is the render bin implementation used by the sky.
const DefaultBinName = "RenderBin"

// Uniform is a named shader parameter. Values are float32, int32,
// mgl32.Vec3 or mgl32.Vec4.
type Uniform struct {
	name  string
	value any
}

// NewUniform returns a uniform holding v.
func NewUniform(name string, v any) *Uniform {
	return &Uniform{name: name, value: v}
}

// Name returns the uniform name.
func (u *Uniform) Name() string { return u.name }

// Value returns the current value.
func (u *Uniform) Value() any { return u.value }

// Set replaces the value.
func (u *Uniform) Set(v any) { u.value = v }

// Float returns the value as float32.
func (u *Uniform) Float() (float32, bool) {
	f, ok := u.value.(float32)
	return f, ok
}

// Int returns the value as int32.
func (u *Uniform) Int() (int32, bool) {
	i, ok := u.value.(int32)
	return i, ok
}

// Vec3 returns the value as mgl32.Vec3.
func (u *Uniform) Vec3() (mgl32.Vec3, bool) {
	v, ok := u.value.(mgl32.Vec3)
	return v, ok
}

// Clone returns an independent copy.
func (u *Uniform) Clone() *Uniform {
	return &Uniform{name: u.name, value: u.value}
}

func (u *Uniform) String() string {
	return fmt.Sprintf("%s=%v", u.name, u.value)
}

// Texture references an image resource bound to a texture unit.
type Texture struct {
	Path          string
	Width, Height int
	Format        string
}

// StateSet carries uniforms, textures and render-bin placement for a node
// and, unless overridden, its descendants.
type StateSet struct {
	uniforms map[string]*Uniform
	order    []string
	textures map[int]*Texture
	binNum   int
	binName  string
	hasBin   bool
	lighting *bool
}

// NewStateSet returns an empty state set.
func NewStateSet() *StateSet {
	return &StateSet{uniforms: make(map[string]*Uniform)}
}

// AddUniform installs u, replacing any uniform of the same name.
func (s *StateSet) AddUniform(u *Uniform) {
	if _, ok := s.uniforms[u.name]; !ok {
		s.order = append(s.order, u.name)
	}
	s.uniforms[u.name] = u
}

// Uniform returns the named uniform or nil.
func (s *StateSet) Uniform(name string) *Uniform {
	return s.uniforms[name]
}

// OrCreateUniform returns the named uniform, creating it with zero if absent.
func (s *StateSet) OrCreateUniform(name string, zero any) *Uniform {
	if u, ok := s.uniforms[name]; ok {
		return u
	}
	u := NewUniform(name, zero)
	s.AddUniform(u)
	return u
}

// Uniforms returns the uniforms in installation order.
func (s *StateSet) Uniforms() []*Uniform {
	out := make([]*Uniform, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.uniforms[name])
	}
	return out
}

// SetRenderBin places the subgraph in bin num. Lower numbers draw first.
func (s *StateSet) SetRenderBin(num int, name string) {
	s.binNum, s.binName, s.hasBin = num, name, true
}

// RenderBin returns the bin details and whether they were set.
func (s *StateSet) RenderBin() (num int, name string, ok bool) {
	return s.binNum, s.binName, s.hasBin
}

// SetTexture binds t to a texture unit.
func (s *StateSet) SetTexture(unit int, t *Texture) {
	if s.textures == nil {
		s.textures = make(map[int]*Texture)
	}
	s.textures[unit] = t
}

// Texture returns the texture bound to unit, or nil.
func (s *StateSet) Texture(unit int) *Texture {
	return s.textures[unit]
}

// SetLighting enables or disables fixed-function lighting for the subgraph.
func (s *StateSet) SetLighting(on bool) {
	s.lighting = &on
}

// Lighting reports the lighting mode and whether it was set.
func (s *StateSet) Lighting() (on, ok bool) {
	if s.lighting == nil {
		return false, false
	}
	return *s.lighting, true
}

// Light is a positional or directional light source. A zero W in Position
// makes the light directional.
type Light struct {
	Num      int
	Position mgl64.Vec4
	Ambient  mgl64.Vec4
	Diffuse  mgl64.Vec4
	Specular mgl64.Vec4
}

// Clone returns an independent copy.
func (l *Light) Clone() *Light {
	c := *l
	return &c
}

// Direction returns the xyz part of a directional light's position.
func (l *Light) Direction() mgl64.Vec3 {
	return l.Position.Vec3()
}
