// Package scene is a minimal retained scene graph: groups, matrix
// transforms, nested cameras that carry render-bin ordering, and drawables
// holding mesh geometry. It mirrors what a host renderer expects from the
// sky without binding to any GPU API.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/mesh"
)

// NodeMask gates traversal: a node is visited when its mask intersects the
// traversal mask.
type NodeMask uint32

const (
	MaskNone NodeMask = 0
	MaskAll  NodeMask = ^NodeMask(0)
)

// MaskFor returns MaskAll when visible and MaskNone otherwise.
func MaskFor(visible bool) NodeMask {
	if visible {
		return MaskAll
	}
	return MaskNone
}

// Node is implemented by every scene graph element.
type Node interface {
	Name() string
	NodeMask() NodeMask
	SetNodeMask(NodeMask)
	// StateSet returns the node's state, or nil if it has none.
	StateSet() *StateSet
	OrCreateStateSet() *StateSet
}

type nodeBase struct {
	name  string
	mask  NodeMask
	state *StateSet
}

func newNodeBase(name string) nodeBase {
	return nodeBase{name: name, mask: MaskAll}
}

func (n *nodeBase) Name() string            { return n.name }
func (n *nodeBase) NodeMask() NodeMask      { return n.mask }
func (n *nodeBase) SetNodeMask(m NodeMask)  { n.mask = m }
func (n *nodeBase) StateSet() *StateSet     { return n.state }
func (n *nodeBase) SetStateSet(s *StateSet) { n.state = s }

func (n *nodeBase) OrCreateStateSet() *StateSet {
	if n.state == nil {
		n.state = NewStateSet()
	}
	return n.state
}

// Parent is a node with children.
type Parent interface {
	Node
	Children() []Node
}

// Group holds an ordered list of children. A child may be shared by several
// groups.
type Group struct {
	nodeBase
	children []Node
}

// NewGroup returns an empty group.
func NewGroup(name string) *Group {
	return &Group{nodeBase: newNodeBase(name)}
}

// AddChild appends n.
func (g *Group) AddChild(n Node) {
	g.children = append(g.children, n)
}

// RemoveChild removes the first occurrence of n and reports whether it was found.
func (g *Group) RemoveChild(n Node) bool {
	for i, c := range g.children {
		if c == n {
			g.children = append(g.children[:i], g.children[i+1:]...)
			return true
		}
	}
	return false
}

// Children returns the child list. Callers must not modify it.
func (g *Group) Children() []Node { return g.children }

// NumChildren returns the number of children.
func (g *Group) NumChildren() int { return len(g.children) }

// Transform is a group whose children are placed by a local matrix.
type Transform struct {
	Group
	matrix mgl64.Mat4
}

// NewTransform returns a transform with the identity matrix.
func NewTransform(name string) *Transform {
	return &Transform{Group: Group{nodeBase: newNodeBase(name)}, matrix: mgl64.Ident4()}
}

// Matrix returns the local matrix.
func (t *Transform) Matrix() mgl64.Mat4 { return t.matrix }

// SetMatrix replaces the local matrix.
func (t *Transform) SetMatrix(m mgl64.Mat4) { t.matrix = m }

// RenderOrder selects how a Camera's subgraph is scheduled.
type RenderOrder int

const (
	// NestedRender draws the subgraph inline, in its render bin, with its own
	// near/far computation.
	NestedRender RenderOrder = iota
	PreRender
	PostRender
)

// Camera isolates a subgraph's projection so it does not affect the clip
// planes of the surrounding scene.
type Camera struct {
	Group
	Order RenderOrder
}

// NewNestedCamera returns a nested camera whose state set places it in bin.
func NewNestedCamera(name string, bin int) *Camera {
	c := &Camera{Group: Group{nodeBase: newNodeBase(name)}, Order: NestedRender}
	c.OrCreateStateSet().SetRenderBin(bin, DefaultBinName)
	return c
}

// Drawable is a leaf holding geometry.
type Drawable struct {
	nodeBase
	Geometry *mesh.Geometry
	// Billboard rotates the geometry's +Z axis toward the eye point.
	Billboard bool
}

// NewDrawable wraps g in a leaf node.
func NewDrawable(name string, g *mesh.Geometry) *Drawable {
	return &Drawable{nodeBase: newNodeBase(name), Geometry: g}
}
