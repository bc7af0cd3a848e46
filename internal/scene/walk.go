package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Path describes where the walk currently is.
type Path struct {
	// Nodes runs from the root to the current node inclusive.
	Nodes []Node
	// World is the accumulated transform of the current node's parent frame
	// multiplied by every Transform on the path.
	World mgl64.Mat4
}

// Uniform returns the named uniform from the nearest state set on the path.
func (p Path) Uniform(name string) *Uniform {
	for i := len(p.Nodes) - 1; i >= 0; i-- {
		if ss := p.Nodes[i].StateSet(); ss != nil {
			if u := ss.Uniform(name); u != nil {
				return u
			}
		}
	}
	return nil
}

// RenderBin returns the innermost render bin set on the path.
func (p Path) RenderBin() (int, bool) {
	for i := len(p.Nodes) - 1; i >= 0; i-- {
		if ss := p.Nodes[i].StateSet(); ss != nil {
			if num, _, ok := ss.RenderBin(); ok {
				return num, true
			}
		}
	}
	return 0, false
}

// Leaf returns the current node.
func (p Path) Leaf() Node {
	return p.Nodes[len(p.Nodes)-1]
}

// WalkFunc is called for every visited node. Returning false prunes the
// node's children.
type WalkFunc func(n Node, p Path) bool

// Walk visits root and its descendants depth first, skipping any node whose
// mask does not intersect mask.
func Walk(root Node, mask NodeMask, fn WalkFunc) {
	walk(root, mask, Path{World: mgl64.Ident4()}, fn)
}

func walk(n Node, mask NodeMask, p Path, fn WalkFunc) {
	if n == nil || n.NodeMask()&mask == 0 {
		return
	}

	nodes := make([]Node, len(p.Nodes), len(p.Nodes)+1)
	copy(nodes, p.Nodes)
	p.Nodes = append(nodes, n)

	if t, ok := n.(*Transform); ok {
		p.World = p.World.Mul4(t.Matrix())
	}

	if !fn(n, p) {
		return
	}

	if g, ok := n.(Parent); ok {
		for _, c := range g.Children() {
			walk(c, mask, p, fn)
		}
	}
}
