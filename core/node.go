package core

// NodeKind tags what a scene node represents. The tag is assigned when the
// node is created and is the only thing renderers and lookups switch on.
type NodeKind int

const (
	NodeRoot NodeKind = iota
	NodeGroup
	NodeBody
	NodeMoon
	NodeRing
	NodeClouds
	NodeBelt
	NodeAsteroid
	NodeFlare
)

var nodeKindNames = [...]string{
	NodeRoot:     "root",
	NodeGroup:    "group",
	NodeBody:     "body",
	NodeMoon:     "moon",
	NodeRing:     "ring",
	NodeClouds:   "clouds",
	NodeBelt:     "belt",
	NodeAsteroid: "asteroid",
	NodeFlare:    "flare",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return "unknown"
	}
	return nodeKindNames[k]
}

// MarshalText lets snapshots carry readable kinds.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Transform is a node's placement relative to its parent. Rotation holds
// Euler angles in radians; Scale is uniform.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    float64
}

// Node is one element of the scene tree handed to the renderer.
type Node struct {
	Name      string
	Kind      NodeKind
	Transform Transform

	// Ring geometry, set only on NodeRing.
	InnerRadius float64
	OuterRadius float64

	// Radius of the drawn sphere or shell for bodies, moons, clouds and
	// asteroids.
	Radius  float64
	Opacity float64
	Surface *Surface

	parent   *Node
	children []*Node
}

// NewNode returns a detached node with unit scale and full opacity.
func NewNode(kind NodeKind, name string) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Transform: Transform{Scale: 1},
		Opacity:   1,
	}
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child. It reports whether child was attached to n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// RemoveKind detaches every direct child tagged kind.
func (n *Node) RemoveKind(kind NodeKind) int {
	kept := n.children[:0]
	removed := 0
	for _, c := range n.children {
		if c.Kind == kind {
			c.parent = nil
			removed++
			continue
		}
		kept = append(kept, c)
	}
	clear(n.children[len(kept):])
	n.children = kept
	return removed
}

// Parent returns the node's parent or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the attached children. Callers must not modify the slice.
func (n *Node) Children() []*Node { return n.children }

// ChildrenOf returns the direct children tagged kind.
func (n *Node) ChildrenOf(kind NodeKind) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// WorldPosition resolves the node's position in the scene frame. Only yaw
// (Rotation.Y) and uniform scale of ancestors take part, which covers every
// transform the scene produces.
func (n *Node) WorldPosition() Vec3 {
	pos := n.Transform.Position
	for p := n.parent; p != nil; p = p.parent {
		pos = pos.Scale(p.Transform.Scale).RotateY(p.Transform.Rotation.Y).Add(p.Transform.Position)
	}
	return pos
}

// WorldScale is the product of the node's scale and all ancestor scales.
func (n *Node) WorldScale() float64 {
	s := n.Transform.Scale
	for p := n.parent; p != nil; p = p.parent {
		s *= p.Transform.Scale
	}
	return s
}

// Walk visits n and all descendants depth first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}
