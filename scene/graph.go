// Package scene implements a transform hierarchy stored in an arena.
//
// Nodes are addressed by NodeID handles. Parent and child links are handles,
// so there are no reference cycles and detaching a node is a slice edit.
// World matrices are cached per node; any structural or transform change
// marks the affected subtree dirty and the matrices are rebuilt lazily by
// WorldMatrix.
//
// A Graph is not safe for concurrent use. Callers apply poses first and only
// then query world matrices or call Draw.
package scene

import (
	"github.com/binzume/bvhplayer/geom"
	"github.com/pkg/errors"
)

// NodeID identifies a node in a Graph.
type NodeID int

// Nil represents an invalid NodeID.
const Nil NodeID = 0

var (
	ErrInvalidNode = errors.New("scene: invalid node")
	ErrCycle       = errors.New("scene: node cannot become a descendant of itself")
)

type node struct {
	name       string
	tr         Transform
	parent     NodeID
	children   []NodeID
	components []namedComponent

	world        geom.Matrix4
	worldDirty   bool
	worldRebuilt int
	alive        bool
}

type namedComponent struct {
	name string
	c    Component
}

// Graph owns all nodes. Slot 0 is reserved for Nil.
type Graph struct {
	nodes []node
	count int
}

func NewGraph() *Graph {
	return &Graph{nodes: make([]node, 1)}
}

func (g *Graph) get(id NodeID) *node {
	if id <= Nil || int(id) >= len(g.nodes) || !g.nodes[id].alive {
		return nil
	}
	return &g.nodes[id]
}

// NewNode creates a detached node with an identity transform.
func (g *Graph) NewNode(name string) NodeID {
	g.nodes = append(g.nodes, node{name: name, worldDirty: true, alive: true})
	id := NodeID(len(g.nodes) - 1)
	g.nodes[id].tr.Reset()
	g.count++
	return id
}

// Valid reports whether id refers to a live node.
func (g *Graph) Valid(id NodeID) bool {
	return g.get(id) != nil
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return g.count
}

func (g *Graph) Name(id NodeID) string {
	if n := g.get(id); n != nil {
		return n.name
	}
	return ""
}

func (g *Graph) SetName(id NodeID, name string) {
	if n := g.get(id); n != nil {
		n.name = name
	}
}

func (g *Graph) Parent(id NodeID) NodeID {
	if n := g.get(id); n != nil {
		return n.parent
	}
	return Nil
}

// Children returns a copy of the ordered child list.
func (g *Graph) Children(id NodeID) []NodeID {
	n := g.get(id)
	if n == nil {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// Root returns the topmost ancestor of id.
func (g *Graph) Root(id NodeID) NodeID {
	if !g.Valid(id) {
		return Nil
	}
	for p := g.Parent(id); p != Nil; p = g.Parent(id) {
		id = p
	}
	return id
}

// IsAncestor reports whether a is b or one of b's ancestors.
func (g *Graph) IsAncestor(a, b NodeID) bool {
	for ; b != Nil; b = g.Parent(b) {
		if a == b {
			return true
		}
	}
	return false
}

// Find returns the first node named name under root in pre-order.
func (g *Graph) Find(root NodeID, name string) NodeID {
	found := Nil
	g.Walk(root, func(id NodeID, depth int) bool {
		if found != Nil {
			return false
		}
		if g.nodes[id].name == name {
			found = id
			return false
		}
		return true
	})
	return found
}

// AddChild appends child to parent's children. A child that already has a
// parent is detached from it first, so a node is listed by one parent only.
func (g *Graph) AddChild(parent, child NodeID) error {
	if g.get(parent) == nil || g.get(child) == nil {
		return errors.Wrapf(ErrInvalidNode, "add %d to %d", child, parent)
	}
	if g.IsAncestor(child, parent) {
		return errors.Wrapf(ErrCycle, "add %q to %q", g.Name(child), g.Name(parent))
	}
	g.unlink(child)
	p := g.get(parent)
	p.children = append(p.children, child)
	g.nodes[child].parent = parent
	g.MarkWorldDirty(child)
	return nil
}

// Detach removes id from its parent. The node becomes a root.
func (g *Graph) Detach(id NodeID) {
	if g.get(id) == nil || g.nodes[id].parent == Nil {
		return
	}
	g.unlink(id)
	g.MarkWorldDirty(id)
}

func (g *Graph) unlink(id NodeID) {
	n := &g.nodes[id]
	if p := g.get(n.parent); p != nil {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	n.parent = Nil
}

// Remove detaches id and frees it together with its descendants.
func (g *Graph) Remove(id NodeID) {
	if g.get(id) == nil {
		return
	}
	g.unlink(id)
	var dead []NodeID
	g.Walk(id, func(id NodeID, depth int) bool {
		dead = append(dead, id)
		return true
	})
	for _, d := range dead {
		g.nodes[d] = node{}
		g.count--
	}
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the children of that node.
func (g *Graph) Walk(id NodeID, fn func(id NodeID, depth int) bool) {
	g.walk(id, 0, fn)
}

func (g *Graph) walk(id NodeID, depth int, fn func(id NodeID, depth int) bool) {
	if g.get(id) == nil {
		return
	}
	if !fn(id, depth) {
		return
	}
	for _, c := range g.Children(id) {
		g.walk(c, depth+1, fn)
	}
}

// Transform returns a copy of the local transform of id.
// Use the Graph setters to modify it.
func (g *Graph) Transform(id NodeID) Transform {
	if n := g.get(id); n != nil {
		return n.tr
	}
	return *NewTransform()
}

func (g *Graph) LocalMatrix(id NodeID) *geom.Matrix4 {
	n := g.get(id)
	if n == nil {
		return geom.NewMatrix4()
	}
	return n.tr.LocalMatrix()
}

// WorldMatrix returns parent.WorldMatrix() * LocalMatrix(), using the cached
// value when the node is not dirty.
func (g *Graph) WorldMatrix(id NodeID) *geom.Matrix4 {
	n := g.get(id)
	if n == nil {
		return geom.NewMatrix4()
	}
	if n.worldDirty {
		local := n.tr.LocalMatrix()
		if n.parent != Nil {
			n.world = *g.WorldMatrix(n.parent).Mul(local)
		} else {
			n.world = *local
		}
		n.worldDirty = false
		n.worldRebuilt++
	}
	m := n.world
	return &m
}

// WorldPosition returns the origin of id in world space.
func (g *Graph) WorldPosition(id NodeID) *geom.Vector3 {
	return g.WorldMatrix(id).Translation()
}

// MarkWorldDirty flags id and every descendant, even those already dirty.
func (g *Graph) MarkWorldDirty(id NodeID) {
	n := g.get(id)
	if n == nil {
		return
	}
	n.worldDirty = true
	for _, c := range n.children {
		g.MarkWorldDirty(c)
	}
}

func (g *Graph) WorldDirty(id NodeID) bool {
	if n := g.get(id); n != nil {
		return n.worldDirty
	}
	return false
}

func (g *Graph) modify(id NodeID, f func(tr *Transform)) {
	n := g.get(id)
	if n == nil {
		return
	}
	f(&n.tr)
	g.MarkWorldDirty(id)
}

func (g *Graph) SetPosition(id NodeID, v *geom.Vector3) {
	g.modify(id, func(tr *Transform) { tr.SetPosition(v) })
}

func (g *Graph) SetRotation(id NodeID, q *geom.Quaternion) {
	g.modify(id, func(tr *Transform) { tr.SetRotation(q) })
}

// SetRotationEuler takes degrees, see Transform.SetRotationEuler.
func (g *Graph) SetRotationEuler(id NodeID, x, y, z float32) {
	g.modify(id, func(tr *Transform) { tr.SetRotationEuler(x, y, z) })
}

func (g *Graph) SetScale(id NodeID, v *geom.Vector3) {
	g.modify(id, func(tr *Transform) { tr.SetScale(v) })
}

func (g *Graph) Translate(id NodeID, d *geom.Vector3) {
	g.modify(id, func(tr *Transform) { tr.Translate(d) })
}

func (g *Graph) Rotate(id NodeID, q *geom.Quaternion) {
	g.modify(id, func(tr *Transform) { tr.Rotate(q) })
}
