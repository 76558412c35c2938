package scene

import (
	"github.com/binzume/bvhplayer/geom"
)

// Component is attached to a node and called by Graph.Update and Graph.Draw.
type Component interface {
	Update(g *Graph, id NodeID, dt float64)
	Draw(g *Graph, id NodeID, r Renderer)
}

// Renderer receives world-space primitives.
type Renderer interface {
	DrawPoint(p *geom.Vector3, radius float32)
	DrawLine(a, b *geom.Vector3)
}

// BaseComponent implements Component with no-ops. Embed it.
type BaseComponent struct{}

func (BaseComponent) Update(g *Graph, id NodeID, dt float64) {}
func (BaseComponent) Draw(g *Graph, id NodeID, r Renderer)   {}

// Marker draws a point at the node origin.
type Marker struct {
	BaseComponent
	Radius float32
}

func (m *Marker) Draw(g *Graph, id NodeID, r Renderer) {
	r.DrawPoint(g.WorldPosition(id), m.Radius)
}

// Link draws a bone from the node origin to the origin of To.
type Link struct {
	BaseComponent
	To NodeID
}

func (l *Link) Draw(g *Graph, id NodeID, r Renderer) {
	if !g.Valid(l.To) {
		return
	}
	r.DrawLine(g.WorldPosition(id), g.WorldPosition(l.To))
}

// AddComponent attaches c under name, replacing a component with the same name.
func (g *Graph) AddComponent(id NodeID, name string, c Component) {
	n := g.get(id)
	if n == nil {
		return
	}
	for i := range n.components {
		if n.components[i].name == name {
			n.components[i].c = c
			return
		}
	}
	n.components = append(n.components, namedComponent{name: name, c: c})
}

func (g *Graph) Component(id NodeID, name string) (Component, bool) {
	n := g.get(id)
	if n == nil {
		return nil, false
	}
	for _, nc := range n.components {
		if nc.name == name {
			return nc.c, true
		}
	}
	return nil, false
}

func (g *Graph) RemoveComponent(id NodeID, name string) {
	n := g.get(id)
	if n == nil {
		return
	}
	for i, nc := range n.components {
		if nc.name == name {
			n.components = append(n.components[:i], n.components[i+1:]...)
			return
		}
	}
}

// Components returns the components of id in insertion order.
func (g *Graph) Components(id NodeID) []Component {
	n := g.get(id)
	if n == nil {
		return nil
	}
	var cs []Component
	for _, nc := range n.components {
		cs = append(cs, nc.c)
	}
	return cs
}

// Update calls Update on every component under root in pre-order.
func (g *Graph) Update(root NodeID, dt float64) {
	g.Walk(root, func(id NodeID, depth int) bool {
		for _, c := range g.Components(id) {
			c.Update(g, id, dt)
		}
		return true
	})
}

// Draw calls Draw on every component under root in pre-order.
func (g *Graph) Draw(root NodeID, r Renderer) {
	g.Walk(root, func(id NodeID, depth int) bool {
		for _, c := range g.Components(id) {
			c.Draw(g, id, r)
		}
		return true
	})
}
