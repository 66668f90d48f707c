package graph

import (
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// EdgeKind names the relationship an edge represents.
type EdgeKind string

const (
	EdgeRoutes      EdgeKind = "routes"
	EdgeForwards    EdgeKind = "forwards"
	EdgeTargets     EdgeKind = "targets"
	EdgeProtects    EdgeKind = "protects"
	EdgeReadsWrites EdgeKind = "reads-writes"
	EdgeTriggers    EdgeKind = "triggers"
	EdgeAllows      EdgeKind = "allows"
	EdgeDelivers    EdgeKind = "delivers"
)

const (
	// KindTargetGroup is the node kind of load balancer target groups.
	KindTargetGroup inventory.Kind = "target_groups"
	// KindExternal is the node kind of ids that match no collected record.
	KindExternal inventory.Kind = "external"
)

// Node is a vertex of an environment graph. External nodes stand for
// resources outside the environment or outside the inventory.
type Node struct {
	ID       string         `json:"id"`
	Kind     inventory.Kind `json:"kind"`
	Label    string         `json:"label"`
	External bool           `json:"external,omitempty"`
}

// Edge is a directed, labeled relationship between two nodes.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Kind     EdgeKind `json:"kind"`
	Label    string   `json:"label,omitempty"`
	Inferred bool     `json:"inferred,omitempty"`
}

// Graph is the dependency graph of one environment. Nodes are sorted by id,
// edges by (From, To, Kind, Label).
type Graph struct {
	Environment string `json:"environment"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}

// NodeID returns the graph id of a resource.
func NodeID(kind inventory.Kind, id string) string {
	return string(kind) + ":" + id
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgesOf returns the edges of the given kind.
func (g *Graph) EdgesOf(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// HasEdge reports whether an edge of kind connects from to to.
func (g *Graph) HasEdge(from, to string, kind EdgeKind) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}
