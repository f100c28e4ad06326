package graph

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned (wrapped) for every precondition failure on
// graphs, property maps and algorithm parameters.
var ErrInvalidArgument = errors.New("invalid argument")

// Edge is a single edge. For undirected graphs From and To are just the two
// endpoints in insertion order.
type Edge struct {
	ID   int `json:"id"`
	From int `json:"from"`
	To   int `json:"to"`
}

// Graph is a multigraph over dense vertex ids 0..NumNodes-1 with dense edge ids
// 0..NumEdges-1. Self-loops and parallel edges are allowed.
type Graph struct {
	directed bool
	edges    []Edge
	out      [][]int // out[v] = ids of edges leaving v (directed) or touching v (undirected)
	in       [][]int // in[v] = ids of edges entering v, kept for both modes
}

// NewGraph creates a graph with numNodes isolated vertices
func NewGraph(numNodes int, directed bool) *Graph {
	if numNodes < 0 {
		numNodes = 0
	}
	return &Graph{
		directed: directed,
		out:      make([][]int, numNodes),
		in:       make([][]int, numNodes),
	}
}

// NumNodes returns the number of vertices
func (g *Graph) NumNodes() int { return len(g.out) }

// NumEdges returns the number of edges
func (g *Graph) NumEdges() int { return len(g.edges) }

// Directed reports whether the graph is currently treated as directed
func (g *Graph) Directed() bool { return g.directed }

// SetDirected toggles the directed view. Edge storage is not changed.
func (g *Graph) SetDirected(directed bool) { g.directed = directed }

// AddNode appends a vertex and returns its id
func (g *Graph) AddNode() int {
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return len(g.out) - 1
}

// AddEdge adds an edge between u and v and returns its id
func (g *Graph) AddEdge(u, v int) (int, error) {
	n := g.NumNodes()
	if u < 0 || u >= n || v < 0 || v >= n {
		return -1, fmt.Errorf("%w: node index out of range: u=%d, v=%d, numNodes=%d", ErrInvalidArgument, u, v, n)
	}

	id := len(g.edges)
	g.edges = append(g.edges, Edge{ID: id, From: u, To: v})
	g.out[u] = append(g.out[u], id)
	g.in[v] = append(g.in[v], id)
	return id, nil
}

// Edge returns the edge with the given id
func (g *Graph) Edge(id int) Edge { return g.edges[id] }

// Edges returns all edges in id order. The slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// OutEdges returns the ids of edges leaving v. In undirected mode these are
// the edges inserted with v as the first endpoint.
func (g *Graph) OutEdges(v int) []int { return g.out[v] }

// InEdges returns the ids of edges entering v
func (g *Graph) InEdges(v int) []int { return g.in[v] }

// Incident returns the ids of every edge touching v regardless of direction,
// i.e. v's edges in the undirected view. A self-loop is listed once.
func (g *Graph) Incident(v int) []int {
	ids := make([]int, 0, len(g.out[v])+len(g.in[v]))
	ids = append(ids, g.out[v]...)
	for _, id := range g.InEdges(v) {
		if g.edges[id].From != v {
			ids = append(ids, id)
		}
	}
	return ids
}

// Degree returns the undirected degree of v. Self-loops count twice.
func (g *Graph) Degree(v int) int {
	return len(g.out[v]) + len(g.in[v])
}

// Opposite returns the endpoint of e that is not v
func (e Edge) Opposite(v int) int {
	if e.From == v {
		return e.To
	}
	return e.From
}

// IsLoop reports whether both endpoints are the same vertex
func (e Edge) IsLoop() bool { return e.From == e.To }

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		directed: g.directed,
		edges:    make([]Edge, len(g.edges)),
		out:      make([][]int, len(g.out)),
		in:       make([][]int, len(g.in)),
	}
	copy(clone.edges, g.edges)
	for i := range g.out {
		clone.out[i] = append([]int(nil), g.out[i]...)
		clone.in[i] = append([]int(nil), g.in[i]...)
	}
	return clone
}

// VertexMap is a vertex property map indexed by vertex id
type VertexMap[T any] []T

// NewVertexMap allocates a zeroed vertex property map sized for g
func NewVertexMap[T any](g *Graph) VertexMap[T] {
	return make(VertexMap[T], g.NumNodes())
}

// EdgeMap is an edge property map indexed by edge id
type EdgeMap[T any] []T

// NewEdgeMap allocates a zeroed edge property map sized for g
func NewEdgeMap[T any](g *Graph) EdgeMap[T] {
	return make(EdgeMap[T], g.NumEdges())
}

// EdgeWeight returns the weight of edge id, or 1 when weights is nil
func EdgeWeight(weights EdgeMap[float64], id int) float64 {
	if weights == nil {
		return 1.0
	}
	return weights[id]
}

// ValidateWeights checks that an optional weight map fits g and holds finite,
// non-negative values. A nil map is valid.
func ValidateWeights(g *Graph, weights EdgeMap[float64]) error {
	if weights == nil {
		return nil
	}
	if len(weights) != g.NumEdges() {
		return fmt.Errorf("%w: weight map has %d entries, graph has %d edges", ErrInvalidArgument, len(weights), g.NumEdges())
	}
	for id, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("%w: invalid weight %f for edge %d", ErrInvalidArgument, w, id)
		}
	}
	return nil
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if len(g.out) != len(g.in) {
		return fmt.Errorf("%w: adjacency arrays inconsistent", ErrInvalidArgument)
	}
	n := g.NumNodes()
	for id, e := range g.edges {
		if e.ID != id {
			return fmt.Errorf("%w: edge %d carries id %d", ErrInvalidArgument, id, e.ID)
		}
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
			return fmt.Errorf("%w: invalid endpoint for edge %d-%d", ErrInvalidArgument, e.From, e.To)
		}
	}
	return nil
}
