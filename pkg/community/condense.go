package community

import (
	"github.com/gilchrisn/potts-community/pkg/graph"
)

// Condensation is a graph with one vertex per distinct partition value
type Condensation[V Scalar] struct {
	// Graph is undirected. An edge joins two communities when at least one
	// original edge does; intra-community edges become self-loops.
	Graph *graph.Graph
	// Community holds the partition value each condensed vertex stands for
	Community graph.VertexMap[V]
	// VertexCount is the number of original vertices per community
	VertexCount graph.VertexMap[int32]
	// EdgeCount is the number of original edges folded into each edge
	EdgeCount graph.EdgeMap[int32]
	// EdgeWeight is the summed weight of those edges
	EdgeWeight graph.EdgeMap[float64]
	// Membership maps each original vertex to its condensed vertex
	Membership graph.VertexMap[int]
}

// Condense builds the condensation of g under partition. Condensed vertices
// are numbered in first-seen vertex order and condensed edges in first-seen
// edge order, so the result is deterministic. Parallel edges between the same
// pair of communities are merged regardless of direction.
func Condense[V Scalar](g *graph.Graph, partition graph.VertexMap[V], weights graph.EdgeMap[float64]) (*Condensation[V], error) {
	membership, values, err := labels(g, partition, weights)
	if err != nil {
		return nil, err
	}

	cg := graph.NewGraph(len(values), false)
	c := &Condensation[V]{
		Graph:       cg,
		Community:   graph.VertexMap[V](values),
		VertexCount: graph.NewVertexMap[int32](cg),
		Membership:  graph.VertexMap[int](membership),
	}
	if c.Community == nil {
		c.Community = graph.VertexMap[V]{}
	}
	for _, id := range membership {
		c.VertexCount[id]++
	}

	pairs := make(map[[2]int]int)
	var counts []int32
	var totals []float64
	for _, e := range g.Edges() {
		r, s := membership[e.From], membership[e.To]
		key := [2]int{min(r, s), max(r, s)}

		id, ok := pairs[key]
		if !ok {
			// Endpoints are in range, AddEdge cannot fail here
			id, _ = cg.AddEdge(r, s)
			pairs[key] = id
			counts = append(counts, 0)
			totals = append(totals, 0)
		}
		counts[id]++
		totals[id] += graph.EdgeWeight(weights, e.ID)
	}

	c.EdgeCount = graph.NewEdgeMap[int32](cg)
	c.EdgeWeight = graph.NewEdgeMap[float64](cg)
	copy(c.EdgeCount, counts)
	copy(c.EdgeWeight, totals)

	return c, nil
}
