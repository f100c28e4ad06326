package graph

import (
	"fmt"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
)

// Adapted is the result of converting a gonum graph
type Adapted struct {
	Graph   *Graph
	Weights EdgeMap[float64] // nil when the source graph is not weighted
	NodeIDs VertexMap[int64] // vertex id -> gonum node ID
}

// FromGonum converts a gonum graph into a Graph. Vertices are numbered in
// ascending gonum node ID order and edges are emitted in (from, to) ID order,
// so the conversion is deterministic. Directedness follows gonum.Directed and
// weights are copied when src implements gonum.Weighted.
func FromGonum(src gonum.Graph) (*Adapted, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: gonum graph is nil", ErrInvalidArgument)
	}

	nodes := gonum.NodesOf(src.Nodes())
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	_, directed := src.(gonum.Directed)
	weighted, isWeighted := src.(gonum.Weighted)

	g := NewGraph(len(nodes), directed)
	ids := make(VertexMap[int64], len(nodes))
	index := make(map[int64]int, len(nodes)) // gonum nodeID -> vertex id
	for i, n := range nodes {
		ids[i] = n.ID()
		index[n.ID()] = i
	}

	var weights EdgeMap[float64]
	for u, n := range nodes {
		to := gonum.NodesOf(src.From(n.ID()))
		sort.Slice(to, func(i, j int) bool { return to[i].ID() < to[j].ID() })

		for _, m := range to {
			// Undirected graphs report each edge from both ends
			if !directed && m.ID() < n.ID() {
				continue
			}
			v, ok := index[m.ID()]
			if !ok {
				return nil, fmt.Errorf("%w: edge to unknown node %d", ErrInvalidArgument, m.ID())
			}
			if _, err := g.AddEdge(u, v); err != nil {
				return nil, err
			}
			if isWeighted {
				w, _ := weighted.Weight(n.ID(), m.ID())
				weights = append(weights, w)
			}
		}
	}

	if err := ValidateWeights(g, weights); err != nil {
		return nil, err
	}

	return &Adapted{Graph: g, Weights: weights, NodeIDs: ids}, nil
}
