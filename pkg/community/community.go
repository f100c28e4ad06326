// Package community scores and coarsens graph partitions. A partition is any
// vertex property map whose values are scalars; the values only serve as
// labels, so integer, floating point, string and boolean partitions are all
// accepted.
package community

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/gilchrisn/potts-community/pkg/graph"
)

// Scalar is the set of partition value types
type Scalar interface {
	constraints.Integer | constraints.Float | ~string | ~bool
}

// labels assigns every distinct partition value a dense id in first-seen
// vertex order. It returns the id of each vertex and the value of each id.
func labels[V Scalar](g *graph.Graph, partition graph.VertexMap[V], weights graph.EdgeMap[float64]) ([]int, []V, error) {
	if g == nil {
		return nil, nil, fmt.Errorf("%w: graph is nil", graph.ErrInvalidArgument)
	}
	if partition == nil {
		return nil, nil, fmt.Errorf("%w: partition is nil", graph.ErrInvalidArgument)
	}
	if len(partition) != g.NumNodes() {
		return nil, nil, fmt.Errorf("%w: partition has %d entries, graph has %d vertices", graph.ErrInvalidArgument, len(partition), g.NumNodes())
	}
	if err := graph.ValidateWeights(g, weights); err != nil {
		return nil, nil, err
	}

	membership := make([]int, len(partition))
	index := make(map[V]int)
	var values []V
	for v, value := range partition {
		if value != value {
			return nil, nil, fmt.Errorf("%w: partition value of vertex %d is NaN", graph.ErrInvalidArgument, v)
		}
		id, ok := index[value]
		if !ok {
			id = len(values)
			index[value] = id
			values = append(values, value)
		}
		membership[v] = id
	}
	return membership, values, nil
}
