package community

import (
	"github.com/gilchrisn/potts-community/pkg/graph"
)

// Modularity computes Newman's modularity Q = Σ_s (e_ss − a_s²) of partition,
// where e_rs is the fraction of edge weight joining communities r and s and
// a_s = Σ_r e_rs. Edges are read in the undirected view whatever
// g.Directed() says. A graph without edge weight has modularity 0.
func Modularity[V Scalar](g *graph.Graph, partition graph.VertexMap[V], weights graph.EdgeMap[float64]) (float64, error) {
	membership, values, err := labels(g, partition, weights)
	if err != nil {
		return 0, err
	}

	internal := make([]float64, len(values))
	total := make([]float64, len(values))
	m2 := 0.0
	for _, e := range g.Edges() {
		w := graph.EdgeWeight(weights, e.ID)
		r, s := membership[e.From], membership[e.To]
		total[r] += w
		total[s] += w
		if r == s {
			internal[r] += 2 * w
		}
		m2 += 2 * w
	}
	if m2 == 0 {
		return 0, nil
	}

	q := 0.0
	for c := range values {
		a := total[c] / m2
		q += internal[c]/m2 - a*a
	}
	return q, nil
}
