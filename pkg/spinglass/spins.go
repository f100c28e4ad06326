package spinglass

import (
	"fmt"
	"math/rand"

	"github.com/gilchrisn/potts-community/pkg/graph"
)

// InitSpins returns the initial spin assignment of a run. An existing
// assignment is validated and copied without consuming random draws;
// otherwise every vertex, in id order, gets rng.Intn(nSpins).
func InitSpins(g *graph.Graph, nSpins int, existing graph.VertexMap[int32], rng *rand.Rand) (graph.VertexMap[int32], error) {
	if nSpins < 1 {
		return nil, fmt.Errorf("%w: n_spins must be at least 1, got %d", ErrInvalidArgument, nSpins)
	}

	spins := graph.NewVertexMap[int32](g)
	if existing != nil {
		if len(existing) != g.NumNodes() {
			return nil, fmt.Errorf("%w: spin map has %d entries, graph has %d vertices", ErrInvalidArgument, len(existing), g.NumNodes())
		}
		for v, s := range existing {
			if s < 0 || int(s) >= nSpins {
				return nil, fmt.Errorf("%w: spin %d of vertex %d outside [0, %d)", ErrInvalidArgument, s, v, nSpins)
			}
		}
		copy(spins, existing)
		return spins, nil
	}

	for v := range spins {
		spins[v] = int32(rng.Intn(nSpins))
	}
	return spins, nil
}
