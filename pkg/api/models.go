package api

import (
	"fmt"

	"github.com/gilchrisn/potts-community/pkg/graph"
)

// GraphPayload is the wire form of a graph. Weights may be omitted, in which
// case every edge weighs 1.
type GraphPayload struct {
	NumNodes int       `json:"num_nodes"`
	Directed bool      `json:"directed"`
	Edges    [][2]int  `json:"edges"`
	Weights  []float64 `json:"weights,omitempty"`
}

// Build converts the payload into a graph and weight map
func (p GraphPayload) Build() (*graph.Graph, graph.EdgeMap[float64], error) {
	if p.NumNodes < 0 {
		return nil, nil, fmt.Errorf("%w: num_nodes must be non-negative, got %d", graph.ErrInvalidArgument, p.NumNodes)
	}

	g := graph.NewGraph(p.NumNodes, p.Directed)
	for _, e := range p.Edges {
		if _, err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, nil, err
		}
	}

	var weights graph.EdgeMap[float64]
	if len(p.Weights) > 0 {
		weights = graph.EdgeMap[float64](p.Weights)
		if err := graph.ValidateWeights(g, weights); err != nil {
			return nil, nil, err
		}
	}
	return g, weights, nil
}

// DetectParameters overrides algorithm settings for one request. Unset
// fields keep the server configuration.
type DetectParameters struct {
	NumIterations   *int     `json:"n_iter,omitempty"`
	NumSpins        *int     `json:"n_spins,omitempty"`
	Gamma           *float64 `json:"gamma,omitempty"`
	Correlation     *string  `json:"corr,omitempty"`
	TemperatureHigh *float64 `json:"t_high,omitempty"`
	TemperatureLow  *float64 `json:"t_low,omitempty"`
	RandomSeed      *int64   `json:"random_seed,omitempty"`
	Parallel        *bool    `json:"parallel,omitempty"`
	NumWorkers      *int     `json:"num_workers,omitempty"`
}

// DetectRequest asks for a spin-glass community detection run
type DetectRequest struct {
	Graph      GraphPayload     `json:"graph"`
	Spins      []int32          `json:"spins,omitempty"`
	Parameters DetectParameters `json:"parameters"`
}

// DetectResponse carries the run result and the modularity of its partition
type DetectResponse struct {
	RunID          string  `json:"run_id"`
	Spins          []int32 `json:"spins"`
	NumCommunities int     `json:"num_communities"`
	Energy         float64 `json:"energy"`
	Modularity     float64 `json:"modularity"`
	Iterations     int     `json:"iterations"`
	Accepted       int64   `json:"accepted"`
	Rejected       int64   `json:"rejected"`
	RuntimeMS      int64   `json:"runtime_ms"`
}

// PartitionRequest carries a graph and a partition of its vertices. All
// partition values must share one JSON type: number, string or boolean.
type PartitionRequest struct {
	Graph     GraphPayload  `json:"graph"`
	Partition []interface{} `json:"partition"`
}

// ModularityResponse is the answer of the modularity endpoint
type ModularityResponse struct {
	Modularity float64 `json:"modularity"`
}

// CondensedEdge is one edge of a condensed graph
type CondensedEdge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Count  int32   `json:"count"`
	Weight float64 `json:"weight"`
}

// CondenseResponse is the answer of the condense endpoint
type CondenseResponse struct {
	NumNodes    int             `json:"num_nodes"`
	Community   interface{}     `json:"community"`
	VertexCount []int32         `json:"vertex_count"`
	Edges       []CondensedEdge `json:"edges"`
	Membership  []int           `json:"membership"`
}
