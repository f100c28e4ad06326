package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/potts-community/pkg/community"
	"github.com/gilchrisn/potts-community/pkg/graph"
	"github.com/gilchrisn/potts-community/pkg/metrics"
	"github.com/gilchrisn/potts-community/pkg/spinglass"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 20

// Handlers contains HTTP request handlers
type Handlers struct {
	configFile string
	registry   *metrics.Registry
	logOutput  io.Writer
	limits     Limits
}

// NewHandlers creates handlers that start every run from the configuration
// in configFile (defaults only when empty) and report into registry
func NewHandlers(configFile string, registry *metrics.Registry) *Handlers {
	return &Handlers{
		configFile: configFile,
		registry:   registry,
		logOutput:  os.Stdout,
		limits:     DefaultLimits(),
	}
}

// SetLogOutput redirects the logs of annealing runs
func (h *Handlers) SetLogOutput(w io.Writer) { h.logOutput = w }

// SetLimits replaces the per-request size limits
func (h *Handlers) SetLimits(l Limits) { h.limits = l }

// newConfig builds the configuration of one run
func (h *Handlers) newConfig(params DetectParameters) (*spinglass.Config, error) {
	cfg := spinglass.NewConfig()
	if h.configFile != "" {
		if err := cfg.LoadFromFile(h.configFile); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	// Runs started over HTTP never write to the server's disk
	cfg.Set("output.history_file", "")
	cfg.SetMetrics(h.registry)
	cfg.SetLogOutput(h.logOutput)

	if params.NumIterations != nil {
		cfg.Set("algorithm.n_iter", *params.NumIterations)
	}
	if params.NumSpins != nil {
		cfg.Set("algorithm.n_spins", *params.NumSpins)
	}
	if params.Gamma != nil {
		cfg.Set("algorithm.gamma", *params.Gamma)
	}
	if params.Correlation != nil {
		cfg.Set("algorithm.corr", *params.Correlation)
	}
	if params.TemperatureHigh != nil {
		cfg.Set("algorithm.t_high", *params.TemperatureHigh)
	}
	if params.TemperatureLow != nil {
		cfg.Set("algorithm.t_low", *params.TemperatureLow)
	}
	if params.RandomSeed != nil {
		cfg.Set("algorithm.random_seed", *params.RandomSeed)
	}
	if params.Parallel != nil {
		cfg.Set("performance.parallel", *params.Parallel)
	}
	if params.NumWorkers != nil {
		cfg.Set("performance.num_workers", *params.NumWorkers)
	}
	return cfg, nil
}

// DetectCommunities runs the spin-glass annealing on the posted graph
func (h *Handlers) DetectCommunities(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.limits.checkGraph(req.Graph); err != nil {
		writeDomainError(w, "Request too large", err)
		return
	}
	g, weights, err := req.Graph.Build()
	if err != nil {
		writeDomainError(w, "Invalid graph", err)
		return
	}
	cfg, err := h.newConfig(req.Parameters)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build run configuration")
		WriteErrorResponse(w, http.StatusInternalServerError, "Invalid server configuration", err)
		return
	}
	if err := h.limits.checkRun(cfg); err != nil {
		writeDomainError(w, "Request too large", err)
		return
	}

	input := spinglass.Input{Graph: g, Weights: weights}
	if req.Spins != nil {
		input.Spins = graph.VertexMap[int32](req.Spins)
	}

	result, err := spinglass.Run(input, cfg)
	if err != nil {
		writeDomainError(w, "Community detection failed", err)
		return
	}

	q, err := community.Modularity(g, result.Spins, weights)
	if err != nil {
		writeDomainError(w, "Modularity computation failed", err)
		return
	}

	log.Info().
		Str("run_id", result.RunID).
		Int("nodes", g.NumNodes()).
		Int("communities", result.NumCommunities).
		Float64("modularity", q).
		Msg("Community detection request completed")

	WriteSuccessResponse(w, "Community detection completed", DetectResponse{
		RunID:          result.RunID,
		Spins:          result.Spins,
		NumCommunities: result.NumCommunities,
		Energy:         result.Energy,
		Modularity:     q,
		Iterations:     result.Statistics.Iterations,
		Accepted:       result.Statistics.Accepted,
		Rejected:       result.Statistics.Rejected,
		RuntimeMS:      result.Statistics.RuntimeMS,
	})
}

// ComputeModularity scores the posted partition
func (h *Handlers) ComputeModularity(w http.ResponseWriter, r *http.Request) {
	var req PartitionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.limits.checkGraph(req.Graph); err != nil {
		writeDomainError(w, "Request too large", err)
		return
	}
	g, weights, err := req.Graph.Build()
	if err != nil {
		writeDomainError(w, "Invalid graph", err)
		return
	}

	var q float64
	switch p := decodePartition(req.Partition).(type) {
	case graph.VertexMap[float64]:
		q, err = community.Modularity(g, p, weights)
	case graph.VertexMap[string]:
		q, err = community.Modularity(g, p, weights)
	case graph.VertexMap[bool]:
		q, err = community.Modularity(g, p, weights)
	default:
		err = errMixedPartition
	}
	if err != nil {
		writeDomainError(w, "Modularity computation failed", err)
		return
	}

	WriteSuccessResponse(w, "Modularity computed", ModularityResponse{Modularity: q})
}

// CondenseGraph builds the community graph of the posted partition
func (h *Handlers) CondenseGraph(w http.ResponseWriter, r *http.Request) {
	var req PartitionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.limits.checkGraph(req.Graph); err != nil {
		writeDomainError(w, "Request too large", err)
		return
	}
	g, weights, err := req.Graph.Build()
	if err != nil {
		writeDomainError(w, "Invalid graph", err)
		return
	}

	var response CondenseResponse
	switch p := decodePartition(req.Partition).(type) {
	case graph.VertexMap[float64]:
		response, err = condense(g, p, weights)
	case graph.VertexMap[string]:
		response, err = condense(g, p, weights)
	case graph.VertexMap[bool]:
		response, err = condense(g, p, weights)
	default:
		err = errMixedPartition
	}
	if err != nil {
		writeDomainError(w, "Condensation failed", err)
		return
	}

	WriteSuccessResponse(w, "Graph condensed", response)
}

// HealthCheck returns server health status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Service is healthy", map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// ListAlgorithms lists the null models and tunable parameters
func (h *Handlers) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	parameters := []map[string]interface{}{
		{"name": "n_iter", "type": "integer", "default": 1000, "description": "Annealing iterations"},
		{"name": "n_spins", "type": "integer", "default": 25, "description": "Upper bound on the number of communities"},
		{"name": "gamma", "type": "number", "default": 1.0, "description": "Resolution of the repulsive term"},
		{"name": "t_high", "type": "number", "default": 100.0, "description": "Initial temperature"},
		{"name": "t_low", "type": "number", "default": 0.01, "description": "Final temperature"},
		{"name": "random_seed", "type": "integer", "description": "Seed of the random stream"},
	}
	algorithms := []map[string]interface{}{
		{"name": "spinglass", "corr": string(spinglass.Erdos), "description": "Constant edge probability null model", "parameters": parameters},
		{"name": "spinglass", "corr": string(spinglass.Uncorrelated), "description": "Configuration model, p_ij = k_i k_j / 2W", "parameters": parameters},
		{"name": "spinglass", "corr": string(spinglass.Correlated), "description": "Configuration model reweighted by degree-class correlations", "parameters": parameters},
	}
	WriteSuccessResponse(w, "Algorithms retrieved successfully", algorithms)
}

var errMixedPartition = fmt.Errorf("%w: partition values must all be numbers, all strings or all booleans", graph.ErrInvalidArgument)

// decodePartition converts JSON values into a typed partition, or returns
// nil when the values do not share a type
func decodePartition(values []interface{}) interface{} {
	if values == nil {
		return graph.VertexMap[float64](nil)
	}
	if len(values) == 0 {
		return graph.VertexMap[float64]{}
	}

	switch values[0].(type) {
	case float64:
		return collect[float64](values)
	case string:
		return collect[string](values)
	case bool:
		return collect[bool](values)
	}
	return nil
}

func collect[V community.Scalar](values []interface{}) interface{} {
	p := make(graph.VertexMap[V], len(values))
	for i, value := range values {
		v, ok := value.(V)
		if !ok {
			return nil
		}
		p[i] = v
	}
	return p
}

func condense[V community.Scalar](g *graph.Graph, p graph.VertexMap[V], weights graph.EdgeMap[float64]) (CondenseResponse, error) {
	c, err := community.Condense(g, p, weights)
	if err != nil {
		return CondenseResponse{}, err
	}

	edges := make([]CondensedEdge, 0, c.Graph.NumEdges())
	for id, e := range c.Graph.Edges() {
		edges = append(edges, CondensedEdge{
			From:   e.From,
			To:     e.To,
			Count:  c.EdgeCount[id],
			Weight: c.EdgeWeight[id],
		})
	}
	return CondenseResponse{
		NumNodes:    c.Graph.NumNodes(),
		Community:   c.Community,
		VertexCount: c.VertexCount,
		Edges:       edges,
		Membership:  c.Membership,
	}, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error().Err(err).Msg("Invalid request body")
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeDomainError maps invalid arguments to 400 and everything else to 500
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, graph.ErrInvalidArgument) {
		status = http.StatusBadRequest
	}
	log.Error().Err(err).Int("status", status).Msg(message)
	WriteErrorResponse(w, status, message, err)
}
