package spinglass

import (
	"math"
	"math/rand"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/potts-community/pkg/graph"
)

// adjacency is a CSR neighbour list of the undirected view. Self-loops are
// left out: the Hamiltonian only sums over pairs i != j.
type adjacency struct {
	offsets []int
	targets []int32
	weights []float64
}

func buildAdjacency(g *graph.Graph, weights graph.EdgeMap[float64]) adjacency {
	n := g.NumNodes()
	adj := adjacency{offsets: make([]int, n+1)}

	for _, e := range g.Edges() {
		if e.IsLoop() {
			continue
		}
		adj.offsets[e.From+1]++
		adj.offsets[e.To+1]++
	}
	for v := 0; v < n; v++ {
		adj.offsets[v+1] += adj.offsets[v]
	}

	adj.targets = make([]int32, adj.offsets[n])
	adj.weights = make([]float64, adj.offsets[n])
	next := make([]int, n)
	copy(next, adj.offsets[:n])
	for _, e := range g.Edges() {
		if e.IsLoop() {
			continue
		}
		w := graph.EdgeWeight(weights, e.ID)
		adj.targets[next[e.From]], adj.weights[next[e.From]] = int32(e.To), w
		next[e.From]++
		adj.targets[next[e.To]], adj.weights[next[e.To]] = int32(e.From), w
		next[e.To]++
	}
	return adj
}

// outcome of a single vertex visit
type outcome int

const (
	skipped outcome = iota
	accepted
	rejected
)

// system is the mutable state of one annealing run
type system struct {
	adj   adjacency
	model NullModel
	stats *AggregateStats
	spins []atomic.Int32
	gamma float64
}

func newSystem(adj adjacency, model NullModel, stats *AggregateStats, spins graph.VertexMap[int32], gamma float64) *system {
	s := &system{
		adj:   adj,
		model: model,
		stats: stats,
		spins: make([]atomic.Int32, len(spins)),
		gamma: gamma,
	}
	for v, spin := range spins {
		s.spins[v].Store(spin)
		stats.add(v, spin)
	}
	return s
}

// delta returns the energy change of moving v from spin from to spin to:
// ΔH = (w_v,from − w_v,to) − γ(R_v,from − R_v,to), where w_v,x is the weight of
// v's edges into x and R_v,x the null-model mass of x as seen from v.
func (s *system) delta(v int, from, to int32) float64 {
	var wFrom, wTo float64
	for i := s.adj.offsets[v]; i < s.adj.offsets[v+1]; i++ {
		switch s.spins[s.adj.targets[i]].Load() {
		case from:
			wFrom += s.adj.weights[i]
		case to:
			wTo += s.adj.weights[i]
		}
	}

	rFrom := s.model.repulsion(v, from, true, s.stats)
	rTo := s.model.repulsion(v, to, false, s.stats)
	return (wFrom - wTo) - s.gamma*(rFrom-rTo)
}

// move commits a flip to both the spin and the aggregates
func (s *system) move(v int, from, to int32) {
	s.spins[v].Store(to)
	s.stats.Apply(v, from, to)
}

// energy evaluates H = −Σ_{i<j} (A_ij − γ p_ij) δ(σ_i, σ_j) from scratch
func (s *system) energy() float64 {
	internal := 0.0
	repulsive := 0.0
	for v := range s.spins {
		spin := s.spins[v].Load()
		for i := s.adj.offsets[v]; i < s.adj.offsets[v+1]; i++ {
			if s.spins[s.adj.targets[i]].Load() == spin {
				internal += s.adj.weights[i]
			}
		}
		repulsive += s.model.repulsion(v, spin, true, s.stats)
	}
	// Both sums visit every unordered pair twice
	return -internal/2 + s.gamma*repulsive/2
}

// snapshot copies the current spins out
func (s *system) snapshot(dst graph.VertexMap[int32]) {
	for v := range s.spins {
		dst[v] = s.spins[v].Load()
	}
}

// visit proposes a new spin for v drawn from pool and applies the
// Metropolis rule at the given temperature
func (s *system) visit(v int, pool []int32, temperature float64, rng *rand.Rand) outcome {
	from := s.spins[v].Load()
	to := pool[rng.Intn(len(pool))]
	if to == from {
		return skipped
	}
	// Moving a lone vertex into an empty spin only relabels it
	if s.stats.Count(to) == 0 && s.stats.Count(from) == 1 {
		return skipped
	}

	dH := s.delta(v, from, to)
	if dH > 0 && rng.Float64() >= math.Exp(-dH/temperature) {
		return rejected
	}

	s.move(v, from, to)
	return accepted
}

// sweep visits every vertex of order once
func (s *system) sweep(order []int, pool []int32, temperature float64, rng *rand.Rand) (int64, int64) {
	var nAccepted, nRejected int64
	for _, v := range order {
		switch s.visit(v, pool, temperature, rng) {
		case accepted:
			nAccepted++
		case rejected:
			nRejected++
		}
	}
	return nAccepted, nRejected
}

// sweepParallel splits order into contiguous chunks, one per worker, using at
// most one worker per vertex. Each worker draws from its own stream seeded
// from rng, so the master stream advances by exactly one draw per worker
// used. Workers read aggregates that other workers are updating; the result
// depends on scheduling.
func (s *system) sweepParallel(order []int, pool []int32, temperature float64, rng *rand.Rand, workers int) (int64, int64) {
	workers = min(workers, len(order))
	if workers < 1 {
		return 0, 0
	}

	seeds := make([]int64, workers)
	for w := range seeds {
		seeds[w] = rng.Int63()
	}

	chunkSize := (len(order) + workers - 1) / workers

	nAccepted := make([]int64, workers)
	nRejected := make([]int64, workers)

	var group errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(order) {
			break
		}
		end := min(start+chunkSize, len(order))

		w := w
		group.Go(func() error {
			local := rand.New(rand.NewSource(seeds[w]))
			nAccepted[w], nRejected[w] = s.sweep(order[start:end], pool, temperature, local)
			return nil
		})
	}
	_ = group.Wait()

	var totalAccepted, totalRejected int64
	for w := 0; w < workers; w++ {
		totalAccepted += nAccepted[w]
		totalRejected += nRejected[w]
	}
	return totalAccepted, totalRejected
}
