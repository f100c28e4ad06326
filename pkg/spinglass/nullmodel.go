package spinglass

import (
	"fmt"
	"sort"

	"github.com/gilchrisn/potts-community/pkg/graph"
)

// Correlation selects the null model used for p_ij
type Correlation string

const (
	// Erdos assumes an Erdos-Renyi random graph: p_ij is constant
	Erdos Correlation = "erdos"
	// Uncorrelated assumes a random graph with the observed degrees and no
	// degree-degree correlations: p_ij = k_i k_j / 2W
	Uncorrelated Correlation = "uncorrelated"
	// Correlated additionally reweights p_ij by the observed average
	// correlation between the degree classes of i and j
	Correlated Correlation = "correlated"
)

// ParseCorrelation validates a correlation mode name
func ParseCorrelation(s string) (Correlation, error) {
	switch c := Correlation(s); c {
	case Erdos, Uncorrelated, Correlated:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown correlation type %q (want erdos, uncorrelated or correlated)", ErrInvalidArgument, s)
	}
}

// vertexStats holds the per-vertex degree data every null model needs
type vertexStats struct {
	strength    []float64 // weighted degree, self-loops count twice
	class       []int32   // dense index of the unweighted degree
	classDegree []int     // class index -> unweighted degree
	totalWeight float64   // W, sum of all edge weights
}

func computeVertexStats(g *graph.Graph, weights graph.EdgeMap[float64]) *vertexStats {
	n := g.NumNodes()
	vs := &vertexStats{
		strength: make([]float64, n),
		class:    make([]int32, n),
	}

	degree := make([]int, n)
	for _, e := range g.Edges() {
		w := graph.EdgeWeight(weights, e.ID)
		vs.strength[e.From] += w
		vs.strength[e.To] += w
		degree[e.From]++
		degree[e.To]++
		vs.totalWeight += w
	}

	distinct := make(map[int]struct{})
	for _, k := range degree {
		distinct[k] = struct{}{}
	}
	vs.classDegree = make([]int, 0, len(distinct))
	for k := range distinct {
		vs.classDegree = append(vs.classDegree, k)
	}
	sort.Ints(vs.classDegree)

	index := make(map[int]int32, len(vs.classDegree))
	for i, k := range vs.classDegree {
		index[k] = int32(i)
	}
	for v, k := range degree {
		vs.class[v] = index[k]
	}

	return vs
}

func (vs *vertexStats) numClasses() int { return len(vs.classDegree) }

// NullModel estimates the probability p_ij of an edge between i and j.
// Estimates are O(1) after construction and no N×N table is ever built.
type NullModel interface {
	// Mode returns the correlation type of the model
	Mode() Correlation
	// Estimate returns p_ij for i != j
	Estimate(i, j int) float64
	// repulsion returns the sum of p_vj over every j != v holding spin x,
	// derived from aggregate sums only. own reports whether v holds x.
	repulsion(v int, x int32, own bool, stats *AggregateStats) float64
}

// NewNullModel builds the null model for g. The erdos model honours
// g.Directed(); community detection always uses the undirected form.
func NewNullModel(mode Correlation, g *graph.Graph, weights graph.EdgeMap[float64]) (NullModel, error) {
	if _, err := ParseCorrelation(string(mode)); err != nil {
		return nil, err
	}
	if err := graph.ValidateWeights(g, weights); err != nil {
		return nil, err
	}
	vs := computeVertexStats(g, weights)
	return newNullModel(mode, g, weights, vs, g.Directed()), nil
}

func newNullModel(mode Correlation, g *graph.Graph, weights graph.EdgeMap[float64], vs *vertexStats, directed bool) NullModel {
	switch mode {
	case Uncorrelated:
		return newUncorrelatedModel(vs)
	case Correlated:
		return newCorrelatedModel(g, weights, vs)
	default:
		return newErdosModel(g.NumNodes(), vs.totalWeight, directed)
	}
}

type erdosModel struct {
	p float64
}

func newErdosModel(n int, totalWeight float64, directed bool) *erdosModel {
	if n < 2 {
		return &erdosModel{}
	}
	pairs := float64(n) * float64(n-1)
	if directed {
		return &erdosModel{p: totalWeight / pairs}
	}
	return &erdosModel{p: 2 * totalWeight / pairs}
}

func (m *erdosModel) Mode() Correlation { return Erdos }

func (m *erdosModel) Estimate(i, j int) float64 { return m.p }

func (m *erdosModel) repulsion(v int, x int32, own bool, stats *AggregateStats) float64 {
	n := stats.Count(x)
	if own {
		n--
	}
	return m.p * float64(n)
}

type uncorrelatedModel struct {
	vs    *vertexStats
	inv2W float64
}

func newUncorrelatedModel(vs *vertexStats) *uncorrelatedModel {
	m := &uncorrelatedModel{vs: vs}
	if vs.totalWeight > 0 {
		m.inv2W = 1 / (2 * vs.totalWeight)
	}
	return m
}

func (m *uncorrelatedModel) Mode() Correlation { return Uncorrelated }

func (m *uncorrelatedModel) Estimate(i, j int) float64 {
	return m.vs.strength[i] * m.vs.strength[j] * m.inv2W
}

func (m *uncorrelatedModel) repulsion(v int, x int32, own bool, stats *AggregateStats) float64 {
	k := m.vs.strength[v]
	total := stats.Strength(x)
	if own {
		total -= k
	}
	return k * total * m.inv2W
}

// classEntry is one non-zero cell of a row of the class correlation table
type classEntry struct {
	class int32
	t     float64
}

// correlatedModel stores T(c,c') = E_cc' / (S_c S_c'), where E_cc' is the
// symmetrised edge weight between degree classes c and c' and S_c the total
// strength of class c. Then p_ij = k_i k_j T(c_i,c_j), and the average
// correlation r(c,c') = 2W T(c,c') is 1 for an uncorrelated graph.
type correlatedModel struct {
	vs    *vertexStats
	table map[[2]int32]float64
	rows  [][]classEntry
}

func newCorrelatedModel(g *graph.Graph, weights graph.EdgeMap[float64], vs *vertexStats) *correlatedModel {
	classStrength := make([]float64, vs.numClasses())
	for v, k := range vs.strength {
		classStrength[vs.class[v]] += k
	}

	mass := make(map[[2]int32]float64)
	for _, e := range g.Edges() {
		w := graph.EdgeWeight(weights, e.ID)
		cu, cv := vs.class[e.From], vs.class[e.To]
		mass[[2]int32{cu, cv}] += w
		mass[[2]int32{cv, cu}] += w
	}

	m := &correlatedModel{
		vs:    vs,
		table: make(map[[2]int32]float64, len(mass)),
		rows:  make([][]classEntry, vs.numClasses()),
	}
	for key, e := range mass {
		denom := classStrength[key[0]] * classStrength[key[1]]
		if e == 0 || denom == 0 {
			continue
		}
		t := e / denom
		m.table[key] = t
		m.rows[key[0]] = append(m.rows[key[0]], classEntry{class: key[1], t: t})
	}
	// Map iteration order is random; keep row sums deterministic
	for _, row := range m.rows {
		sort.Slice(row, func(i, j int) bool { return row[i].class < row[j].class })
	}

	return m
}

func (m *correlatedModel) Mode() Correlation { return Correlated }

func (m *correlatedModel) Estimate(i, j int) float64 {
	t := m.table[[2]int32{m.vs.class[i], m.vs.class[j]}]
	return m.vs.strength[i] * m.vs.strength[j] * t
}

// Ratio returns r(c_i, c_j), the observed correlation between the degree
// classes of i and j relative to the uncorrelated expectation.
func (m *correlatedModel) Ratio(i, j int) float64 {
	return 2 * m.vs.totalWeight * m.table[[2]int32{m.vs.class[i], m.vs.class[j]}]
}

func (m *correlatedModel) repulsion(v int, x int32, own bool, stats *AggregateStats) float64 {
	k := m.vs.strength[v]
	cv := m.vs.class[v]

	sum := 0.0
	for _, entry := range m.rows[cv] {
		s := stats.ClassStrength(x, entry.class)
		if own && entry.class == cv {
			s -= k
		}
		sum += entry.t * s
	}
	return k * sum
}
