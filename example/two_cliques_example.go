package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/potts-community/pkg/community"
	"github.com/gilchrisn/potts-community/pkg/graph"
	"github.com/gilchrisn/potts-community/pkg/metrics"
	"github.com/gilchrisn/potts-community/pkg/spinglass"
)

func main() {
	fmt.Println("Spin Glass Community Detection Example")
	fmt.Println("======================================")

	if err := runTwoCliqueExample(); err != nil {
		log.Fatalf("Example failed: %v", err)
	}
}

func runTwoCliqueExample() error {
	// Step 1: Build two disjoint 10-cliques as a gonum graph
	fmt.Println("📋 Step 1: Building the input graph...")

	src := simple.NewUndirectedGraph()
	for offset := int64(0); offset < 20; offset += 10 {
		for i := offset; i < offset+10; i++ {
			for j := i + 1; j < offset+10; j++ {
				src.SetEdge(src.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	adapted, err := graph.FromGonum(src)
	if err != nil {
		return fmt.Errorf("failed to adapt graph: %w", err)
	}
	g := adapted.Graph
	fmt.Printf("   Graph: %d nodes, %d edges\n", g.NumNodes(), g.NumEdges())

	// Step 2: Configure the annealing
	fmt.Println("\n⚙️  Step 2: Configuring the annealing...")

	historyFile := filepath.Join(os.TempDir(), "spinglass_history.txt")
	registry := metrics.NewRegistry()

	config := spinglass.NewConfig()
	config.Set("algorithm.n_iter", 10000)
	config.Set("algorithm.n_spins", 20)
	config.Set("algorithm.gamma", 1.0)
	config.Set("algorithm.corr", "erdos")
	config.Set("algorithm.random_seed", int64(42))
	config.Set("logging.verbose", true)
	config.Set("logging.progress_interval", 2500)
	config.Set("output.history_file", historyFile)
	config.SetMetrics(registry)

	// Step 3: Run
	fmt.Println("\n🚀 Step 3: Running community detection...")

	result, err := spinglass.Run(spinglass.Input{Graph: g, Weights: adapted.Weights}, config)
	if err != nil {
		return fmt.Errorf("community detection failed: %w", err)
	}
	fmt.Printf("   Communities: %d\n", result.NumCommunities)
	fmt.Printf("   Energy: %.4f\n", result.Energy)
	fmt.Printf("   Accepted moves: %d, rejected: %d\n", result.Statistics.Accepted, result.Statistics.Rejected)
	fmt.Printf("   History written to %s\n", historyFile)

	// Step 4: Score and condense the partition
	fmt.Println("\n📊 Step 4: Analyzing the partition...")

	q, err := community.Modularity(g, result.Spins, adapted.Weights)
	if err != nil {
		return fmt.Errorf("failed to compute modularity: %w", err)
	}
	fmt.Printf("   Modularity: %.4f\n", q)

	condensed, err := community.Condense(g, result.Spins, adapted.Weights)
	if err != nil {
		return fmt.Errorf("failed to condense graph: %w", err)
	}
	for v := 0; v < condensed.Graph.NumNodes(); v++ {
		fmt.Printf("   Community %d (spin %d): %d vertices\n", v, condensed.Community[v], condensed.VertexCount[v])
	}
	for id, e := range condensed.Graph.Edges() {
		fmt.Printf("   Edge %d-%d: %d edges, weight %.1f\n", e.From, e.To, condensed.EdgeCount[id], condensed.EdgeWeight[id])
	}

	families, err := registry.Gatherer().Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	fmt.Printf("\n✅ Done, %d metric families recorded\n", len(families))
	return nil
}
