package api

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gilchrisn/potts-community/pkg/graph"
	"github.com/gilchrisn/potts-community/pkg/spinglass"
)

// ServerConfig holds the HTTP server settings. Every key can be overridden
// from the environment with the SPINGLASS_ prefix, e.g.
// SPINGLASS_SERVER_ADDRESS.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ConfigFile is the algorithm configuration every run starts from
	ConfigFile string
	Limits     Limits
}

// Limits bounds the size of the work a single request may ask for. Requests
// over a limit are rejected with 400 before the graph or the run state is
// allocated.
type Limits struct {
	MaxNodes      int
	MaxEdges      int
	MaxIterations int
	MaxSpins      int
	MaxWorkers    int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{
		MaxNodes:      1_000_000,
		MaxEdges:      10_000_000,
		MaxIterations: 100_000,
		MaxSpins:      1_000,
		MaxWorkers:    runtime.NumCPU(),
	}
}

// LoadServerConfig reads the server settings from the environment
func LoadServerConfig() ServerConfig {
	v := viper.New()
	v.SetEnvPrefix("spinglass")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.config_file", "")

	limits := DefaultLimits()
	v.SetDefault("server.max_nodes", limits.MaxNodes)
	v.SetDefault("server.max_edges", limits.MaxEdges)
	v.SetDefault("server.max_iterations", limits.MaxIterations)
	v.SetDefault("server.max_spins", limits.MaxSpins)
	v.SetDefault("server.max_workers", limits.MaxWorkers)

	return ServerConfig{
		Address:      v.GetString("server.address"),
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		ConfigFile:   v.GetString("server.config_file"),
		Limits: Limits{
			MaxNodes:      v.GetInt("server.max_nodes"),
			MaxEdges:      v.GetInt("server.max_edges"),
			MaxIterations: v.GetInt("server.max_iterations"),
			MaxSpins:      v.GetInt("server.max_spins"),
			MaxWorkers:    v.GetInt("server.max_workers"),
		},
	}
}

// checkGraph rejects graph payloads larger than the limits
func (l Limits) checkGraph(p GraphPayload) error {
	if p.NumNodes > l.MaxNodes {
		return fmt.Errorf("%w: num_nodes %d exceeds the limit of %d", graph.ErrInvalidArgument, p.NumNodes, l.MaxNodes)
	}
	if len(p.Edges) > l.MaxEdges {
		return fmt.Errorf("%w: %d edges exceed the limit of %d", graph.ErrInvalidArgument, len(p.Edges), l.MaxEdges)
	}
	return nil
}

// checkRun rejects run configurations larger than the limits
func (l Limits) checkRun(cfg *spinglass.Config) error {
	if cfg.NumSpins() > l.MaxSpins {
		return fmt.Errorf("%w: n_spins %d exceeds the limit of %d", graph.ErrInvalidArgument, cfg.NumSpins(), l.MaxSpins)
	}
	if cfg.NumIterations() > l.MaxIterations {
		return fmt.Errorf("%w: n_iter %d exceeds the limit of %d", graph.ErrInvalidArgument, cfg.NumIterations(), l.MaxIterations)
	}
	if cfg.Parallel() && cfg.NumWorkers() > l.MaxWorkers {
		return fmt.Errorf("%w: num_workers %d exceeds the limit of %d", graph.ErrInvalidArgument, cfg.NumWorkers(), l.MaxWorkers)
	}
	return nil
}
