package spinglass

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/potts-community/pkg/metrics"
)

// Config manages algorithm configuration using Viper
type Config struct {
	v       *viper.Viper
	out     io.Writer
	metrics *metrics.Registry
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.n_iter", 1000)
	v.SetDefault("algorithm.n_spins", 25)
	v.SetDefault("algorithm.gamma", 1.0)
	v.SetDefault("algorithm.corr", string(Erdos))
	v.SetDefault("algorithm.t_high", 100.0)
	v.SetDefault("algorithm.t_low", 0.01)
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())

	// Performance parameters
	v.SetDefault("performance.parallel", false)
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.verbose", false)
	v.SetDefault("logging.progress_interval", 100)

	v.SetDefault("output.history_file", "")

	return &Config{v: v, out: os.Stdout}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for algorithm parameters
func (c *Config) NumIterations() int { return c.v.GetInt("algorithm.n_iter") }
func (c *Config) NumSpins() int { return c.v.GetInt("algorithm.n_spins") }
func (c *Config) Gamma() float64 { return c.v.GetFloat64("algorithm.gamma") }
func (c *Config) Correlation() string { return c.v.GetString("algorithm.corr") }
func (c *Config) TemperatureHigh() float64 { return c.v.GetFloat64("algorithm.t_high") }
func (c *Config) TemperatureLow() float64 { return c.v.GetFloat64("algorithm.t_low") }
func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) Parallel() bool { return c.v.GetBool("performance.parallel") }
func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) Verbose() bool { return c.v.GetBool("logging.verbose") }
func (c *Config) ProgressInterval() int { return c.v.GetInt("logging.progress_interval") }

func (c *Config) HistoryFile() string { return c.v.GetString("output.history_file") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// SetTemperatureRange sets both annealing bounds
func (c *Config) SetTemperatureRange(high, low float64) {
	c.v.Set("algorithm.t_high", high)
	c.v.Set("algorithm.t_low", low)
}

// SetLogOutput redirects the console logger
func (c *Config) SetLogOutput(w io.Writer) { c.out = w }

// SetMetrics attaches a metrics registry that runs will report into
func (c *Config) SetMetrics(r *metrics.Registry) { c.metrics = r }

// Metrics returns the attached registry, nil when none was set
func (c *Config) Metrics() *metrics.Registry { return c.metrics }

// Validate checks every parameter a run depends on
func (c *Config) Validate() error {
	if c.NumIterations() < 0 {
		return fmt.Errorf("%w: n_iter must be non-negative, got %d", ErrInvalidArgument, c.NumIterations())
	}
	if c.NumSpins() < 1 {
		return fmt.Errorf("%w: n_spins must be at least 1, got %d", ErrInvalidArgument, c.NumSpins())
	}
	if _, err := ParseCorrelation(c.Correlation()); err != nil {
		return err
	}
	if _, err := NewSchedule(c.TemperatureHigh(), c.TemperatureLow(), c.NumIterations()); err != nil {
		return err
	}
	if c.Parallel() && c.NumWorkers() < 1 {
		return fmt.Errorf("%w: num_workers must be at least 1, got %d", ErrInvalidArgument, c.NumWorkers())
	}
	return nil
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        c.out,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "spinglass").Logger()
}
