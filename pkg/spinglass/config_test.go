package spinglass

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/potts-community/pkg/metrics"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1000, cfg.NumIterations())
	assert.Equal(t, 25, cfg.NumSpins())
	assert.Equal(t, 1.0, cfg.Gamma())
	assert.Equal(t, "erdos", cfg.Correlation())
	assert.Equal(t, 100.0, cfg.TemperatureHigh())
	assert.Equal(t, 0.01, cfg.TemperatureLow())
	assert.False(t, cfg.Parallel())
	assert.Equal(t, runtime.NumCPU(), cfg.NumWorkers())
	assert.Equal(t, "info", cfg.LogLevel())
	assert.False(t, cfg.Verbose())
	assert.Equal(t, 100, cfg.ProgressInterval())
	assert.Empty(t, cfg.HistoryFile())
	assert.Nil(t, cfg.Metrics())
	assert.NoError(t, cfg.Validate())
}

func TestConfigLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spinglass.yaml")
	content := `
algorithm:
  n_iter: 250
  n_spins: 8
  gamma: 1.5
  corr: correlated
  t_high: 10
  t_low: 0.5
  random_seed: 77
performance:
  parallel: true
  num_workers: 3
logging:
  level: debug
  verbose: true
output:
  history_file: /tmp/history.txt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 250, cfg.NumIterations())
	assert.Equal(t, 8, cfg.NumSpins())
	assert.Equal(t, 1.5, cfg.Gamma())
	assert.Equal(t, "correlated", cfg.Correlation())
	assert.Equal(t, 10.0, cfg.TemperatureHigh())
	assert.Equal(t, 0.5, cfg.TemperatureLow())
	assert.Equal(t, int64(77), cfg.RandomSeed())
	assert.True(t, cfg.Parallel())
	assert.Equal(t, 3, cfg.NumWorkers())
	assert.Equal(t, "debug", cfg.LogLevel())
	assert.True(t, cfg.Verbose())
	assert.Equal(t, 100, cfg.ProgressInterval(), "unset keys keep their default")
	assert.Equal(t, "/tmp/history.txt", cfg.HistoryFile())
	assert.NoError(t, cfg.Validate())
}

func TestConfigLoadFromMissingFile(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"NegativeIterations", "algorithm.n_iter", -5},
		{"ZeroSpins", "algorithm.n_spins", 0},
		{"UnknownCorrelation", "algorithm.corr", "spearman"},
		{"ZeroLowTemperature", "algorithm.t_low", 0.0},
		{"InvertedRange", "algorithm.t_high", 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Set(tt.key, tt.value)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidArgument)
		})
	}

	t.Run("WorkersOnlyCheckedWhenParallel", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Set("performance.num_workers", 0)
		assert.NoError(t, cfg.Validate())
		cfg.Set("performance.parallel", true)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidArgument)
	})
}

func TestConfigCreateLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewConfig()
	cfg.SetLogOutput(&buf)

	logger := cfg.CreateLogger()
	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "service")
	assert.Contains(t, buf.String(), "spinglass")
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	cfg.Set("logging.level", "not-a-level")
	logger = cfg.CreateLogger()
	logger.Info().Msg("fallback")
	assert.Contains(t, buf.String(), "fallback")

	buf.Reset()
	cfg.Set("logging.level", "disabled")
	logger = cfg.CreateLogger()
	logger.Error().Msg("silent")
	assert.Empty(t, buf.String())
}

func TestConfigMetrics(t *testing.T) {
	cfg := NewConfig()
	r := metrics.NewRegistry()
	cfg.SetMetrics(r)
	assert.Same(t, r, cfg.Metrics())
}
