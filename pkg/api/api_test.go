package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/potts-community/pkg/metrics"
)

func newTestServer(t *testing.T, configFile string) (*httptest.Server, *metrics.Registry) {
	t.Helper()
	registry := metrics.NewRegistry()
	handlers := NewHandlers(configFile, registry)
	handlers.SetLogOutput(io.Discard)

	server := httptest.NewServer(NewRouter(handlers))
	t.Cleanup(server.Close)
	return server, registry
}

// cliquePayload builds two disjoint cliques of size n
func cliquePayload(n int) GraphPayload {
	p := GraphPayload{NumNodes: 2 * n}
	for offset := 0; offset < 2*n; offset += n {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				p.Edges = append(p.Edges, [2]int{offset + i, offset + j})
			}
		}
	}
	return p
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func post(t *testing.T, url string, body interface{}) (int, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func ptr[T any](v T) *T { return &v }

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t, "")

	resp, err := http.Get(server.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "healthy")
}

func TestListAlgorithms(t *testing.T) {
	server, _ := newTestServer(t, "")

	resp, err := http.Get(server.URL + "/api/v1/algorithms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var algorithms []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &algorithms))
	require.Len(t, algorithms, 3)
	assert.Equal(t, "erdos", algorithms[0]["corr"])
}

func TestDetectCommunities(t *testing.T) {
	server, registry := newTestServer(t, "")

	status, env := post(t, server.URL+"/api/v1/communities/detect", DetectRequest{
		Graph: cliquePayload(6),
		Parameters: DetectParameters{
			NumIterations: ptr(2000),
			NumSpins:      ptr(10),
			RandomSeed:    ptr(int64(5)),
		},
	})
	require.Equal(t, http.StatusOK, status, env.Error)

	var result DetectResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.NumCommunities)
	assert.Len(t, result.Spins, 12)
	assert.InDelta(t, 0.5, result.Modularity, 1e-9)
	assert.Equal(t, 2000, result.Iterations)
	assert.NotEmpty(t, result.RunID)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "spinglass_iterations_total 2000")
	assert.NotNil(t, registry)
}

func TestDetectCommunitiesRejectsInvalidInput(t *testing.T) {
	server, _ := newTestServer(t, "")
	url := server.URL + "/api/v1/communities/detect"

	tests := []struct {
		name string
		req  DetectRequest
	}{
		{"UnknownCorrelation", DetectRequest{Graph: cliquePayload(3), Parameters: DetectParameters{Correlation: ptr("pearson")}}},
		{"ZeroSpins", DetectRequest{Graph: cliquePayload(3), Parameters: DetectParameters{NumSpins: ptr(0)}}},
		{"EdgeOutOfRange", DetectRequest{Graph: GraphPayload{NumNodes: 2, Edges: [][2]int{{0, 5}}}}},
		{"NegativeWeight", DetectRequest{Graph: GraphPayload{NumNodes: 2, Edges: [][2]int{{0, 1}}, Weights: []float64{-1}}}},
		{"SpinsOutOfRange", DetectRequest{
			Graph:      GraphPayload{NumNodes: 2, Edges: [][2]int{{0, 1}}},
			Spins:      []int32{0, 50},
			Parameters: DetectParameters{NumSpins: ptr(4)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := post(t, url, tt.req)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, env.Success)
			assert.Contains(t, env.Error, "invalid argument")
		})
	}

	resp, err := http.Post(url, "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDetectCommunitiesUsesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spinglass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algorithm:\n  n_iter: 7\n  n_spins: 3\n"), 0o644))
	server, _ := newTestServer(t, path)

	status, env := post(t, server.URL+"/api/v1/communities/detect", DetectRequest{Graph: cliquePayload(3)})
	require.Equal(t, http.StatusOK, status, env.Error)

	var result DetectResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 7, result.Iterations)
	for _, s := range result.Spins {
		assert.True(t, s >= 0 && s < 3)
	}
}

func TestComputeModularity(t *testing.T) {
	server, _ := newTestServer(t, "")
	url := server.URL + "/api/v1/communities/modularity"

	partitions := map[string][]interface{}{
		"numbers": {1, 1, 1, 1, 2, 2, 2, 2},
		"strings": {"a", "a", "a", "a", "b", "b", "b", "b"},
		"bools":   {true, true, true, true, false, false, false, false},
	}
	for name, partition := range partitions {
		t.Run(name, func(t *testing.T) {
			status, env := post(t, url, PartitionRequest{Graph: cliquePayload(4), Partition: partition})
			require.Equal(t, http.StatusOK, status, env.Error)

			var result ModularityResponse
			require.NoError(t, json.Unmarshal(env.Data, &result))
			assert.InDelta(t, 0.5, result.Modularity, 1e-12)
		})
	}

	t.Run("Mixed", func(t *testing.T) {
		status, _ := post(t, url, PartitionRequest{Graph: cliquePayload(1), Partition: []interface{}{1, "a"}})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Missing", func(t *testing.T) {
		status, _ := post(t, url, PartitionRequest{Graph: cliquePayload(1)})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestCondenseGraph(t *testing.T) {
	server, _ := newTestServer(t, "")

	status, env := post(t, server.URL+"/api/v1/communities/condense", PartitionRequest{
		Graph:     cliquePayload(3),
		Partition: []interface{}{"x", "x", "x", "y", "y", "y"},
	})
	require.Equal(t, http.StatusOK, status, env.Error)

	var result struct {
		NumNodes    int             `json:"num_nodes"`
		Community   []string        `json:"community"`
		VertexCount []int32         `json:"vertex_count"`
		Edges       []CondensedEdge `json:"edges"`
		Membership  []int           `json:"membership"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))

	assert.Equal(t, 2, result.NumNodes)
	assert.Equal(t, []string{"x", "y"}, result.Community)
	assert.Equal(t, []int32{3, 3}, result.VertexCount)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, result.Membership)
	assert.Equal(t, []CondensedEdge{
		{From: 0, To: 0, Count: 3, Weight: 3},
		{From: 1, To: 1, Count: 3, Weight: 3},
	}, result.Edges)
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newTestServer(t, "")

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/communities/detect", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestLoadServerConfig(t *testing.T) {
	cfg := LoadServerConfig()
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)

	t.Setenv("SPINGLASS_SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("SPINGLASS_SERVER_WRITE_TIMEOUT", "5s")
	t.Setenv("SPINGLASS_SERVER_CONFIG_FILE", "/etc/spinglass.yaml")

	cfg = LoadServerConfig()
	assert.Equal(t, "127.0.0.1:9000", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "/etc/spinglass.yaml", cfg.ConfigFile)
	assert.Equal(t, DefaultLimits().MaxSpins, cfg.Limits.MaxSpins)

	t.Setenv("SPINGLASS_SERVER_MAX_NODES", "500")
	t.Setenv("SPINGLASS_SERVER_MAX_EDGES", "600")
	t.Setenv("SPINGLASS_SERVER_MAX_ITERATIONS", "700")
	t.Setenv("SPINGLASS_SERVER_MAX_SPINS", "16")
	t.Setenv("SPINGLASS_SERVER_MAX_WORKERS", "3")

	cfg = LoadServerConfig()
	assert.Equal(t, Limits{MaxNodes: 500, MaxEdges: 600, MaxIterations: 700, MaxSpins: 16, MaxWorkers: 3}, cfg.Limits)
}

func TestRequestLimits(t *testing.T) {
	registry := metrics.NewRegistry()
	handlers := NewHandlers("", registry)
	handlers.SetLogOutput(io.Discard)
	handlers.SetLimits(Limits{MaxNodes: 10, MaxEdges: 20, MaxIterations: 50, MaxSpins: 8, MaxWorkers: 2})
	server := httptest.NewServer(NewRouter(handlers))
	defer server.Close()

	detect := server.URL + "/api/v1/communities/detect"
	tests := []struct {
		name string
		url  string
		body interface{}
		want string
	}{
		{"DetectTooManyNodes", detect, DetectRequest{Graph: GraphPayload{NumNodes: 1 << 50}}, "num_nodes"},
		{"DetectTooManyEdges", detect, DetectRequest{Graph: GraphPayload{NumNodes: 2, Edges: make([][2]int, 21)}}, "edges"},
		{"TooManySpins", detect, DetectRequest{Graph: cliquePayload(3), Parameters: DetectParameters{NumSpins: ptr(1 << 45)}}, "n_spins"},
		{"TooManyIterations", detect, DetectRequest{Graph: cliquePayload(3), Parameters: DetectParameters{NumIterations: ptr(51)}}, "n_iter"},
		{"TooManyWorkers", detect, DetectRequest{Graph: cliquePayload(3), Parameters: DetectParameters{
			Parallel:   ptr(true),
			NumWorkers: ptr(1 << 30),
		}}, "num_workers"},
		{"ModularityTooManyNodes", server.URL + "/api/v1/communities/modularity", PartitionRequest{Graph: GraphPayload{NumNodes: 1 << 50}}, "num_nodes"},
		{"CondenseTooManyNodes", server.URL + "/api/v1/communities/condense", PartitionRequest{Graph: GraphPayload{NumNodes: 11}}, "num_nodes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := post(t, tt.url, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, env.Success)
			assert.Contains(t, env.Error, "invalid argument")
			assert.Contains(t, env.Error, tt.want)
		})
	}

	// Nothing over the limits reached the engine
	assert.Equal(t, 0, testutil.CollectAndCount(registry.RunsTotal))

	status, env := post(t, detect, DetectRequest{
		Graph:      cliquePayload(3),
		Parameters: DetectParameters{NumIterations: ptr(50), NumSpins: ptr(8), NumWorkers: ptr(2), Parallel: ptr(true)},
	})
	assert.Equal(t, http.StatusOK, status, env.Error)
}
