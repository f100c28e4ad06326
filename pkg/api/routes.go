package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers every endpoint on router
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	api := router.PathPrefix("/api/v1").Subrouter()

	communities := api.PathPrefix("/communities").Subrouter()
	communities.HandleFunc("/detect", handlers.DetectCommunities).Methods("POST")
	communities.HandleFunc("/modularity", handlers.ComputeModularity).Methods("POST")
	communities.HandleFunc("/condense", handlers.CondenseGraph).Methods("POST")

	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/algorithms", handlers.ListAlgorithms).Methods("GET")

	if handlers.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(handlers.registry.Gatherer(), promhttp.HandlerOpts{})).Methods("GET")
	}
}

// NewRouter builds the router with the full middleware stack. CORS wraps the
// router itself so preflight requests are answered before route matching.
func NewRouter(handlers *Handlers) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)
	return CORSMiddleware(router)
}
